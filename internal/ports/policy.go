package ports

import "module-tool/internal/types"

type SupersedePort interface {
	Decide(installed *types.ModuleDescriptor, incoming types.ModuleDescriptor) types.SupersedeDecision
}

type ConflictPort interface {
	Resolve(destinationExists bool) types.ConflictAction
}
