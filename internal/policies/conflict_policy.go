package policies

import (
	"module-tool/internal/ports"
	"module-tool/internal/types"
)

// ConflictPolicy decides what happens to a package file whose destination
// path already holds a file in the container.
type ConflictPolicy struct {
	Force bool
}

func NewConflictPolicy(force bool) ConflictPolicy {
	return ConflictPolicy{Force: force}
}

func (p ConflictPolicy) Resolve(destinationExists bool) types.ConflictAction {
	switch {
	case !destinationExists:
		return types.ConflictAdd
	case p.Force:
		return types.ConflictBackup
	default:
		return types.ConflictRejected
	}
}

var _ ports.ConflictPort = ConflictPolicy{}
