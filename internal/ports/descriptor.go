package ports

import (
	"context"

	"module-tool/internal/types"
)

type DescriptorPort interface {
	// Read parses the module.properties at the root of a package.
	Read(ctx context.Context, pkg string) (types.ModuleDescriptor, error)
	ReadInstalled(ctx context.Context, container string, moduleID string) (types.ModuleDescriptor, error)
	ListInstalled(ctx context.Context, container string) ([]types.ModuleDescriptor, error)
	Write(ctx context.Context, container string, desc types.ModuleDescriptor) error
}
