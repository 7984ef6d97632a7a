package adapters

import (
	"context"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"module-tool/internal/core"
	"module-tool/internal/ports"
	"module-tool/internal/shared"
	"module-tool/internal/types"
)

// DescriptorFileAdapter reads and writes module.properties files through
// the archive filesystem.
type DescriptorFileAdapter struct {
	fs ports.ArchiveFSPort
}

func NewDescriptorFileAdapter(fs ports.ArchiveFSPort) DescriptorFileAdapter {
	return DescriptorFileAdapter{fs: fs}
}

func (a DescriptorFileAdapter) Read(ctx context.Context, pkg string) (types.ModuleDescriptor, error) {
	return a.readAt(ctx, shared.Join(pkg, shared.DescriptorFileName))
}

func (a DescriptorFileAdapter) ReadInstalled(ctx context.Context, container string, moduleID string) (types.ModuleDescriptor, error) {
	return a.readAt(ctx, shared.Join(container, shared.DescriptorPath(moduleID)))
}

// ListInstalled returns the descriptors found under the module namespace
// directory of a container, sorted by id. Unreadable descriptors are
// skipped with a warning.
func (a DescriptorFileAdapter) ListInstalled(ctx context.Context, container string) ([]types.ModuleDescriptor, error) {
	namespace := shared.Join(container, shared.ModuleNamespaceDir)
	if !a.fs.IsDir(namespace) {
		return nil, nil
	}
	entries, err := a.fs.List(namespace)
	if err != nil {
		return nil, err
	}
	var installed []types.ModuleDescriptor
	for _, entry := range entries {
		if !entry.IsDir {
			continue
		}
		path := shared.Join(entry.Path, shared.DescriptorFileName)
		if !a.fs.Exists(path) {
			continue
		}
		desc, err := a.readAt(ctx, path)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("skipping unreadable module descriptor")
			continue
		}
		installed = append(installed, desc)
	}
	sort.Slice(installed, func(i, j int) bool { return installed[i].ID < installed[j].ID })
	return installed, nil
}

func (a DescriptorFileAdapter) Write(ctx context.Context, container string, desc types.ModuleDescriptor) error {
	data, err := encodeProperties(core.DescriptorProperties(desc))
	if err != nil {
		return err
	}
	path := shared.Join(container, shared.DescriptorPath(desc.ID))
	log.Ctx(ctx).Debug().Str("path", path).Msg("writing module descriptor")
	return a.fs.WriteFile(path, data)
}

func (a DescriptorFileAdapter) readAt(ctx context.Context, path string) (types.ModuleDescriptor, error) {
	if !a.fs.Exists(path) {
		return types.ModuleDescriptor{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("no module.properties found at " + path)
	}
	data, err := a.fs.ReadFile(path)
	if err != nil {
		return types.ModuleDescriptor{}, err
	}
	props, err := decodeProperties(data, path)
	if err != nil {
		return types.ModuleDescriptor{}, err
	}
	return core.ParseDescriptor(ctx, props.Map())
}

var _ ports.DescriptorPort = DescriptorFileAdapter{}
