package app

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"module-tool/internal/adapters"
	"module-tool/internal/core"
	"module-tool/internal/policies"
	"module-tool/internal/ports"
)

type Service struct {
	Archive     ports.ArchiveFSPort
	Descriptors ports.DescriptorPort
	Ledgers     ports.LedgerPort
	Mappings    ports.FileMappingPort
	Platform    ports.PlatformPort
	Backups     ports.ContainerBackupPort
	Packages    ports.PackageFinderPort
	IDs         ports.IDGeneratorPort
	Clock       func() time.Time
	// SupersedePolicy and ConflictPolicy build the per-request policies;
	// nil selects the defaults.
	SupersedePolicy func(force bool) ports.SupersedePort
	ConflictPolicy  func(force bool) ports.ConflictPort
}

// ServiceConfig carries the settings that select adapter behaviour.
type ServiceConfig struct {
	DefaultFileMapping string
	BackupExtension    string
	ArchiveExtensions  []string
}

func NewService(cfg ServiceConfig) Service {
	archive := adapters.NewArchiveFSAdapter(cfg.ArchiveExtensions...)
	return Service{
		Archive:     archive,
		Descriptors: adapters.NewDescriptorFileAdapter(archive),
		Ledgers:     adapters.NewLedgerFileAdapter(archive),
		Mappings:    adapters.NewFileMappingAdapter(archive, cfg.DefaultFileMapping),
		Platform:    adapters.NewPlatformInspectorAdapter(archive),
		Backups:     adapters.NewContainerBackupAdapter(archive, cfg.BackupExtension),
		Packages:    adapters.NewPackageFinderAdapter(),
		IDs:         adapters.NewUUIDGenerator(),
		Clock:       time.Now,
	}
}

func (s Service) supersedePolicy(force bool) ports.SupersedePort {
	if s.SupersedePolicy != nil {
		return s.SupersedePolicy(force)
	}
	return policies.NewSupersedePolicy(force, core.CompareModuleVersions)
}

func (s Service) conflictPolicy(force bool) ports.ConflictPort {
	if s.ConflictPolicy != nil {
		return s.ConflictPolicy(force)
	}
	return policies.NewConflictPolicy(force)
}

func timeNow(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock().UTC()
}

func requirePath(value string, what string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(what + " is required")
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid " + what + " " + trimmed).
			WithCause(err)
	}
	return filepath.ToSlash(abs), nil
}

func requireModuleID(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("module id is required")
	}
	return trimmed, nil
}

// unmountAll flushes every path, keeping the first error.
func (s Service) unmountAll(paths ...string) error {
	var first error
	for _, p := range paths {
		if err := s.Archive.Unmount(p); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s Service) EnableModule(_ context.Context, req ModuleStateRequest) error {
	return notSupported("enable module " + req.ModuleID)
}

func (s Service) DisableModule(_ context.Context, req ModuleStateRequest) error {
	return notSupported("disable module " + req.ModuleID)
}

func notSupported(operation string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(operation + ": not currently supported")
}
