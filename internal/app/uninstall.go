package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"module-tool/internal/shared"
)

// Uninstall reverses the changes recorded in a module's ledger. Paths the
// ledger names that are already gone are reported, not treated as errors.
func (s Service) Uninstall(ctx context.Context, req UninstallRequest) (result UninstallResult, err error) {
	moduleID, err := requireModuleID(req.ModuleID)
	if err != nil {
		return UninstallResult{}, err
	}
	container, err := requirePath(req.Container, "container")
	if err != nil {
		return UninstallResult{}, err
	}
	req.ModuleID, req.Container = moduleID, container

	if err := s.Archive.Mount(container); err != nil {
		return UninstallResult{}, err
	}
	defer func() {
		if unmountErr := s.unmountAll(container); unmountErr != nil && err == nil {
			err = unmountErr
		}
	}()
	return s.uninstallMounted(ctx, req)
}

func (s Service) uninstallMounted(ctx context.Context, req UninstallRequest) (UninstallResult, error) {
	logger := log.Ctx(ctx).With().Str("module", req.ModuleID).Logger()
	result := UninstallResult{ModuleID: req.ModuleID, Preview: req.Preview}

	files, err := s.Ledgers.Load(ctx, req.Container, req.ModuleID)
	if err != nil {
		return result, err
	}
	if installed, err := s.Descriptors.ReadInstalled(ctx, req.Container, req.ModuleID); err != nil {
		logger.Warn().Err(err).Msg("installed module descriptor unreadable, continuing with the ledger alone")
	} else {
		result.Version = installed.Version.String()
	}
	logger.Info().
		Str("container", req.Container).
		Str("version", result.Version).
		Bool("preview", req.Preview).
		Msg("uninstalling module")

	// gone holds the container paths this uninstall has removed, or would
	// remove in preview.
	gone := map[string]bool{}
	pruner := dirPruner{service: s, container: req.Container, preview: req.Preview, gone: gone}

	for _, add := range files.Adds {
		full := shared.Join(req.Container, add)
		if !s.Archive.Exists(full) {
			logger.Warn().Str("path", add).Msg("file expected for removal was not present")
			result.Missing = append(result.Missing, add)
			continue
		}
		logger.Debug().Str("path", add).Msg("removing file added by module")
		if !req.Preview {
			if err := s.Archive.Delete(full); err != nil {
				return result, err
			}
		}
		gone[add] = true
		result.Removed = append(result.Removed, add)
	}

	var deferred []string
	for _, dir := range files.Mkdirs {
		if !s.Archive.Exists(shared.Join(req.Container, dir)) {
			logger.Warn().Str("path", dir).Msg("directory expected for removal was not present")
			result.Missing = append(result.Missing, dir)
			continue
		}
		removed, err := pruner.removeIfEmpty(dir)
		if err != nil {
			return result, err
		}
		if !removed {
			deferred = append(deferred, dir)
			continue
		}
		logger.Debug().Str("path", dir).Msg("removing directory created by module")
		result.Removed = append(result.Removed, dir)
	}

	for _, update := range files.Updates {
		full := shared.Join(req.Container, update.Path)
		backup := shared.Join(req.Container, update.Backup)
		if !s.Archive.Exists(backup) {
			logger.Warn().Str("path", update.Path).Str("backup", update.Backup).Msg("backup expected for recovery was not present")
			result.Missing = append(result.Missing, update.Backup)
			continue
		}
		logger.Debug().Str("path", update.Path).Str("backup", update.Backup).Msg("recovering file from backup")
		if !req.Preview {
			if err := s.Archive.Copy(backup, full); err != nil {
				return result, err
			}
			if err := s.Archive.Delete(backup); err != nil {
				return result, err
			}
		}
		gone[update.Backup] = true
		result.Restored = append(result.Restored, update.Path)
	}

	for _, rel := range []string{shared.LedgerPath(req.ModuleID), shared.DescriptorPath(req.ModuleID)} {
		full := shared.Join(req.Container, rel)
		if !s.Archive.Exists(full) {
			logger.Warn().Str("path", rel).Msg("module file expected for removal was not present")
			continue
		}
		logger.Debug().Str("path", rel).Msg("removing module file")
		if !req.Preview {
			if err := s.Archive.Delete(full); err != nil {
				return result, err
			}
		}
		gone[rel] = true
	}

	// Directories that still held the ledger, the descriptor or backups
	// may be empty now.
	shared.SortDeepestFirst(deferred)
	for _, dir := range deferred {
		removed, err := pruner.removeIfEmpty(dir)
		if err != nil {
			return result, err
		}
		if !removed {
			logger.Warn().Str("path", dir).Msg("directory created by module is not empty, leaving it in place")
			result.Retained = append(result.Retained, dir)
			continue
		}
		logger.Debug().Str("path", dir).Msg("removing directory created by module")
		result.Removed = append(result.Removed, dir)
	}

	if req.Purge {
		logger.Debug().Msg("purge requested")
	}
	logger.Info().
		Int("removed", len(result.Removed)).
		Int("restored", len(result.Restored)).
		Int("missing", len(result.Missing)).
		Int("retained", len(result.Retained)).
		Msg("module uninstalled")
	return result, nil
}

// dirPruner removes directories that hold nothing. In preview nothing is
// deleted; a directory counts as empty when every child is already in gone.
type dirPruner struct {
	service   Service
	container string
	preview   bool
	gone      map[string]bool
}

func (p dirPruner) removeIfEmpty(dir string) (bool, error) {
	full := shared.Join(p.container, dir)
	entries, err := p.service.Archive.List(full)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if !p.preview || !p.gone[strings.TrimRight(dir, "/")+"/"+entry.Name] {
			return false, nil
		}
	}
	if !p.preview {
		if err := p.service.Archive.Delete(full); err != nil {
			return false, err
		}
	}
	p.gone[dir] = true
	return true, nil
}
