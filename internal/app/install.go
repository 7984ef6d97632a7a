package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"module-tool/internal/core"
	"module-tool/internal/policies"
	"module-tool/internal/shared"
	"module-tool/internal/types"
)

// Install installs one package into a container. The container is always
// unmounted before returning; a flush failure is reported even when the
// install itself succeeded.
func (s Service) Install(ctx context.Context, req InstallRequest) (result InstallResult, err error) {
	pkg, err := requirePath(req.Package, "package")
	if err != nil {
		return InstallResult{}, err
	}
	container, err := requirePath(req.Container, "container")
	if err != nil {
		return InstallResult{}, err
	}
	req.Package, req.Container = pkg, container

	if err := s.Archive.Mount(container); err != nil {
		return InstallResult{}, err
	}
	defer func() {
		if unmountErr := s.unmountAll(pkg, container); unmountErr != nil && err == nil {
			err = unmountErr
		}
	}()
	if err := s.Archive.Mount(pkg); err != nil {
		return InstallResult{}, err
	}
	return s.installMounted(ctx, req)
}

// InstallDirectory installs every package found beneath req.Package in
// path order. The container is backed up at most once for the batch.
func (s Service) InstallDirectory(ctx context.Context, req InstallRequest) (InstallDirectoryResult, error) {
	dir, err := requirePath(req.Package, "package directory")
	if err != nil {
		return InstallDirectoryResult{}, err
	}
	packages, err := s.Packages.FindPackages(ctx, dir)
	if err != nil {
		return InstallDirectoryResult{}, err
	}
	result := InstallDirectoryResult{Packages: packages}
	if len(packages) == 0 {
		log.Ctx(ctx).Warn().Str("directory", dir).Msg("no packages found")
		return result, nil
	}
	backup := req.Backup
	for _, pkg := range packages {
		single := req
		single.Package = pkg
		single.Backup = backup
		installed, err := s.Install(ctx, single)
		if err != nil {
			return result, err
		}
		if installed.BackupPath != "" {
			result.BackupPath = installed.BackupPath
		}
		result.Installed = append(result.Installed, installed)
		backup = false
	}
	return result, nil
}

func (s Service) installMounted(ctx context.Context, req InstallRequest) (InstallResult, error) {
	logger := log.Ctx(ctx)
	result := InstallResult{Preview: req.Preview}

	if req.Backup && !req.Preview {
		backupPath, err := s.Backups.Backup(ctx, req.Container)
		if err != nil {
			return result, err
		}
		result.BackupPath = backupPath
	}

	desc, err := s.Descriptors.Read(ctx, req.Package)
	if err != nil {
		return result, err
	}
	result.ModuleID = desc.ID
	result.Version = desc.Version.String()
	logger.Info().
		Str("module", desc.ID).
		Str("version", result.Version).
		Str("container", req.Container).
		Bool("preview", req.Preview).
		Msg("installing module")

	rules, err := s.Mappings.Rules(ctx, req.Package)
	if err != nil {
		return result, err
	}
	facts, err := s.Platform.Inspect(ctx, req.Container)
	if err != nil {
		return result, err
	}
	installed, err := s.Descriptors.ListInstalled(ctx, req.Container)
	if err != nil {
		return result, err
	}
	if err := core.NewCompatibilityChecker(facts, installed).Check(ctx, desc); err != nil {
		return result, err
	}

	removed, err := s.supersede(ctx, req, desc, installed, &result)
	if err != nil || result.Skipped {
		return result, err
	}

	plan, err := core.PlanCopy(ctx, s.Archive, core.CopyPlanRequest{
		Package:   req.Package,
		Container: req.Container,
		ModuleID:  desc.ID,
		Rules:     rules,
		Force:     req.Force,
		Conflicts: s.conflictPolicy(req.Force),
		Removed:   removed,
		BackupID:  s.IDs.NewID,
	})
	if err != nil {
		return result, err
	}
	result.Ledger = plan.Ledger
	if req.Preview {
		logger.Info().
			Str("module", desc.ID).
			Int("adds", len(plan.Ledger.Adds)).
			Int("updates", len(plan.Ledger.Updates)).
			Int("mkdirs", len(plan.Ledger.Mkdirs)).
			Msg("preview complete, container not modified")
		return result, nil
	}

	if err := s.applyPlan(ctx, req.Container, plan); err != nil {
		return result, err
	}
	if err := s.Ledgers.Save(ctx, req.Container, plan.Ledger); err != nil {
		return result, err
	}
	now := timeNow(s.Clock)
	desc.InstallState = types.InstallStateInstalled
	desc.InstallDate = now
	if err := s.Descriptors.Write(ctx, req.Container, desc); err != nil {
		return result, err
	}
	if err := s.Archive.Touch(req.Container, now); err != nil {
		return result, err
	}
	logger.Info().Str("module", desc.ID).Str("version", result.Version).Msg("module installed")
	return result, nil
}

// supersede applies the supersede decision for desc. It returns the
// container paths a preview uninstall would have removed.
func (s Service) supersede(ctx context.Context, req InstallRequest, desc types.ModuleDescriptor, installed []types.ModuleDescriptor, result *InstallResult) (map[string]bool, error) {
	logger := log.Ctx(ctx)
	var existing *types.ModuleDescriptor
	if found, ok := core.FindInstalled(installed, desc); ok {
		existing = &found
	}
	decision := s.supersedePolicy(req.Force).Decide(existing, desc)
	switch decision.Action {
	case types.SupersedeNone:
		return nil, nil
	case types.SupersedeSkip:
		logger.Warn().Str("module", desc.ID).Msg(decision.Reason)
		result.Skipped = true
		return nil, nil
	case types.SupersedeUpgrade:
		logger.Info().Str("module", desc.ID).Msg(decision.Reason)
	default:
		logger.Warn().Str("module", desc.ID).Msg(decision.Reason)
	}
	if !policies.Proceeds(decision) {
		return nil, nil
	}
	result.Superseded = existing
	uninstalled, err := s.uninstallMounted(ctx, UninstallRequest{
		ModuleID:  existing.ID,
		Container: req.Container,
		Preview:   req.Preview,
		Purge:     true,
	})
	if err != nil {
		return nil, err
	}
	if !req.Preview {
		return nil, nil
	}
	removed := make(map[string]bool, len(uninstalled.Removed))
	for _, p := range uninstalled.Removed {
		removed[p] = true
	}
	return removed, nil
}

// applyPlan backs up the files the plan overwrites, then copies the
// package trees. A failure part way leaves earlier copies in place.
func (s Service) applyPlan(ctx context.Context, container string, plan types.CopyPlan) error {
	logger := log.Ctx(ctx)
	for _, backup := range plan.Backups {
		logger.Debug().Str("path", backup.Path).Str("backup", backup.Backup).Msg("backing up file")
		if err := s.Archive.Copy(shared.Join(container, backup.Path), shared.Join(container, backup.Backup)); err != nil {
			return err
		}
	}
	for _, dirCopy := range plan.Copies {
		logger.Debug().Str("source", dirCopy.Source).Str("dest", dirCopy.Dest).Msg("copying package files")
		if err := s.Archive.Copy(dirCopy.Source, dirCopy.Dest); err != nil {
			return err
		}
	}
	return nil
}
