package core

import (
	"context"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"module-tool/internal/policies"
	"module-tool/internal/ports"
	"module-tool/internal/shared"
	"module-tool/internal/types"
)

// TreeReader is the read-only filesystem view the planner walks.
type TreeReader interface {
	Exists(path string) bool
	IsDir(path string) bool
	List(path string) ([]types.Entry, error)
}

type CopyPlanRequest struct {
	Package   string
	Container string
	ModuleID  string
	Rules     []types.FileMappingRule
	Force     bool
	// Conflicts decides each overwrite; nil uses the conflict policy
	// for Force.
	Conflicts ports.ConflictPort
	// Removed lists container paths that an earlier step of the same
	// install removes; they are treated as absent.
	Removed  map[string]bool
	BackupID func() string
}

type copyPlanner struct {
	tree      TreeReader
	req       CopyPlanRequest
	conflicts ports.ConflictPort
	plan      types.CopyPlan
}

// PlanCopy decides, for every file the mapping rules select from the
// package, whether it is added to the container or overwrites (and backs
// up) an existing file. Every conflict is detected here, before anything
// is copied. The returned plan holds the ledger the install will persist.
func PlanCopy(ctx context.Context, tree TreeReader, req CopyPlanRequest) (types.CopyPlan, error) {
	assert.NotEmpty(ctx, req.Package, "package path must be set")
	assert.NotEmpty(ctx, req.Container, "container path must be set")
	assert.NotEmpty(ctx, req.ModuleID, "module id must be set")

	conflicts := req.Conflicts
	if conflicts == nil {
		conflicts = policies.NewConflictPolicy(req.Force)
	}
	p := copyPlanner{
		tree:      tree,
		req:       req,
		conflicts: conflicts,
		plan:      types.CopyPlan{Ledger: types.NewInstalledFiles(req.ModuleID)},
	}
	for _, rule := range req.Rules {
		source := shared.Join(req.Package, rule.Source)
		if !tree.IsDir(source) {
			log.Ctx(ctx).Debug().Str("source", rule.Source).Msg("package has no files for mapping")
			continue
		}
		entries, err := tree.List(source)
		if err != nil {
			return types.CopyPlan{}, listError(source, err)
		}
		if len(entries) == 0 {
			continue
		}
		if err := p.walk(ctx, source, rule.Dest); err != nil {
			return types.CopyPlan{}, err
		}
		p.recordMissingDirs(rule.Dest)
		p.plan.Copies = append(p.plan.Copies, types.DirCopy{
			Source: source,
			Dest:   shared.Join(req.Container, rule.Dest),
		})
	}
	p.recordMissingDirs(shared.ModuleDir(req.ModuleID))
	if len(p.plan.Backups) > 0 {
		p.recordMissingDirs(shared.BackupDir)
	}
	shared.SortDeepestFirst(p.plan.Ledger.Mkdirs)
	return p.plan, nil
}

func (p *copyPlanner) walk(ctx context.Context, sourceDir string, destDir string) error {
	logger := log.Ctx(ctx)
	entries, err := p.tree.List(sourceDir)
	if err != nil {
		return listError(sourceDir, err)
	}
	for _, entry := range entries {
		dest := destDir + "/" + entry.Name
		exists := p.exists(dest)
		if entry.IsDir {
			if exists && !p.isDir(dest) {
				return conflictError(dest, "a file in the container has the same path as a package directory")
			}
			if err := p.walk(ctx, entry.Path, dest); err != nil {
				return err
			}
			if !exists {
				p.plan.Ledger = p.plan.Ledger.WithMkdir(dest)
				logger.Debug().Str("path", dest).Msg("directory added to container from package")
			}
			continue
		}
		if exists && p.isDir(dest) {
			return conflictError(dest, "a directory in the container has the same path as a package file")
		}
		switch p.conflicts.Resolve(exists) {
		case types.ConflictAdd:
			p.plan.Ledger = p.plan.Ledger.WithAdd(dest)
			logger.Debug().Str("path", dest).Msg("file added to container from package")
		case types.ConflictRejected:
			return conflictError(dest, "the package would overwrite an existing file in the container")
		case types.ConflictBackup:
			if p.plan.Ledger.HasUpdate(dest) {
				// An earlier rule already backed up the original.
				continue
			}
			backup := shared.BackupPath(p.req.BackupID())
			p.plan.Ledger = p.plan.Ledger.WithUpdate(dest, backup)
			p.plan.Backups = append(p.plan.Backups, types.FileUpdate{Path: dest, Backup: backup})
			logger.Warn().
				Str("path", dest).
				Str("backup", backup).
				Msg("file in container is overwritten by package, original backed up")
		}
	}
	return nil
}

// recordMissingDirs records dir and its missing ancestors so uninstall can
// remove directories the install created implicitly.
func (p *copyPlanner) recordMissingDirs(dir string) {
	if dir == "" || dir == "/" {
		return
	}
	chain := append([]string{dir}, shared.Ancestors(dir)...)
	for _, candidate := range chain {
		if p.exists(candidate) {
			return
		}
		p.plan.Ledger = p.plan.Ledger.WithMkdir(candidate)
	}
}

func (p *copyPlanner) exists(rel string) bool {
	if p.req.Removed[rel] {
		return false
	}
	return p.tree.Exists(shared.Join(p.req.Container, rel))
}

func (p *copyPlanner) isDir(rel string) bool {
	return p.tree.IsDir(shared.Join(p.req.Container, rel))
}

func conflictError(path string, reason string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeAlreadyExists).
		WithMsg(reason + " '" + path + "'; execution halted, use -force to install regardless of the container state")
}

func listError(path string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("failed to list " + path).
		WithCause(err)
}
