package adapters

import (
	"context"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"module-tool/internal/core"
	"module-tool/internal/ports"
	"module-tool/internal/shared"
	"module-tool/internal/types"
)

// LedgerFileAdapter persists installed-file ledgers as
// modifications.install inside the module directory of a container.
type LedgerFileAdapter struct {
	fs ports.ArchiveFSPort
}

func NewLedgerFileAdapter(fs ports.ArchiveFSPort) LedgerFileAdapter {
	return LedgerFileAdapter{fs: fs}
}

func (a LedgerFileAdapter) Load(ctx context.Context, container string, moduleID string) (types.InstalledFiles, error) {
	path := shared.Join(container, shared.LedgerPath(moduleID))
	if !a.fs.Exists(path) {
		return types.InstalledFiles{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("ledger not found for module " + moduleID + " at " + path)
	}
	data, err := a.fs.ReadFile(path)
	if err != nil {
		return types.InstalledFiles{}, err
	}
	files, err := core.DecodeLedger(moduleID, data)
	if err != nil {
		return types.InstalledFiles{}, err
	}
	log.Ctx(ctx).Debug().
		Str("module", moduleID).
		Int("adds", len(files.Adds)).
		Int("updates", len(files.Updates)).
		Int("mkdirs", len(files.Mkdirs)).
		Msg("loaded ledger")
	return files, nil
}

func (a LedgerFileAdapter) Save(ctx context.Context, container string, files types.InstalledFiles) error {
	path := shared.Join(container, shared.LedgerPath(files.ModuleID))
	log.Ctx(ctx).Debug().Str("path", path).Msg("writing ledger")
	return a.fs.WriteFile(path, core.EncodeLedger(files))
}

var _ ports.LedgerPort = LedgerFileAdapter{}
