package ports

import (
	"context"

	"module-tool/internal/types"
)

type LedgerPort interface {
	Load(ctx context.Context, container string, moduleID string) (types.InstalledFiles, error)
	Save(ctx context.Context, container string, files types.InstalledFiles) error
}
