package ports

import (
	"context"

	"module-tool/internal/types"
)

type PlatformPort interface {
	Inspect(ctx context.Context, container string) (types.PlatformFacts, error)
}
