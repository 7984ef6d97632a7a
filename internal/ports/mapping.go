package ports

import (
	"context"

	"module-tool/internal/types"
)

// FileMappingPort returns the mapping rules active for a package: the
// defaults merged under the package's own overrides.
type FileMappingPort interface {
	Rules(ctx context.Context, pkg string) ([]types.FileMappingRule, error)
}
