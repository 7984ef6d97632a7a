package ports

import "context"

type PackageFinderPort interface {
	FindPackages(ctx context.Context, root string) ([]string, error)
}

type IDGeneratorPort interface {
	NewID() string
}
