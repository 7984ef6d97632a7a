package adapters

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/bmatcuk/doublestar/v4"

	"module-tool/internal/ports"
)

const packagePattern = "**/*.amp"

// PackageFinderAdapter discovers package files beneath a host directory,
// matching the extension case-insensitively.
type PackageFinderAdapter struct{}

func NewPackageFinderAdapter() PackageFinderAdapter {
	return PackageFinderAdapter{}
}

func (a PackageFinderAdapter) FindPackages(_ context.Context, root string) ([]string, error) {
	if root == "" {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("package directory is empty")
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("package directory " + root + " does not exist")
	}
	var found []string
	err = doublestar.GlobWalk(os.DirFS(root), packagePattern, func(match string, _ fs.DirEntry) error {
		found = append(found, filepath.Join(root, filepath.FromSlash(match)))
		return nil
	}, doublestar.WithCaseInsensitive(), doublestar.WithFilesOnly())
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to scan package directory " + root).
			WithCause(err)
	}
	sort.Strings(found)
	return found, nil
}

var _ ports.PackageFinderPort = PackageFinderAdapter{}
