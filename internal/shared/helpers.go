// Package shared holds the container path layout and small path helpers
// used across the module-tool codebase.
package shared

import (
	"path"
	"sort"
	"strings"
)

const (
	ModuleNamespaceDir   = "/WEB-INF/classes/alfresco/module"
	BackupDir            = ModuleNamespaceDir + "/backup"
	DescriptorFileName   = "module.properties"
	LedgerFileName       = "modifications.install"
	FileMappingFileName  = "file-mapping.properties"
	VersionResourcePath  = "/WEB-INF/classes/alfresco/version.properties"
	ManifestPath         = "/META-INF/MANIFEST.MF"
	BackupFileExtension  = ".bin"
	IncludeDefaultKey    = "include.default"
	PackageFileExtension = ".amp"
	ContainerExtension   = ".war"
)

// ModuleDir returns the container-relative directory of a module.
func ModuleDir(moduleID string) string {
	return ModuleNamespaceDir + "/" + moduleID
}

func DescriptorPath(moduleID string) string {
	return ModuleDir(moduleID) + "/" + DescriptorFileName
}

func LedgerPath(moduleID string) string {
	return ModuleDir(moduleID) + "/" + LedgerFileName
}

func BackupPath(id string) string {
	return BackupDir + "/" + id + BackupFileExtension
}

// Join appends container-relative path rel to base. rel is always
// treated as rooted, so Join("/a.war", "/x") is "/a.war/x".
func Join(base string, rel string) string {
	base = strings.TrimRight(base, "/")
	rel = strings.TrimLeft(rel, "/")
	if rel == "" {
		return base
	}
	return base + "/" + rel
}

// Ancestors returns the proper ancestors of a rooted slash path, nearest
// first, excluding the root itself.
func Ancestors(p string) []string {
	var out []string
	for dir := path.Dir(path.Clean("/" + p)); dir != "/" && dir != "."; dir = path.Dir(dir) {
		out = append(out, dir)
	}
	return out
}

// Depth counts the segments of a rooted slash path.
func Depth(p string) int {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "/") + 1
}

// SortDeepestFirst orders paths so children precede their parents,
// keeping the existing order among paths of equal depth.
func SortDeepestFirst(paths []string) {
	sort.SliceStable(paths, func(i, j int) bool {
		return Depth(paths[i]) > Depth(paths[j])
	})
}

// SplitList splits a comma separated property value, dropping blanks.
func SplitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
