package types

import "slices"

type FileUpdate struct {
	Path   string
	Backup string
}

// InstalledFiles records every change an install made to a container.
// Each list is an ordered set: re-adding an existing entry is a no-op.
type InstalledFiles struct {
	ModuleID string
	Adds     []string
	Updates  []FileUpdate
	Mkdirs   []string
}

func NewInstalledFiles(moduleID string) InstalledFiles {
	return InstalledFiles{ModuleID: moduleID}
}

func (f InstalledFiles) WithAdd(path string) InstalledFiles {
	if slices.Contains(f.Adds, path) {
		return f
	}
	f.Adds = append(slices.Clone(f.Adds), path)
	return f
}

func (f InstalledFiles) WithUpdate(path string, backup string) InstalledFiles {
	if f.HasUpdate(path) {
		return f
	}
	f.Updates = append(slices.Clone(f.Updates), FileUpdate{Path: path, Backup: backup})
	return f
}

func (f InstalledFiles) HasUpdate(path string) bool {
	return slices.ContainsFunc(f.Updates, func(update FileUpdate) bool { return update.Path == path })
}

func (f InstalledFiles) WithMkdir(path string) InstalledFiles {
	if slices.Contains(f.Mkdirs, path) {
		return f
	}
	f.Mkdirs = append(slices.Clone(f.Mkdirs), path)
	return f
}
