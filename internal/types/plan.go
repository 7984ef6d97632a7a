package types

import "time"

// Entry is one child of a directory in the archive filesystem.
type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

type DirCopy struct {
	Source string
	Dest   string
}

// CopyPlan is the result of planning a package install: the ledger the
// install will persist, the container files to back up before copying,
// and the directory trees to copy.
type CopyPlan struct {
	Ledger  InstalledFiles
	Backups []FileUpdate
	Copies  []DirCopy
}

type SupersedeDecision struct {
	Action    SupersedeAction
	Installed *ModuleDescriptor
	Reason    string
}
