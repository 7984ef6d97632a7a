package app

import "module-tool/internal/types"

type InstallRequest struct {
	Package   string
	Container string
	Force     bool
	Preview   bool
	Backup    bool
}

type InstallResult struct {
	ModuleID   string
	Version    string
	Skipped    bool
	Superseded *types.ModuleDescriptor
	Ledger     types.InstalledFiles
	BackupPath string
	Preview    bool
}

type InstallDirectoryResult struct {
	Packages   []string
	Installed  []InstallResult
	BackupPath string
}

type UninstallRequest struct {
	ModuleID  string
	Container string
	Preview   bool
	Purge     bool
}

type UninstallResult struct {
	ModuleID string
	Version  string
	Removed  []string
	Restored []string
	Missing  []string
	Retained []string
	Preview  bool
}

type ListRequest struct {
	Container string
}

type ListResult struct {
	Container string
	Modules   []types.ModuleDescriptor
}

type ModuleStateRequest struct {
	ModuleID  string
	Container string
}
