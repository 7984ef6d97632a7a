package types

type InstallState string

const (
	InstallStateUnknown     InstallState = ""
	InstallStateUninstalled InstallState = "UNINSTALLED"
	InstallStateInstalled   InstallState = "INSTALLED"
)

type LedgerEntryKind string

const (
	LedgerEntryAdd    LedgerEntryKind = "add"
	LedgerEntryUpdate LedgerEntryKind = "update"
	LedgerEntryMkdir  LedgerEntryKind = "mkdir"
)

// SupersedeAction is the decision taken when a module with the same
// identity is already present in the container.
type SupersedeAction string

const (
	SupersedeNone      SupersedeAction = "none"
	SupersedeSkip      SupersedeAction = "skip"
	SupersedeReinstall SupersedeAction = "reinstall"
	SupersedeUpgrade   SupersedeAction = "upgrade"
	SupersedeForce     SupersedeAction = "force"
)

// ConflictAction is the decision taken for a single destination file.
type ConflictAction string

const (
	ConflictAdd      ConflictAction = "add"
	ConflictBackup   ConflictAction = "backup"
	ConflictRejected ConflictAction = "rejected"
)
