package types

// PlatformFacts are the version and edition facts read from a container.
// Empty strings mean the fact could not be determined.
type PlatformFacts struct {
	Version       string
	VersionSource string
	Edition       string
	EditionSource string
	Community     bool
	FrontEnd      bool
}

func (p PlatformFacts) HasVersion() bool {
	return p.Version != ""
}

func (p PlatformFacts) HasEdition() bool {
	return p.Edition != ""
}
