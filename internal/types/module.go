package types

import (
	"fmt"
	"time"
)

type ModuleVersion struct {
	Major     int
	Minor     int
	Revision  int
	Qualifier string
}

func (v ModuleVersion) String() string {
	base := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
	if v.Qualifier == "" {
		return base
	}
	return base + "-" + v.Qualifier
}

// ModuleDependency is a requirement on another module. A nil bound is
// unbounded on that side.
type ModuleDependency struct {
	ID  string
	Min *ModuleVersion
	Max *ModuleVersion
}

type ModuleDescriptor struct {
	ID             string
	Version        ModuleVersion
	Title          string
	Description    string
	Aliases        []string
	Dependencies   []ModuleDependency
	Editions       []string
	RepoVersionMin *ModuleVersion
	RepoVersionMax *ModuleVersion
	InstallState   InstallState
	InstallDate    time.Time
}

// Property is one key/value pair of a properties document, kept in
// document order.
type Property struct {
	Key   string
	Value string
}
