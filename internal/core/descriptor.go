package core

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"module-tool/internal/shared"
	"module-tool/internal/types"
)

const (
	descriptorPrefix  = "module."
	dependsPrefix     = "depends."
	InstallDateLayout = "2006-01-02T15:04:05.000Z07:00"
)

const (
	propID             = "id"
	propVersion        = "version"
	propTitle          = "title"
	propDescription    = "description"
	propAliases        = "aliases"
	propEditions       = "editions"
	propRepoVersionMin = "repo.version.min"
	propRepoVersionMax = "repo.version.max"
	propInstallState   = "installState"
	propInstallDate    = "installDate"

	legacyInstallState = "install.state"
	legacyInstallDate  = "install.date"
)

var moduleIDPattern = regexp.MustCompile(`^[\w.\-]+$`)

// ValidModuleID reports whether id is safe to use as a directory name.
func ValidModuleID(id string) bool {
	return moduleIDPattern.MatchString(id)
}

// ParseDescriptor builds a descriptor from module.properties entries.
// Keys are read with the "module." prefix and, failing that, without it.
func ParseDescriptor(ctx context.Context, props map[string]string) (types.ModuleDescriptor, error) {
	get := func(names ...string) string {
		for _, name := range names {
			if value, ok := props[descriptorPrefix+name]; ok {
				return strings.TrimSpace(value)
			}
			if value, ok := props[name]; ok {
				return strings.TrimSpace(value)
			}
		}
		return ""
	}

	id := get(propID)
	if id == "" {
		return types.ModuleDescriptor{}, malformedDescriptor("module id is missing", nil)
	}
	if !ValidModuleID(id) {
		return types.ModuleDescriptor{}, malformedDescriptor("module id contains invalid characters: "+id, nil)
	}
	rawVersion := get(propVersion)
	if rawVersion == "" {
		return types.ModuleDescriptor{}, malformedDescriptor("module version is missing for "+id, nil)
	}
	version, err := ParseModuleVersion(rawVersion)
	if err != nil {
		return types.ModuleDescriptor{}, malformedDescriptor("module version is invalid for "+id, err)
	}

	desc := types.ModuleDescriptor{
		ID:          id,
		Version:     version,
		Title:       get(propTitle),
		Description: get(propDescription),
		Aliases:     shared.SplitList(get(propAliases)),
		Editions:    shared.SplitList(get(propEditions)),
	}
	if desc.RepoVersionMin, err = optionalVersion(get(propRepoVersionMin)); err != nil {
		return types.ModuleDescriptor{}, malformedDescriptor("repo.version.min is invalid for "+id, err)
	}
	if desc.RepoVersionMax, err = optionalVersion(get(propRepoVersionMax)); err != nil {
		return types.ModuleDescriptor{}, malformedDescriptor("repo.version.max is invalid for "+id, err)
	}

	deps, err := parseDependencies(props)
	if err != nil {
		return types.ModuleDescriptor{}, malformedDescriptor("dependencies are invalid for "+id, err)
	}
	desc.Dependencies = deps

	desc.InstallState = parseInstallState(get(propInstallState, legacyInstallState))
	if raw := get(propInstallDate, legacyInstallDate); raw != "" {
		parsed, err := time.Parse(InstallDateLayout, raw)
		if err != nil {
			log.Ctx(ctx).Warn().Str("module", id).Str("value", raw).Msg("ignoring unparsable install date")
		} else {
			desc.InstallDate = parsed
		}
	}
	return desc, nil
}

// DescriptorProperties renders a descriptor as ordered module.properties
// entries. Empty optional fields are omitted.
func DescriptorProperties(desc types.ModuleDescriptor) []types.Property {
	props := []types.Property{
		{Key: descriptorPrefix + propID, Value: desc.ID},
		{Key: descriptorPrefix + propVersion, Value: desc.Version.String()},
	}
	add := func(name, value string) {
		if value != "" {
			props = append(props, types.Property{Key: descriptorPrefix + name, Value: value})
		}
	}
	add(propTitle, desc.Title)
	add(propDescription, desc.Description)
	add(propAliases, strings.Join(desc.Aliases, ","))
	add(propEditions, strings.Join(desc.Editions, ","))
	if desc.RepoVersionMin != nil {
		add(propRepoVersionMin, desc.RepoVersionMin.String())
	}
	if desc.RepoVersionMax != nil {
		add(propRepoVersionMax, desc.RepoVersionMax.String())
	}
	for _, dep := range desc.Dependencies {
		props = append(props, types.Property{
			Key:   descriptorPrefix + dependsPrefix + dep.ID,
			Value: FormatVersionRange(dep.Min, dep.Max),
		})
	}
	add(propInstallState, string(desc.InstallState))
	if !desc.InstallDate.IsZero() {
		add(propInstallDate, desc.InstallDate.Format(InstallDateLayout))
	}
	return props
}

func parseDependencies(props map[string]string) ([]types.ModuleDependency, error) {
	seen := map[string]bool{}
	var deps []types.ModuleDependency
	for key, value := range props {
		name := strings.TrimPrefix(key, descriptorPrefix)
		if !strings.HasPrefix(name, dependsPrefix) {
			continue
		}
		depID := strings.TrimSpace(strings.TrimPrefix(name, dependsPrefix))
		if depID == "" || seen[depID] {
			continue
		}
		min, max, err := ParseVersionRange(value)
		if err != nil {
			return nil, err
		}
		seen[depID] = true
		deps = append(deps, types.ModuleDependency{ID: depID, Min: min, Max: max})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].ID < deps[j].ID })
	return deps, nil
}

func parseInstallState(value string) types.InstallState {
	switch strings.ToUpper(value) {
	case string(types.InstallStateInstalled):
		return types.InstallStateInstalled
	case string(types.InstallStateUninstalled):
		return types.InstallStateUninstalled
	default:
		return types.InstallStateUnknown
	}
}

func optionalVersion(value string) (*types.ModuleVersion, error) {
	if value == "" || value == "*" {
		return nil, nil
	}
	v, err := ParseModuleVersion(value)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func malformedDescriptor(msg string, cause error) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("malformed descriptor: " + msg)
	if cause != nil {
		return builder.WithCause(cause)
	}
	return builder
}
