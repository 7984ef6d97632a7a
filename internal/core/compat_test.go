package core

import (
	"context"
	"errors"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"module-tool/internal/types"
)

func versionPtr(value string) *types.ModuleVersion {
	v := MustParseModuleVersion(value)
	return &v
}

func errMsg(t *testing.T, err error) string {
	t.Helper()
	var builder *errbuilder.ErrBuilder
	require.True(t, errors.As(err, &builder), "expected an errbuilder error, got %v", err)
	return builder.Msg
}

func module(id string, version string, aliases ...string) types.ModuleDescriptor {
	return types.ModuleDescriptor{ID: id, Version: MustParseModuleVersion(version), Aliases: aliases}
}

// ---------- Platform version ----------

func TestCheckVersionInRange(t *testing.T) {
	checker := NewCompatibilityChecker(types.PlatformFacts{Version: "4.2.0", VersionSource: "version.properties"}, nil)
	desc := module("m", "1.0")
	desc.RepoVersionMin = versionPtr("4.0")
	desc.RepoVersionMax = versionPtr("4.2")
	assert.NoError(t, checker.CheckVersion(context.Background(), desc))
}

func TestCheckVersionOutOfRange(t *testing.T) {
	checker := NewCompatibilityChecker(types.PlatformFacts{Version: "3.4.1"}, nil)
	desc := module("m", "1.0")
	desc.RepoVersionMin = versionPtr("4.0")

	err := checker.CheckVersion(context.Background(), desc)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Equal(t, "module m 1.0.0 requires a platform version between 4.0.0 and *, found 3.4.1", errMsg(t, err))
}

func TestCheckVersionSkipsWithoutBoundsOrFacts(t *testing.T) {
	desc := module("m", "1.0")
	assert.NoError(t, NewCompatibilityChecker(types.PlatformFacts{Version: "1.0"}, nil).CheckVersion(context.Background(), desc))

	desc.RepoVersionMin = versionPtr("4.0")
	assert.NoError(t, NewCompatibilityChecker(types.PlatformFacts{}, nil).CheckVersion(context.Background(), desc))
}

func TestCheckVersionUnparsablePlatform(t *testing.T) {
	desc := module("m", "1.0")
	desc.RepoVersionMin = versionPtr("4.0")

	community := types.PlatformFacts{Version: "x.y", Community: true}
	assert.NoError(t, NewCompatibilityChecker(community, nil).CheckVersion(context.Background(), desc))

	enterprise := types.PlatformFacts{Version: "four", VersionSource: "MANIFEST.MF"}
	err := NewCompatibilityChecker(enterprise, nil).CheckVersion(context.Background(), desc)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Contains(t, errMsg(t, err), "could not determine platform version from MANIFEST.MF")
}

// ---------- Edition ----------

func TestCheckEdition(t *testing.T) {
	desc := module("m", "1.0")
	desc.Editions = []string{"Enterprise"}

	tests := []struct {
		name  string
		facts types.PlatformFacts
		ok    bool
	}{
		{"exact", types.PlatformFacts{Edition: "Enterprise"}, true},
		{"case insensitive suffix", types.PlatformFacts{Edition: "Alfresco ENTERPRISE"}, true},
		{"other edition", types.PlatformFacts{Edition: "Community"}, false},
		{"unknown edition skips", types.PlatformFacts{}, true},
		{"front end skips", types.PlatformFacts{Edition: "Community", FrontEnd: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewCompatibilityChecker(tt.facts, nil).CheckEdition(context.Background(), desc)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
			assert.Contains(t, errMsg(t, err), "can only be installed in one of the following editions: Enterprise")
		})
	}
}

// ---------- Dependencies ----------

func TestCheckDependenciesByIDAndAlias(t *testing.T) {
	installed := []types.ModuleDescriptor{
		module("org.base", "1.5"),
		module("org.renamed", "2.0", "org.old"),
	}
	desc := module("m", "1.0")
	desc.Dependencies = []types.ModuleDependency{
		{ID: "org.base", Min: versionPtr("1.0"), Max: versionPtr("2.0")},
		{ID: "org.old", Min: versionPtr("2.0")},
	}
	assert.NoError(t, NewCompatibilityChecker(types.PlatformFacts{}, installed).CheckDependencies(context.Background(), desc))
}

func TestCheckDependenciesReportsEveryFailure(t *testing.T) {
	installed := []types.ModuleDescriptor{module("org.base", "0.9")}
	desc := module("m", "1.0")
	desc.Dependencies = []types.ModuleDependency{
		{ID: "org.base", Min: versionPtr("1.0")},
		{ID: "org.missing"},
	}
	err := NewCompatibilityChecker(types.PlatformFacts{}, installed).CheckDependencies(context.Background(), desc)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err))
	assert.Equal(t,
		"module m 1.0.0 has unmet dependencies: org.base (1.0.0-): installed version 0.9.0 is out of range; org.missing (*): not installed",
		errMsg(t, err))
}

func TestCheckRunsVersionBeforeDependencies(t *testing.T) {
	desc := module("m", "1.0")
	desc.Title = "My Module"
	desc.RepoVersionMax = versionPtr("3.0")
	desc.Dependencies = []types.ModuleDependency{{ID: "org.missing"}}

	err := NewCompatibilityChecker(types.PlatformFacts{Version: "4.0.0"}, nil).Check(context.Background(), desc)
	require.Error(t, err)
	assert.Contains(t, errMsg(t, err), `module "My Module" (m 1.0.0) requires a platform version`)
}

// ---------- FindInstalled ----------

func TestFindInstalled(t *testing.T) {
	installed := []types.ModuleDescriptor{
		module("org.a", "1.0"),
		module("org.b", "1.0"),
		module("org.c", "1.0"),
	}

	found, ok := FindInstalled(installed, module("org.b", "2.0", "org.a"))
	require.True(t, ok)
	assert.Equal(t, "org.b", found.ID, "id match wins over aliases")

	found, ok = FindInstalled(installed, module("org.new", "2.0", "org.c", "org.a"))
	require.True(t, ok)
	assert.Equal(t, "org.c", found.ID, "aliases are tried in declared order")

	_, ok = FindInstalled(installed, module("org.new", "2.0", "org.z"))
	assert.False(t, ok)
}
