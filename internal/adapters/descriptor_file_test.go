package adapters

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"module-tool/internal/core"
	"module-tool/internal/types"
	"module-tool/tests/testutil"
)

func TestDescriptorFileReadPackage(t *testing.T) {
	amp := slashPath(testutil.WriteZip(t, filepath.Join(t.TempDir(), "p.amp"), map[string]string{
		"module.properties": testutil.Descriptor("org.sample", "1.2.0",
			"module.aliases=sample",
			"module.depends.org.base=1.0-",
		),
	}))
	adapter := NewDescriptorFileAdapter(NewArchiveFSAdapter())

	desc, err := adapter.Read(context.Background(), amp)
	require.NoError(t, err)
	assert.Equal(t, "org.sample", desc.ID)
	assert.Equal(t, "1.2.0", desc.Version.String())
	assert.Equal(t, "org.sample title", desc.Title)
	assert.Equal(t, []string{"sample"}, desc.Aliases)
	require.Len(t, desc.Dependencies, 1)
	assert.Equal(t, "org.base", desc.Dependencies[0].ID)
}

func TestDescriptorFileReadMissing(t *testing.T) {
	amp := slashPath(testutil.WriteZip(t, filepath.Join(t.TempDir(), "p.amp"), map[string]string{
		"config/x.txt": "x",
	}))
	_, err := NewDescriptorFileAdapter(NewArchiveFSAdapter()).Read(context.Background(), amp)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeNotFound, errbuilder.CodeOf(err))
}

func TestDescriptorFileWriteAndListInstalled(t *testing.T) {
	war := sampleWar(t, map[string]string{
		"WEB-INF/classes/alfresco/module/broken/module.properties": "module.version=1.0\n",
		"WEB-INF/classes/alfresco/module/notes.txt":                "not a module",
		"WEB-INF/classes/alfresco/module/empty/readme.txt":         "no descriptor",
	})
	fs := NewArchiveFSAdapter()
	adapter := NewDescriptorFileAdapter(fs)
	ctx := context.Background()
	installedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, id := range []string{"org.zeta", "org.alpha"} {
		require.NoError(t, adapter.Write(ctx, war, types.ModuleDescriptor{
			ID:           id,
			Version:      core.MustParseModuleVersion("1.0"),
			Title:        "Title with ünïcode",
			InstallState: types.InstallStateInstalled,
			InstallDate:  installedAt,
		}))
	}
	require.NoError(t, fs.Unmount(war))

	installed, err := NewDescriptorFileAdapter(NewArchiveFSAdapter()).ListInstalled(ctx, war)
	require.NoError(t, err)
	require.Len(t, installed, 2)
	assert.Equal(t, "org.alpha", installed[0].ID)
	assert.Equal(t, "org.zeta", installed[1].ID)
	assert.Equal(t, "Title with ünïcode", installed[0].Title)
	assert.Equal(t, types.InstallStateInstalled, installed[0].InstallState)
	assert.True(t, installed[0].InstallDate.Equal(installedAt))

	single, err := NewDescriptorFileAdapter(NewArchiveFSAdapter()).ReadInstalled(ctx, war, "org.zeta")
	require.NoError(t, err)
	assert.Equal(t, "org.zeta", single.ID)
}

func TestDescriptorFileListInstalledWithoutNamespace(t *testing.T) {
	war := sampleWar(t, nil)
	installed, err := NewDescriptorFileAdapter(NewArchiveFSAdapter()).ListInstalled(context.Background(), war)
	require.NoError(t, err)
	assert.Empty(t, installed)
}
