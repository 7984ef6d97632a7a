package adapters

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"module-tool/internal/types"
	"module-tool/tests/testutil"
)

func TestFileMappingDefaults(t *testing.T) {
	rules, err := NewFileMappingAdapter(NewArchiveFSAdapter(), "").Defaults()
	require.NoError(t, err)
	require.Len(t, rules, 8)
	assert.Equal(t, types.FileMappingRule{Source: "/config", Dest: "/WEB-INF/classes"}, rules[0])
	assert.Equal(t, types.FileMappingRule{Source: "/web/php", Dest: "/php"}, rules[7])
}

func TestFileMappingRulesWithoutOverride(t *testing.T) {
	amp := slashPath(testutil.WriteZip(t, filepath.Join(t.TempDir(), "p.amp"), map[string]string{
		"module.properties": testutil.Descriptor("m", "1.0"),
	}))
	rules, err := NewFileMappingAdapter(NewArchiveFSAdapter(), "").Rules(context.Background(), amp)
	require.NoError(t, err)
	require.Len(t, rules, 8)
	assert.Equal(t, "/config", rules[0].Source, "rules are sorted by source")
}

func TestFileMappingRulesMergesOverride(t *testing.T) {
	amp := slashPath(testutil.WriteZip(t, filepath.Join(t.TempDir(), "p.amp"), map[string]string{
		"module.properties": testutil.Descriptor("m", "1.0"),
		"file-mapping.properties": "# custom\n" +
			"include.default=true\n" +
			"/lib=/WEB-INF/custom\n" +
			"/extra/=/WEB-INF/extra/\n",
	}))
	rules, err := NewFileMappingAdapter(NewArchiveFSAdapter(), "").Rules(context.Background(), amp)
	require.NoError(t, err)

	byPrefix := map[string]string{}
	for _, rule := range rules {
		byPrefix[rule.Source] = rule.Dest
	}
	assert.Len(t, rules, 9)
	assert.Equal(t, "/WEB-INF/custom", byPrefix["/lib"])
	assert.Equal(t, "/WEB-INF/extra", byPrefix["/extra"])
	assert.Equal(t, "/WEB-INF/classes", byPrefix["/config"])
	assert.NotContains(t, byPrefix, "include.default")
}

func TestFileMappingRulesWithoutDefaults(t *testing.T) {
	amp := slashPath(testutil.WriteZip(t, filepath.Join(t.TempDir(), "p.amp"), map[string]string{
		"file-mapping.properties": "include.default=false\n/=/\n",
	}))
	rules, err := NewFileMappingAdapter(NewArchiveFSAdapter(), "").Rules(context.Background(), amp)
	require.NoError(t, err)
	if diff := cmp.Diff([]types.FileMappingRule{{Source: "", Dest: ""}}, rules); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
}

func TestFileMappingRulesRejectsRelativePrefix(t *testing.T) {
	amp := slashPath(testutil.WriteZip(t, filepath.Join(t.TempDir(), "p.amp"), map[string]string{
		"file-mapping.properties": "lib=/WEB-INF/lib\n",
	}))
	_, err := NewFileMappingAdapter(NewArchiveFSAdapter(), "").Rules(context.Background(), amp)
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestFileMappingReplacementDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.properties")
	require.NoError(t, os.WriteFile(path, []byte("/only=/here\n"), 0o644))

	rules, err := NewFileMappingAdapter(NewArchiveFSAdapter(), slashPath(path)).Defaults()
	require.NoError(t, err)
	assert.Equal(t, []types.FileMappingRule{{Source: "/only", Dest: "/here"}}, rules)
}
