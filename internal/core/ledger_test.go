package core

import (
	"testing"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"module-tool/internal/types"
)

func TestEncodeLedgerOrder(t *testing.T) {
	files := types.NewInstalledFiles("m").
		WithMkdir("/WEB-INF/classes/sample").
		WithUpdate("/WEB-INF/web.xml", "/WEB-INF/classes/alfresco/module/backup/1.bin").
		WithAdd("/WEB-INF/classes/sample/a.txt").
		WithAdd("/WEB-INF/classes/sample/b.txt")

	expected := "add|/WEB-INF/classes/sample/a.txt\n" +
		"add|/WEB-INF/classes/sample/b.txt\n" +
		"update|/WEB-INF/web.xml|/WEB-INF/classes/alfresco/module/backup/1.bin\n" +
		"mkdir|/WEB-INF/classes/sample\n"
	assert.Equal(t, expected, string(EncodeLedger(files)))
}

func TestDecodeLedgerRoundTrip(t *testing.T) {
	files := types.NewInstalledFiles("m").
		WithAdd("/a").
		WithAdd("/b/c").
		WithUpdate("/d", "/backup/x.bin").
		WithMkdir("/b")

	decoded, err := DecodeLedger("m", EncodeLedger(files))
	require.NoError(t, err)
	if diff := cmp.Diff(files, decoded); diff != "" {
		t.Fatalf("ledger mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeLedgerToleratesBlankLinesAndCRLF(t *testing.T) {
	decoded, err := DecodeLedger("m", []byte("add|/a\r\n\r\n\nmkdir|/dir\r\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/a"}, decoded.Adds)
	assert.Equal(t, []string{"/dir"}, decoded.Mkdirs)
}

func TestDecodeLedgerEmpty(t *testing.T) {
	decoded, err := DecodeLedger("m", nil)
	require.NoError(t, err)
	assert.Empty(t, decoded.Adds)
	assert.Empty(t, decoded.Updates)
	assert.Empty(t, decoded.Mkdirs)
	assert.Equal(t, "m", decoded.ModuleID)
}

func TestDecodeLedgerCorrupt(t *testing.T) {
	for _, input := range []string{
		"add\n",
		"add|\n",
		"remove|/a\n",
		"update|/only-path\n",
		"add|/ok\nbogus line\n",
	} {
		_, err := DecodeLedger("m", []byte(input))
		require.Error(t, err, input)
		assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
		assert.Contains(t, errMsg(t, err), "corrupt ledger for m at line")
	}
}

func TestDecodeLedgerReportsLineNumber(t *testing.T) {
	_, err := DecodeLedger("m", []byte("add|/ok\n\nnope\n"))
	require.Error(t, err)
	assert.Contains(t, errMsg(t, err), "at line 3")
}
