package testutil

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// FixtureTime is the modification time stamped on every entry written by
// WriteZip.
var FixtureTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// ZipBytes builds a zip archive in memory. Keys ending in "/" become
// directory entries; entries are written in sorted order.
func ZipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, name := range names {
		header := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: FixtureTime}
		if strings.HasSuffix(name, "/") {
			header.Method = zip.Store
			header.SetMode(os.ModeDir | 0o755)
		} else {
			header.SetMode(0o644)
		}
		w, err := writer.CreateHeader(header)
		require.NoError(t, err)
		if !strings.HasSuffix(name, "/") {
			_, err = w.Write([]byte(entries[name]))
			require.NoError(t, err)
		}
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

// WriteZip writes a zip archive holding entries to path and returns path.
func WriteZip(t *testing.T, path string, entries map[string]string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, ZipBytes(t, entries), 0o644))
	return path
}

// ReadZip returns the file entries of the archive at path keyed by name.
// Directory entries are omitted.
func ReadZip(t *testing.T, path string) map[string]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return ZipContents(t, data)
}

// ZipContents is ReadZip over archive bytes.
func ZipContents(t *testing.T, data []byte) map[string]string {
	t.Helper()
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, entry := range reader.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		src, err := entry.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(src)
		require.NoError(t, err)
		require.NoError(t, src.Close())
		out[strings.TrimPrefix(entry.Name, "/")] = string(content)
	}
	return out
}

// ZipNames lists every entry name of the archive at path, directories
// included, sorted.
func ZipNames(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(reader.File))
	for _, entry := range reader.File {
		names = append(names, entry.Name)
	}
	sort.Strings(names)
	return names
}

// Descriptor renders a module.properties document for id and version with
// any extra lines appended.
func Descriptor(id string, version string, extra ...string) string {
	lines := []string{
		"module.id=" + id,
		"module.version=" + version,
		"module.title=" + id + " title",
		"module.description=" + id + " description",
	}
	lines = append(lines, extra...)
	return strings.Join(lines, "\n") + "\n"
}

// Container writes a minimal WAR holding a version resource for the given
// platform version, written as major.minor.revision, and edition.
func Container(t *testing.T, path string, version string, edition string, extra map[string]string) string {
	t.Helper()
	parts := strings.Split(version, ".")
	require.Len(t, parts, 3, "platform version must be major.minor.revision")
	entries := map[string]string{
		"WEB-INF/classes/alfresco/version.properties": "version.major=" + parts[0] + "\n" +
			"version.minor=" + parts[1] + "\n" +
			"version.revision=" + parts[2] + "\n" +
			"version.edition=" + edition + "\n",
		"WEB-INF/web.xml": "<web-app/>\n",
	}
	for name, content := range extra {
		entries[name] = content
	}
	return WriteZip(t, path, entries)
}
