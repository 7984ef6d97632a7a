package ports

import (
	"io"
	"time"

	"module-tool/internal/types"
)

// ArchiveFSPort gives path based access to a filesystem in which WAR and
// AMP archives are traversable as directories. Paths are absolute and
// slash separated; a path such as /srv/a.war/b.amp/module.properties
// crosses two archive boundaries.
type ArchiveFSPort interface {
	Exists(path string) bool
	IsDir(path string) bool
	List(path string) ([]types.Entry, error)
	Mkdir(path string) error
	// Copy copies a file or directory tree, preserving modes and
	// modification times, creating parents and overwriting dst.
	Copy(src string, dst string) error
	// CopyArchive copies the archive at src to dst as one file.
	CopyArchive(src string, dst string) error
	// Delete removes a file or a directory tree.
	Delete(path string) error
	Open(path string) (io.ReadCloser, error)
	Create(path string) (io.WriteCloser, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Touch(path string, when time.Time) error
	// Mount opens the archive containing path so later calls see it as a
	// directory tree. Calls on unmounted archives mount them implicitly.
	Mount(path string) error
	// Unmount flushes pending changes of the archive at path, and of every
	// archive nested in it, back to the underlying file.
	Unmount(path string) error
}
