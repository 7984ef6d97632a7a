package adapters

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"module-tool/internal/ports"
	"module-tool/internal/shared"
	"module-tool/internal/types"
)

var DefaultArchiveExtensions = []string{shared.ContainerExtension, shared.PackageFileExtension}

// ArchiveFSAdapter is a path based filesystem over the host in which files
// with an archive extension that hold a zip are traversed as directories.
// A mounted archive is extracted into memory; Unmount writes it back.
// Archive paths that are directories are used as exploded trees.
//
// The adapter is not safe for concurrent use.
type ArchiveFSAdapter struct {
	host       billy.Filesystem
	extensions []string
	mounts     map[string]*archiveMount
	now        func() time.Time
}

type archiveMount struct {
	path     string
	parent   *archiveMount
	inner    string
	fs       billy.Filesystem
	times    map[string]time.Time
	mode     os.FileMode
	original []byte
	dirty    bool
	touched  *time.Time
}

type location struct {
	fs    billy.Filesystem
	inner string
	mount *archiveMount
	root  bool
}

func NewArchiveFSAdapter(extensions ...string) *ArchiveFSAdapter {
	if len(extensions) == 0 {
		extensions = DefaultArchiveExtensions
	}
	normalized := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		normalized = append(normalized, strings.ToLower(ext))
	}
	return &ArchiveFSAdapter{
		host:       osfs.New("/"),
		extensions: normalized,
		mounts:     map[string]*archiveMount{},
		now:        time.Now,
	}
}

func (a *ArchiveFSAdapter) Exists(p string) bool {
	loc, err := a.resolve(p, true)
	if err != nil {
		return false
	}
	return a.exists(loc)
}

func (a *ArchiveFSAdapter) IsDir(p string) bool {
	loc, err := a.resolve(p, true)
	if err != nil {
		return false
	}
	if loc.root {
		return true
	}
	info, err := loc.fs.Stat(loc.inner)
	return err == nil && info.IsDir()
}

func (a *ArchiveFSAdapter) List(p string) ([]types.Entry, error) {
	virtual := a.normalize(p)
	loc, err := a.resolve(virtual, true)
	if err != nil {
		return nil, err
	}
	infos, err := loc.fs.ReadDir(loc.inner)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(virtual)
		}
		return nil, ioError("failed to list", virtual, err)
	}
	entries := make([]types.Entry, 0, len(infos))
	for _, info := range infos {
		child := path.Join(loc.inner, info.Name())
		entries = append(entries, types.Entry{
			Name:    info.Name(),
			Path:    shared.Join(virtual, info.Name()),
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: a.modTime(loc.mount, child, info),
		})
	}
	return entries, nil
}

func (a *ArchiveFSAdapter) Mkdir(p string) error {
	virtual := a.normalize(p)
	loc, err := a.resolve(virtual, true)
	if err != nil {
		return err
	}
	if loc.root {
		return nil
	}
	if err := loc.fs.MkdirAll(loc.inner, 0o755); err != nil {
		return ioError("failed to create directory", virtual, err)
	}
	a.markChanged(loc, a.now())
	return nil
}

func (a *ArchiveFSAdapter) Copy(src string, dst string) error {
	srcVirtual := a.normalize(src)
	dstVirtual := a.normalize(dst)
	from, err := a.resolve(srcVirtual, true)
	if err != nil {
		return err
	}
	if !a.exists(from) {
		return notFound(srcVirtual)
	}
	if !from.root {
		info, err := from.fs.Stat(from.inner)
		if err != nil {
			return ioError("failed to stat", srcVirtual, err)
		}
		if !info.IsDir() {
			to, err := a.resolveForWrite(dstVirtual)
			if err != nil {
				return err
			}
			return a.copyFile(from, to, info, dstVirtual)
		}
	}
	// A tree lands inside an archive destination, never over it.
	to, err := a.resolve(dstVirtual, true)
	if err != nil {
		return err
	}
	return a.copyTree(from, to, dstVirtual)
}

// CopyArchive copies the archive at src to dst as a single file, including
// changes not yet flushed. A src that is a directory is copied as a tree.
func (a *ArchiveFSAdapter) CopyArchive(src string, dst string) error {
	srcVirtual := a.normalize(src)
	dstVirtual := a.normalize(dst)
	from, err := a.resolve(srcVirtual, true)
	if err != nil {
		return err
	}
	if !a.exists(from) {
		return notFound(srcVirtual)
	}
	if !from.root || from.mount.path != srcVirtual {
		return a.Copy(srcVirtual, dstVirtual)
	}
	data, err := a.archiveBytes(from.mount)
	if err != nil {
		return err
	}
	modTime := a.now()
	if info, err := a.statArchiveFile(from.mount); err == nil {
		modTime = info.ModTime()
	}
	to, err := a.resolveForWrite(dstVirtual)
	if err != nil {
		return err
	}
	return a.writeFile(to, dstVirtual, data, from.mount.mode.Perm(), modTime)
}

func (a *ArchiveFSAdapter) Delete(p string) error {
	virtual := a.normalize(p)
	loc, err := a.resolveForWrite(virtual)
	if err != nil {
		return err
	}
	if _, err := loc.fs.Stat(loc.inner); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return notFound(virtual)
		}
		return ioError("failed to stat", virtual, err)
	}
	a.dropMounts(virtual)
	if err := util.RemoveAll(loc.fs, loc.inner); err != nil {
		return ioError("failed to delete", virtual, err)
	}
	if loc.mount != nil {
		for key := range loc.mount.times {
			if key == loc.inner || strings.HasPrefix(key, loc.inner+"/") {
				delete(loc.mount.times, key)
			}
		}
		loc.mount.dirty = true
	}
	return nil
}

func (a *ArchiveFSAdapter) Open(p string) (io.ReadCloser, error) {
	virtual := a.normalize(p)
	loc, err := a.resolveForWrite(virtual)
	if err != nil {
		return nil, err
	}
	file, err := loc.fs.Open(loc.inner)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(virtual)
		}
		return nil, ioError("failed to open", virtual, err)
	}
	return file, nil
}

func (a *ArchiveFSAdapter) Create(p string) (io.WriteCloser, error) {
	virtual := a.normalize(p)
	loc, err := a.resolveForWrite(virtual)
	if err != nil {
		return nil, err
	}
	file, err := a.openForWrite(loc, virtual, 0o644)
	if err != nil {
		return nil, err
	}
	return &trackedFile{File: file, done: func() { a.markChanged(loc, a.now()) }}, nil
}

func (a *ArchiveFSAdapter) ReadFile(p string) ([]byte, error) {
	virtual := a.normalize(p)
	loc, err := a.resolveForWrite(virtual)
	if err != nil {
		return nil, err
	}
	data, err := util.ReadFile(loc.fs, loc.inner)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(virtual)
		}
		return nil, ioError("failed to read", virtual, err)
	}
	return data, nil
}

func (a *ArchiveFSAdapter) WriteFile(p string, data []byte) error {
	virtual := a.normalize(p)
	loc, err := a.resolveForWrite(virtual)
	if err != nil {
		return err
	}
	return a.writeFile(loc, virtual, data, 0o644, a.now())
}

func (a *ArchiveFSAdapter) Touch(p string, when time.Time) error {
	virtual := a.normalize(p)
	loc, err := a.resolve(virtual, true)
	if err != nil {
		return err
	}
	if !a.exists(loc) {
		return notFound(virtual)
	}
	if loc.root {
		m := loc.mount
		if m.parent == nil && !m.dirty {
			return chtimes(m.inner, when)
		}
		m.touched = &when
		m.dirty = true
		return nil
	}
	if loc.mount == nil {
		return chtimes(loc.inner, when)
	}
	loc.mount.times[loc.inner] = when
	loc.mount.dirty = true
	return nil
}

func (a *ArchiveFSAdapter) Mount(p string) error {
	virtual := a.normalize(p)
	loc, err := a.resolve(virtual, true)
	if err != nil {
		return err
	}
	if !a.exists(loc) {
		return notFound(virtual)
	}
	return nil
}

// Unmount flushes the archive at p and every archive mounted beneath it,
// deepest first, then flushes the archives enclosing p that those writes
// changed.
func (a *ArchiveFSAdapter) Unmount(p string) error {
	virtual := a.normalize(p)
	var targets []*archiveMount
	for key, m := range a.mounts {
		if key == virtual || strings.HasPrefix(key, virtual+"/") {
			targets = append(targets, m)
		}
	}
	sort.Slice(targets, func(i, j int) bool {
		return shared.Depth(targets[i].path) > shared.Depth(targets[j].path)
	})
	for _, m := range targets {
		if err := a.flush(m); err != nil {
			return err
		}
		delete(a.mounts, m.path)
	}
	for enclosing := a.enclosingMount(virtual); enclosing != nil; enclosing = enclosing.parent {
		if err := a.flush(enclosing); err != nil {
			return err
		}
	}
	return nil
}

func (a *ArchiveFSAdapter) normalize(p string) string {
	native := filepath.FromSlash(p)
	if !filepath.IsAbs(native) {
		if abs, err := filepath.Abs(native); err == nil {
			native = abs
		}
	}
	cleaned := path.Clean(filepath.ToSlash(native))
	if vol := filepath.VolumeName(cleaned); vol != "" {
		cleaned = strings.TrimPrefix(cleaned, vol)
	}
	return cleaned
}

// resolve maps a virtual path onto the filesystem that holds it, mounting
// archives along the way. The final segment is only mounted when
// mountLast is set.
func (a *ArchiveFSAdapter) resolve(p string, mountLast bool) (location, error) {
	virtual := a.normalize(p)
	loc := location{fs: a.host, inner: "/"}
	current := ""
	segments := strings.Split(strings.TrimPrefix(virtual, "/"), "/")
	for i, segment := range segments {
		if segment == "" {
			continue
		}
		current += "/" + segment
		inner := path.Join(loc.inner, segment)
		last := i == len(segments)-1
		if a.isArchiveName(segment) && (!last || mountLast) {
			m, err := a.mountAt(current, loc, inner)
			if err != nil {
				return location{}, err
			}
			if m != nil {
				loc = location{fs: m.fs, inner: "/", mount: m, root: true}
				continue
			}
		}
		loc = location{fs: loc.fs, inner: inner, mount: loc.mount}
	}
	return loc, nil
}

// resolveForWrite resolves a path whose final segment is addressed as a
// file even when it names an archive.
func (a *ArchiveFSAdapter) resolveForWrite(p string) (location, error) {
	return a.resolve(p, false)
}

func (a *ArchiveFSAdapter) mountAt(virtual string, parent location, inner string) (*archiveMount, error) {
	if m, ok := a.mounts[virtual]; ok {
		return m, nil
	}
	info, err := parent.fs.Stat(inner)
	if err != nil || info.IsDir() {
		return nil, nil
	}
	data, err := util.ReadFile(parent.fs, inner)
	if err != nil {
		return nil, ioError("failed to read archive", virtual, err)
	}
	if !isZipArchive(data) {
		return nil, nil
	}
	m := &archiveMount{
		path:     virtual,
		parent:   parent.mount,
		inner:    inner,
		fs:       memfs.New(),
		times:    map[string]time.Time{},
		mode:     info.Mode(),
		original: data,
	}
	if err := m.extract(data); err != nil {
		return nil, ioError("failed to mount archive", virtual, err)
	}
	a.mounts[virtual] = m
	return m, nil
}

func (m *archiveMount) extract(data []byte) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	if err := m.fs.MkdirAll("/", 0o755); err != nil {
		return err
	}
	for _, entry := range reader.File {
		name := path.Clean("/" + strings.TrimLeft(entry.Name, "/"))
		if name == "/" {
			continue
		}
		if entry.FileInfo().IsDir() {
			if err := m.fs.MkdirAll(name, dirPerm(entry.Mode())); err != nil {
				return err
			}
			m.times[name] = entry.Modified
			continue
		}
		if err := m.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
			return err
		}
		if err := m.extractFile(entry, name); err != nil {
			return err
		}
		m.times[name] = entry.Modified
	}
	return nil
}

func (m *archiveMount) extractFile(entry *zip.File, name string) error {
	src, err := entry.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := m.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePerm(entry.Mode()))
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

func (m *archiveMount) serialize(now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	err := util.Walk(m.fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if p == "/" {
			return nil
		}
		name := strings.TrimPrefix(filepath.ToSlash(p), "/")
		header := &zip.FileHeader{Name: name, Method: zip.Deflate}
		if info.IsDir() {
			header.Name += "/"
			header.Method = zip.Store
		}
		header.SetMode(info.Mode())
		header.Modified = now
		if modified, ok := m.times[filepath.ToSlash(p)]; ok {
			header.Modified = modified
		}
		w, err := writer.CreateHeader(header)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		src, err := m.fs.Open(p)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *ArchiveFSAdapter) flush(m *archiveMount) error {
	if !m.dirty {
		return nil
	}
	stamp := a.now()
	if m.touched != nil {
		stamp = *m.touched
	}
	data, err := m.serialize(a.now())
	if err != nil {
		return ioError("failed to write archive", m.path, err)
	}
	if m.parent == nil {
		if err := a.replaceHostFile(m.inner, data, m.mode.Perm()); err != nil {
			return ioError("failed to write archive", m.path, err)
		}
		if err := chtimes(m.inner, stamp); err != nil {
			return err
		}
	} else {
		parent := m.parent
		if err := writeBillyFile(parent.fs, m.inner, data, m.mode.Perm()); err != nil {
			return ioError("failed to write archive", m.path, err)
		}
		parent.times[m.inner] = stamp
		parent.dirty = true
	}
	m.original = data
	m.dirty = false
	m.touched = nil
	return nil
}

// replaceHostFile writes data beside target and renames it into place so
// a failed write leaves the original archive intact.
func (a *ArchiveFSAdapter) replaceHostFile(target string, data []byte, perm os.FileMode) error {
	tmp := fmt.Sprintf("%s.%d.tmp", target, a.now().UnixNano())
	if err := writeBillyFile(a.host, tmp, data, perm); err != nil {
		_ = a.host.Remove(tmp)
		return err
	}
	if err := a.host.Rename(tmp, target); err != nil {
		_ = a.host.Remove(tmp)
		return err
	}
	return os.Chmod(target, perm)
}

func (a *ArchiveFSAdapter) archiveBytes(m *archiveMount) ([]byte, error) {
	if !m.dirty {
		return m.original, nil
	}
	data, err := m.serialize(a.now())
	if err != nil {
		return nil, ioError("failed to write archive", m.path, err)
	}
	return data, nil
}

func (a *ArchiveFSAdapter) statArchiveFile(m *archiveMount) (os.FileInfo, error) {
	if m.parent == nil {
		return a.host.Stat(m.inner)
	}
	return m.parent.fs.Stat(m.inner)
}

func (a *ArchiveFSAdapter) copyFile(from location, to location, info os.FileInfo, dstVirtual string) error {
	src, err := from.fs.Open(from.inner)
	if err != nil {
		return ioError("failed to open", dstVirtual, err)
	}
	defer src.Close()
	dst, err := a.openForWrite(to, dstVirtual, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return ioError("failed to copy to", dstVirtual, err)
	}
	if err := dst.Close(); err != nil {
		return ioError("failed to copy to", dstVirtual, err)
	}
	return a.setAttributes(to, info.Mode().Perm(), a.modTime(from.mount, from.inner, info))
}

func (a *ArchiveFSAdapter) copyTree(from location, to location, dstVirtual string) error {
	type dirStamp struct {
		loc  location
		mode os.FileMode
		time time.Time
	}
	var dirs []dirStamp
	err := util.Walk(from.fs, from.inner, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), from.inner)
		target := location{fs: to.fs, inner: path.Join(to.inner, rel), mount: to.mount, root: to.root && rel == ""}
		if info.IsDir() {
			if !target.root {
				if err := to.fs.MkdirAll(target.inner, dirPerm(info.Mode())); err != nil {
					return err
				}
			}
			dirs = append(dirs, dirStamp{loc: target, mode: dirPerm(info.Mode()), time: a.modTime(from.mount, filepath.ToSlash(p), info)})
			return nil
		}
		source := location{fs: from.fs, inner: filepath.ToSlash(p), mount: from.mount}
		return a.copyFile(source, target, info, shared.Join(dstVirtual, rel))
	})
	if err != nil {
		return ioError("failed to copy tree to", dstVirtual, err)
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		if dirs[i].loc.root {
			continue
		}
		if err := a.setAttributes(dirs[i].loc, dirs[i].mode, dirs[i].time); err != nil {
			return err
		}
	}
	return nil
}

func (a *ArchiveFSAdapter) openForWrite(loc location, virtual string, perm os.FileMode) (billy.File, error) {
	if err := loc.fs.MkdirAll(path.Dir(loc.inner), 0o755); err != nil {
		return nil, ioError("failed to create parent of", virtual, err)
	}
	file, err := loc.fs.OpenFile(loc.inner, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, ioError("failed to create", virtual, err)
	}
	a.dropMounts(virtual)
	return file, nil
}

func (a *ArchiveFSAdapter) writeFile(loc location, virtual string, data []byte, perm os.FileMode, modTime time.Time) error {
	file, err := a.openForWrite(loc, virtual, perm)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return ioError("failed to write", virtual, err)
	}
	if err := file.Close(); err != nil {
		return ioError("failed to write", virtual, err)
	}
	return a.setAttributes(loc, perm, modTime)
}

func (a *ArchiveFSAdapter) setAttributes(loc location, perm os.FileMode, modTime time.Time) error {
	if loc.mount == nil {
		if err := os.Chmod(loc.inner, perm); err != nil {
			return ioError("failed to set mode of", loc.inner, err)
		}
		return chtimes(loc.inner, modTime)
	}
	a.markChanged(loc, modTime)
	return nil
}

func (a *ArchiveFSAdapter) markChanged(loc location, modTime time.Time) {
	if loc.mount == nil {
		return
	}
	loc.mount.times[loc.inner] = modTime
	loc.mount.dirty = true
}

func (a *ArchiveFSAdapter) modTime(m *archiveMount, inner string, info os.FileInfo) time.Time {
	if m != nil {
		if stamp, ok := m.times[inner]; ok {
			return stamp
		}
	}
	return info.ModTime()
}

func (a *ArchiveFSAdapter) exists(loc location) bool {
	if loc.root {
		return true
	}
	_, err := loc.fs.Stat(loc.inner)
	return err == nil
}

func (a *ArchiveFSAdapter) isArchiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range a.extensions {
		if strings.HasSuffix(lower, ext) && len(lower) > len(ext) {
			return true
		}
	}
	return false
}

// dropMounts forgets archives at or beneath virtual without flushing them;
// used when the archive file itself is replaced or deleted.
func (a *ArchiveFSAdapter) dropMounts(virtual string) {
	for key := range a.mounts {
		if key == virtual || strings.HasPrefix(key, virtual+"/") {
			delete(a.mounts, key)
		}
	}
}

func (a *ArchiveFSAdapter) enclosingMount(virtual string) *archiveMount {
	var best *archiveMount
	for key, m := range a.mounts {
		if !strings.HasPrefix(virtual, key+"/") {
			continue
		}
		if best == nil || len(key) > len(best.path) {
			best = m
		}
	}
	return best
}

type trackedFile struct {
	billy.File
	done func()
}

func (f *trackedFile) Close() error {
	err := f.File.Close()
	f.done()
	return err
}

func isZipArchive(data []byte) bool {
	for mtype := mimetype.Detect(data); mtype != nil; mtype = mtype.Parent() {
		if mtype.Is("application/zip") {
			return true
		}
	}
	return false
}

func writeBillyFile(fs billy.Filesystem, name string, data []byte, perm os.FileMode) error {
	if err := fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return err
	}
	return util.WriteFile(fs, name, data, perm)
}

func chtimes(hostPath string, when time.Time) error {
	if err := os.Chtimes(hostPath, when, when); err != nil {
		return ioError("failed to set modification time of", hostPath, err)
	}
	return nil
}

func filePerm(mode os.FileMode) os.FileMode {
	if mode.Perm() == 0 {
		return 0o644
	}
	return mode.Perm()
}

func dirPerm(mode os.FileMode) os.FileMode {
	return mode.Perm() | 0o700
}

func notFound(virtual string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(virtual + " does not exist")
}

func ioError(msg string, virtual string, err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg + " " + virtual).
		WithCause(err)
}

var _ ports.ArchiveFSPort = (*ArchiveFSAdapter)(nil)
