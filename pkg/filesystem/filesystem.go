package filesystem

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"

	"github.com/pimp-project/pimp-install/pkg/errors"
)

// FS is the filesystem surface used by the installer.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
	ReadDir(name string) ([]fs.FileInfo, error)
	Chmod(name string, mode fs.FileMode) error
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// Writable reports an error when files cannot be created under path.
	// The nearest existing ancestor is checked when path does not exist yet.
	Writable(path string) error

	// Afero exposes the backing filesystem.
	Afero() afero.Fs
}

type aferoFS struct {
	fs     afero.Fs
	native bool
}

// NewOS returns the real filesystem.
func NewOS() FS {
	return New(afero.NewOsFs())
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() FS {
	return New(afero.NewMemMapFs())
}

// New wraps an arbitrary afero filesystem.
func New(fsys afero.Fs) FS {
	_, native := fsys.(*afero.OsFs)
	return &aferoFS{fs: fsys, native: native}
}

func (a *aferoFS) Afero() afero.Fs { return a.fs }

func (a *aferoFS) Stat(name string) (fs.FileInfo, error) {
	return a.fs.Stat(name)
}

func (a *aferoFS) Lstat(name string) (fs.FileInfo, error) {
	if l, ok := a.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return a.fs.Stat(name)
}

func (a *aferoFS) ReadFile(name string) ([]byte, error) {
	info, err := a.fs.Stat(name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	return afero.ReadFile(a.fs, name)
}

func (a *aferoFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return afero.WriteFile(a.fs, name, data, perm)
}

func (a *aferoFS) MkdirAll(path string, perm fs.FileMode) error {
	return a.fs.MkdirAll(path, perm)
}

func (a *aferoFS) Remove(name string) error {
	return a.fs.Remove(name)
}

func (a *aferoFS) RemoveAll(path string) error {
	return a.fs.RemoveAll(path)
}

func (a *aferoFS) Rename(oldpath, newpath string) error {
	return a.fs.Rename(oldpath, newpath)
}

func (a *aferoFS) ReadDir(name string) ([]fs.FileInfo, error) {
	return afero.ReadDir(a.fs, name)
}

func (a *aferoFS) Chmod(name string, mode fs.FileMode) error {
	return a.fs.Chmod(name, mode)
}

func (a *aferoFS) Symlink(oldname, newname string) error {
	if l, ok := a.fs.(afero.Linker); ok {
		return l.SymlinkIfPossible(oldname, newname)
	}
	return &os.LinkError{Op: "symlink", Old: oldname, New: newname, Err: afero.ErrNoSymlink}
}

func (a *aferoFS) Readlink(name string) (string, error) {
	if r, ok := a.fs.(afero.LinkReader); ok {
		return r.ReadlinkIfPossible(name)
	}
	return "", &os.PathError{Op: "readlink", Path: name, Err: afero.ErrNoReadlink}
}

func (a *aferoFS) Writable(path string) error {
	dir, err := a.existingAncestor(path)
	if err != nil {
		return err
	}

	if a.native {
		if err := unix.Access(dir, unix.W_OK); err != nil {
			return &fs.PathError{Op: "access", Path: dir, Err: err}
		}
		return nil
	}

	probe, err := afero.TempFile(a.fs, dir, ".pimp-install-probe-*")
	if err != nil {
		return err
	}
	name := probe.Name()
	_ = probe.Close()
	return a.fs.Remove(name)
}

func (a *aferoFS) existingAncestor(path string) (string, error) {
	dir := filepath.Clean(path)
	for {
		info, err := a.fs.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", errors.Newf(errors.ErrFilesystem, "%s is not a directory", dir)
			}
			return dir, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", err
		}
		dir = parent
	}
}

// Exists reports whether path exists.
func Exists(fsys FS, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil
}

// ReadIfExists returns the file content and mode, or an empty string and
// the fallback mode when the file does not exist.
func ReadIfExists(fsys FS, path string, fallback fs.FileMode) (string, fs.FileMode, error) {
	info, err := fsys.Stat(path)
	if os.IsNotExist(err) {
		return "", fallback, nil
	}
	if err != nil {
		return "", 0, err
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	return string(data), info.Mode().Perm(), nil
}

// WriteWithParents creates the parent directory and writes data.
func WriteWithParents(fsys FS, path string, data []byte, perm fs.FileMode) error {
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return fsys.WriteFile(path, data, perm)
}

// MakeExecutable adds the execute bits matching the read bits already set.
// It returns true when the mode changed.
func MakeExecutable(fsys FS, path string) (bool, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, errors.Newf(errors.ErrFilesystem, "%s is a directory", path)
	}

	perm := info.Mode().Perm()
	want := perm | (perm&0444)>>2 | 0100
	if want == perm {
		return false, nil
	}
	return true, fsys.Chmod(path, want)
}
