package filesystem

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/logging"
)

// CopyStats summarizes a tree copy.
type CopyStats struct {
	Files   int
	Dirs    int
	Links   int
	Bytes   int64
	Skipped []string
}

// Excluded reports whether a base name matches one of the glob patterns.
func Excluded(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// SameOrInside reports whether path equals dir or lies below it.
func SameOrInside(path, dir string) bool {
	path, dir = filepath.Clean(path), filepath.Clean(dir)
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// CopyTree copies src into dst, creating dst when needed. Entries whose
// base name matches an exclude pattern are skipped along with their
// contents. Existing files are overwritten; file and directory permission
// bits are preserved. A failure part way leaves the partial copy in place.
func CopyTree(fsys FS, src, dst string, excludes []string) (CopyStats, error) {
	logger := logging.GetLogger("filesystem")
	var stats CopyStats

	info, err := fsys.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, errors.Wrapf(err, errors.ErrFilesystem, "source tree %s does not exist", src)
		}
		return stats, errors.Wrapf(err, errors.ErrFilesystem, "cannot read source tree %s", src)
	}
	if !info.IsDir() {
		return stats, errors.Newf(errors.ErrFilesystem, "source %s is not a directory", src)
	}
	if SameOrInside(dst, src) {
		return stats, errors.Newf(errors.ErrInvalidInput, "destination %s is inside source %s", dst, src)
	}
	if err := fsys.Writable(dst); err != nil {
		return stats, errors.Wrapf(err, errors.ErrFilesystem, "destination %s is not writable", dst)
	}

	walkErr := afero.Walk(fsys.Afero(), src, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel != "." && Excluded(fi.Name(), excludes) {
			stats.Skipped = append(stats.Skipped, rel)
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		switch {
		case fi.IsDir():
			if err := fsys.MkdirAll(target, fi.Mode().Perm()|0700); err != nil {
				return err
			}
			if err := fsys.Chmod(target, fi.Mode().Perm()|0700); err != nil {
				return err
			}
			stats.Dirs++
		case fi.Mode()&os.ModeSymlink != 0:
			if err := copyLink(fsys, path, target); err != nil {
				return err
			}
			stats.Links++
		case fi.Mode().IsRegular():
			n, err := copyFile(fsys, path, target, fi.Mode().Perm())
			if err != nil {
				return err
			}
			stats.Files++
			stats.Bytes += n
		default:
			stats.Skipped = append(stats.Skipped, rel)
		}
		return nil
	})
	if walkErr != nil {
		return stats, errors.Wrapf(walkErr, errors.ErrFilesystem, "copy %s to %s", src, dst)
	}

	logger.Debug().
		Str("source", src).
		Str("destination", dst).
		Int("files", stats.Files).
		Int("dirs", stats.Dirs).
		Int("skipped", len(stats.Skipped)).
		Msg("Tree copied")
	return stats, nil
}

func copyFile(fsys FS, src, dst string, perm os.FileMode) (int64, error) {
	afs := fsys.Afero()

	in, err := afs.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = in.Close() }()

	out, err := afs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}
	return n, fsys.Chmod(dst, perm)
}

func copyLink(fsys FS, src, dst string) error {
	target, err := fsys.Readlink(src)
	if err != nil {
		return err
	}
	if _, err := fsys.Lstat(dst); err == nil {
		if err := fsys.Remove(dst); err != nil {
			return err
		}
	}
	return fsys.Symlink(target, dst)
}
