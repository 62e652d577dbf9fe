// Package apptree checks that a directory holds a runnable copy of the
// application: the entry point, the defaults file and well-formed Qt
// Designer (.ui) forms, which the application loads at startup.
package apptree

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"github.com/spf13/afero"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
)

// UIExtension marks Qt Designer forms.
const UIExtension = ".ui"

// Layout names the files that must be present, relative to the tree root.
type Layout struct {
	Entrypoint   string
	DefaultsFile string
	// Exclude holds base name patterns that are not inspected.
	Exclude []string
}

// Report summarizes an inspected tree.
type Report struct {
	Root     string
	UIFiles  []string
	Problems []string
}

// OK reports whether the tree passed every check.
func (r Report) OK() bool {
	return len(r.Problems) == 0
}

// Inspect walks root and records every problem found.
func Inspect(fsys filesystem.FS, root string, layout Layout) (Report, error) {
	report := Report{Root: root}

	info, err := fsys.Stat(root)
	if err != nil {
		return report, errors.Wrapf(err, errors.ErrFilesystem, "application tree %s does not exist", root)
	}
	if !info.IsDir() {
		return report, errors.Newf(errors.ErrFilesystem, "application tree %s is not a directory", root)
	}

	for _, rel := range []string{layout.Entrypoint, layout.DefaultsFile} {
		if rel == "" {
			continue
		}
		if fi, err := fsys.Stat(filepath.Join(root, rel)); err != nil || fi.IsDir() {
			report.Problems = append(report.Problems, rel+": missing")
		}
	}

	err = afero.Walk(fsys.Afero(), root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path != root && filesystem.Excluded(fi.Name(), layout.Exclude) {
			if fi.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if fi.IsDir() || !strings.EqualFold(filepath.Ext(path), UIExtension) {
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		report.UIFiles = append(report.UIFiles, rel)
		if problem := checkForm(fsys, path); problem != "" {
			report.Problems = append(report.Problems, rel+": "+problem)
		}
		return nil
	})
	if err != nil {
		return report, errors.Wrapf(err, errors.ErrFilesystem, "failed to inspect %s", root)
	}

	sort.Strings(report.UIFiles)
	return report, nil
}

// Check inspects root and turns problems into a FILESYSTEM error.
func Check(fsys filesystem.FS, root string, layout Layout) (Report, error) {
	report, err := Inspect(fsys, root, layout)
	if err != nil {
		return report, err
	}
	if !report.OK() {
		return report, errors.Newf(errors.ErrFilesystem, "application tree %s is incomplete: %s",
			root, strings.Join(report.Problems, "; ")).
			WithDetail("problems", report.Problems)
	}
	return report, nil
}

func checkForm(fsys filesystem.FS, path string) string {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return "unreadable: " + err.Error()
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return "malformed XML: " + err.Error()
	}

	root := doc.Root()
	if root == nil {
		return "empty document"
	}
	if root.Tag != "ui" {
		return "root element is <" + root.Tag + ">, want <ui>"
	}
	if root.SelectElement("widget") == nil {
		return "form defines no widget"
	}
	return ""
}
