package installer

import (
	"fmt"

	"github.com/pimp-project/pimp-install/pkg/apptree"
	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
	"github.com/pimp-project/pimp-install/pkg/internal/hashutil"
	"github.com/pimp-project/pimp-install/pkg/receipt"
	"github.com/pimp-project/pimp-install/pkg/shell"
	"github.com/pimp-project/pimp-install/pkg/steps"
)

// Check is one observation about the installed state.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// HostStatus is what status reports: the last receipt, if any, and the
// live state of every artifact the installer produces.
type HostStatus struct {
	Receipt *receipt.Receipt
	Checks  []Check
}

// Healthy reports whether every check passed.
func (h HostStatus) Healthy() bool {
	for _, c := range h.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Inspect examines the host without changing it.
func Inspect(s *steps.Session) (HostStatus, error) {
	var status HostStatus

	rec, err := receipt.Load(s.FS, s.Paths.ReceiptPath())
	switch {
	case err == nil:
		status.Receipt = rec
	case !errors.IsErrorCode(err, errors.ErrNotFound):
		return status, err
	}

	add := func(name string, ok bool, format string, args ...interface{}) {
		status.Checks = append(status.Checks, Check{Name: name, OK: ok, Detail: fmt.Sprintf(format, args...)})
	}

	target := s.Paths.TargetDir()
	report, err := apptree.Inspect(s.FS, target, apptree.Layout{
		Entrypoint:   s.Config.App.Entrypoint,
		DefaultsFile: s.Config.App.DefaultsFile,
		Exclude:      s.Config.Copy.Exclude,
	})
	switch {
	case err != nil:
		add("application", false, "%s is missing", target)
	case !report.OK():
		add("application", false, "%s: %v", target, report.Problems)
	default:
		add("application", true, "%s (%d forms)", target, len(report.UIFiles))
	}

	env := s.Venv()
	if filesystem.Exists(s.FS, env.ConfigFile()) {
		add("environment", true, "%s", env.Root)
	} else {
		add("environment", false, "no environment at %s", env.Root)
	}

	launcher := s.Paths.LauncherPath()
	if info, err := s.FS.Stat(launcher); err != nil {
		add("launcher", false, "%s is missing", launcher)
	} else if info.Mode().Perm()&0100 == 0 {
		add("launcher", false, "%s is not executable", launcher)
	} else {
		add("launcher", true, "%s", launcher)
	}

	name, aliasFile := s.Config.Shell.AliasName, s.Paths.AliasFile()
	content, _, err := filesystem.ReadIfExists(s.FS, aliasFile, 0644)
	if err != nil {
		return status, errors.Wrapf(err, errors.ErrFilesystem, "failed to read %s", aliasFile)
	}
	switch n := len(shell.FindAliases(content, name)); n {
	case 0:
		add("alias", false, "%s is not defined in %s", name, aliasFile)
	case 1:
		add("alias", true, "%s in %s", name, aliasFile)
	default:
		add("alias", false, "%s is defined %d times in %s", name, n, aliasFile)
	}

	if rec := status.Receipt; rec != nil && rec.App.ManifestChecksum != "" {
		sum, err := hashutil.FileChecksum(s.FS, rec.App.Manifest)
		switch {
		case err != nil:
			add("requirements", false, "%s is missing", rec.App.Manifest)
		case sum != rec.App.ManifestChecksum:
			add("requirements", false, "%s changed since the last install", rec.App.Manifest)
		default:
			add("requirements", true, "%d packages from %s", len(rec.Requirements), rec.App.Manifest)
		}
	}

	if s.Config.Group.Enabled {
		group := s.Config.Group.Name
		member, err := s.Groups.IsMember(s.Host.User, group)
		switch {
		case err != nil:
			add("group", false, "cannot check %s: %v", group, err)
		case member:
			add("group", true, "%s is in %s", s.Host.User, group)
		default:
			add("group", false, "%s is not in %s", s.Host.User, group)
		}
	}

	return status, nil
}
