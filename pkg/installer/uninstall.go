package installer

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
	"github.com/pimp-project/pimp-install/pkg/logging"
	"github.com/pimp-project/pimp-install/pkg/receipt"
	"github.com/pimp-project/pimp-install/pkg/shell"
	"github.com/pimp-project/pimp-install/pkg/steps"
)

// UninstallOptions select what uninstall removes.
type UninstallOptions struct {
	// Purge also deletes the installed application tree and the receipt.
	Purge  bool
	DryRun bool
}

// UninstallReport lists what was (or in a dry run would be) removed.
type UninstallReport struct {
	Actions []string
}

// Uninstall removes the alias and, with Purge, the installed tree. Group
// membership and system packages are shared host state and stay.
// Locations come from the receipt when there is one, else from the
// session's paths.
func Uninstall(s *steps.Session, opts UninstallOptions) (UninstallReport, error) {
	logger := logging.GetLogger("uninstall")
	var report UninstallReport

	target := s.Paths.TargetDir()
	kind := s.Paths.ShellKind()
	aliasName, aliasFile, rcFile := s.Config.Shell.AliasName, s.Paths.AliasFile(), s.Paths.RCFile()

	if rec, err := receipt.Load(s.FS, s.Paths.ReceiptPath()); err == nil {
		target = rec.App.Target
		if rec.Shell.AliasFile != "" {
			kind = shell.Kind(rec.Shell.Kind)
			aliasName, aliasFile, rcFile = rec.Shell.AliasName, rec.Shell.AliasFile, rec.Shell.RCFile
		}
	} else if !errors.IsErrorCode(err, errors.ErrNotFound) {
		return report, err
	}

	content, mode, err := filesystem.ReadIfExists(s.FS, aliasFile, 0644)
	if err != nil {
		return report, errors.Wrapf(err, errors.ErrFilesystem, "failed to read %s", aliasFile)
	}
	if updated, changed := shell.RemoveAlias(content, aliasName); changed {
		report.Actions = append(report.Actions, "remove alias "+aliasName+" from "+aliasFile)
		if !opts.DryRun {
			if err := writeOrRemove(s.FS, aliasFile, updated, mode); err != nil {
				return report, err
			}
		}

		if strings.TrimSpace(updated) == "" && rcFile != "" {
			rc, rcMode, err := filesystem.ReadIfExists(s.FS, rcFile, 0644)
			if err != nil {
				return report, errors.Wrapf(err, errors.ErrFilesystem, "failed to read %s", rcFile)
			}
			if cleaned, changed := shell.RemoveSourced(rc, kind, aliasFile); changed {
				report.Actions = append(report.Actions, "remove the source line for "+aliasFile+" from "+rcFile)
				if !opts.DryRun {
					if err := s.FS.WriteFile(rcFile, []byte(cleaned), rcMode); err != nil {
						return report, errors.Wrapf(err, errors.ErrFilesystem, "failed to write %s", rcFile)
					}
				}
			}
		}
	}

	if opts.Purge {
		if err := checkPurgeTarget(s, target); err != nil {
			return report, err
		}
		if filesystem.Exists(s.FS, target) {
			report.Actions = append(report.Actions, "delete "+target)
			if !opts.DryRun {
				if err := s.FS.RemoveAll(target); err != nil {
					return report, errors.Wrapf(err, errors.ErrFilesystem, "failed to delete %s", target)
				}
			}
		}
		report.Actions = append(report.Actions, "delete receipt "+s.Paths.ReceiptPath())
		if !opts.DryRun {
			if err := receipt.Remove(s.FS, s.Paths.ReceiptPath()); err != nil {
				return report, err
			}
		}
	}

	logger.Info().Strs("actions", report.Actions).Bool("dryRun", opts.DryRun).Msg("Uninstall finished")
	return report, nil
}

// writeOrRemove deletes a file left with only whitespace.
func writeOrRemove(fsys filesystem.FS, path, content string, mode fs.FileMode) error {
	if strings.TrimSpace(content) == "" {
		if err := fsys.Remove(path); err != nil {
			return errors.Wrapf(err, errors.ErrFilesystem, "failed to remove %s", path)
		}
		return nil
	}
	if err := fsys.WriteFile(path, []byte(content), mode); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "failed to write %s", path)
	}
	return nil
}

// checkPurgeTarget refuses to delete anything that is not strictly below
// the home directory, whether the target comes from the config or a receipt.
func checkPurgeTarget(s *steps.Session, target string) error {
	clean := filepath.Clean(target)
	home := filepath.Clean(s.Paths.Home())
	switch {
	case clean == "/" || clean == home:
		return errors.Newf(errors.ErrInvalidInput, "refusing to delete %s", target)
	case !filesystem.SameOrInside(clean, home):
		return errors.Newf(errors.ErrInvalidInput, "refusing to delete %s outside %s", target, home)
	}
	return nil
}
