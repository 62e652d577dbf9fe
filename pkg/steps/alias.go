package steps

import (
	"context"
	"fmt"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
	"github.com/pimp-project/pimp-install/pkg/shell"
)

type registerAlias struct{}

func (registerAlias) Name() string            { return RegisterAlias }
func (registerAlias) Class() errors.ErrorCode { return errors.ErrFilesystem }

func (registerAlias) Describe(s *Session) string {
	line := shell.AliasLine(s.Paths.ShellKind(), s.Config.Shell.AliasName, s.Paths.LauncherPath())
	return fmt.Sprintf("upsert %q into %s", line, s.Paths.AliasFile())
}

func (registerAlias) Run(ctx context.Context, s *Session) (Outcome, error) {
	kind := s.Paths.ShellKind()
	name := s.Config.Shell.AliasName
	aliasFile := s.Paths.AliasFile()

	content, mode, err := filesystem.ReadIfExists(s.FS, aliasFile, 0644)
	if err != nil {
		return Outcome{}, errors.Wrapf(err, errors.ErrFilesystem, "failed to read %s", aliasFile)
	}

	updated, changed := shell.UpsertAlias(content, kind, name, s.Paths.LauncherPath())
	if changed {
		if err := filesystem.WriteWithParents(s.FS, aliasFile, []byte(updated), mode); err != nil {
			return Outcome{}, errors.Wrapf(err, errors.ErrFilesystem, "failed to write %s", aliasFile)
		}
	}

	sourced, err := ensureSourced(s)
	if err != nil {
		return Outcome{}, err
	}

	s.Logger.Info().
		Str("alias", name).
		Str("file", aliasFile).
		Bool("changed", changed).
		Bool("rcUpdated", sourced).
		Msg("Alias registered")

	msg := fmt.Sprintf("alias %s in %s", name, aliasFile)
	if !changed {
		msg += " (unchanged)"
	}
	if sourced {
		msg += fmt.Sprintf("; %s now loads it", s.Paths.RCFile())
	}
	return Done("%s", msg), nil
}

// ensureSourced adds a guarded source line for the alias file to the rc
// file unless the shell already loads it.
func ensureSourced(s *Session) (bool, error) {
	kind, aliasFile, rcFile := s.Paths.ShellKind(), s.Paths.AliasFile(), s.Paths.RCFile()
	if !s.Config.Shell.EnsureSourced || kind.AutoLoads(aliasFile) || aliasFile == rcFile {
		return false, nil
	}

	content, mode, err := filesystem.ReadIfExists(s.FS, rcFile, 0644)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFilesystem, "failed to read %s", rcFile)
	}
	updated, changed := shell.EnsureSourced(content, kind, aliasFile, s.Paths.Home())
	if !changed {
		return false, nil
	}
	if err := filesystem.WriteWithParents(s.FS, rcFile, []byte(updated), mode); err != nil {
		return false, errors.Wrapf(err, errors.ErrFilesystem, "failed to write %s", rcFile)
	}
	return true, nil
}

type reloadShell struct{}

func (reloadShell) Name() string            { return ReloadShell }
func (reloadShell) Class() errors.ErrorCode { return errors.ErrFilesystem }

func (reloadShell) Describe(s *Session) string {
	if !s.Config.Shell.Reload {
		return "shell reload disabled"
	}
	return fmt.Sprintf("load %s in a new %s and check alias %s", s.Paths.RCFile(),
		s.Paths.ShellKind(), s.Config.Shell.AliasName)
}

func (reloadShell) Run(ctx context.Context, s *Session) (Outcome, error) {
	if !s.Config.Shell.Reload {
		return Skip("shell reload disabled"), nil
	}

	kind := s.Paths.ShellKind()
	name, args := shell.ReloadCommand(kind, s.Paths.RCFile(), s.Paths.AliasFile(), s.Config.Shell.AliasName)
	if _, err := s.Runner.Run(ctx, s.Command(name, args...)); err != nil {
		switch errors.GetErrorCode(err) {
		case errors.ErrCancelled:
			return Outcome{}, err
		case errors.ErrCommandNotFound:
			return Outcome{}, errors.Wrapf(err, errors.ErrDependency, "%s is not installed", kind.Binary())
		}
		return Outcome{}, errors.Wrapf(err, errors.ErrFilesystem,
			"alias %s is not defined after loading %s", s.Config.Shell.AliasName, s.Paths.AliasFile())
	}

	return Done("alias %s loads in %s; run `source %s` or open a new terminal",
		s.Config.Shell.AliasName, kind, s.Paths.RCFile()), nil
}
