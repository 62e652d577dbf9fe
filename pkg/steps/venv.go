package steps

import (
	"context"
	"strings"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/executor"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
	"github.com/pimp-project/pimp-install/pkg/venv"
)

type createVenv struct{}

func (createVenv) Name() string            { return CreateVenv }
func (createVenv) Class() errors.ErrorCode { return errors.ErrDependency }

func (createVenv) Describe(s *Session) string {
	return s.Config.Venv.Python + " -m venv " + s.Paths.VenvDir()
}

func (createVenv) Run(ctx context.Context, s *Session) (Outcome, error) {
	env := s.Venv()
	existed := filesystem.Exists(s.FS, env.ConfigFile())

	if err := s.FS.Writable(env.Root); err != nil {
		return Outcome{}, errors.Wrapf(err, errors.ErrFilesystem, "cannot create %s", env.Root)
	}

	cmd := s.Command(s.Config.Venv.Python, "-m", "venv", env.Root)
	if _, err := s.Runner.Run(ctx, cmd); err != nil {
		return Outcome{}, commandError(err, "failed to create the isolated environment")
	}

	if existed {
		return Done("reused existing environment at %s", env.Root), nil
	}
	return Done("created environment at %s", env.Root), nil
}

type activateVenv struct{}

func (activateVenv) Name() string            { return ActivateVenv }
func (activateVenv) Class() errors.ErrorCode { return errors.ErrDependency }

func (activateVenv) Describe(s *Session) string {
	return "use " + s.Venv().BinDir() + " for the following steps"
}

func (activateVenv) Run(ctx context.Context, s *Session) (Outcome, error) {
	env := s.Venv()
	if !filesystem.Exists(s.FS, env.ConfigFile()) {
		return Outcome{}, errors.Newf(errors.ErrFilesystem, "no environment at %s", env.Root)
	}

	previous, replaced := venv.Active(s.Environ)
	a := env.Activate(s.Environ)
	s.activation = &a
	s.Environ = a.Environ
	if replaced && previous != env.Root {
		return Done("activated %s in place of %s", env.Root, previous), nil
	}
	return Done("activated %s", env.Root), nil
}

type upgradePip struct{}

func (upgradePip) Name() string            { return UpgradePip }
func (upgradePip) Class() errors.ErrorCode { return errors.ErrDependency }

func (upgradePip) Describe(s *Session) string {
	return s.Venv().Python() + " -m pip install --upgrade pip"
}

func (upgradePip) Run(ctx context.Context, s *Session) (Outcome, error) {
	if err := requireActive(s); err != nil {
		return Outcome{}, err
	}

	cmd := s.Command(s.Venv().Python(), "-m", "pip", "install", "--upgrade", "pip")
	if _, err := s.Runner.Run(ctx, cmd); err != nil {
		return Outcome{}, commandError(err, "failed to upgrade pip")
	}
	return Done("pip upgraded"), nil
}

type installRequirements struct{}

func (installRequirements) Name() string            { return InstallRequirements }
func (installRequirements) Class() errors.ErrorCode { return errors.ErrDependency }

func (installRequirements) Describe(s *Session) string {
	return s.Venv().Python() + " -m pip install <manifest requirements>"
}

func (installRequirements) Run(ctx context.Context, s *Session) (Outcome, error) {
	if s.Manifest == nil {
		return Outcome{}, errors.New(errors.ErrDependency, "no valid manifest to install from")
	}
	if err := requireActive(s); err != nil {
		return Outcome{}, err
	}

	args := append([]string{"-m", "pip", "install"}, s.Manifest.Args()...)
	if _, err := s.Runner.Run(ctx, s.Command(s.Venv().Python(), args...)); err != nil {
		return Outcome{}, commandError(err, "failed to install requirements")
	}

	s.Logger.Info().Strs("requirements", s.Manifest.Names()).Msg("Requirements installed")
	return Done("installed %s", strings.Join(s.Manifest.Names(), ", ")), nil
}

type deactivateVenv struct{}

func (deactivateVenv) Name() string            { return DeactivateVenv }
func (deactivateVenv) Class() errors.ErrorCode { return errors.ErrDependency }

func (deactivateVenv) Describe(s *Session) string {
	return "restore the environment from before activation"
}

// Required keeps deactivation in aborted runs once activation happened.
func (deactivateVenv) Required(s *Session) bool {
	return s.Active()
}

func (deactivateVenv) Run(ctx context.Context, s *Session) (Outcome, error) {
	if s.activation == nil {
		return Skip("environment was not activated"), nil
	}
	s.Environ = s.activation.Deactivate()
	s.activation = nil
	return Done("deactivated"), nil
}

func requireActive(s *Session) error {
	if !s.Active() {
		return errors.Newf(errors.ErrDependency, "the isolated environment at %s is not active", s.Paths.VenvDir())
	}
	return nil
}

// commandError turns a runner failure into a DEPENDENCY error, keeping
// the tail of the command's stderr in the message.
func commandError(err error, message string) error {
	switch errors.GetErrorCode(err) {
	case errors.ErrCancelled:
		return err
	case errors.ErrCommandNotFound:
		return errors.Wrap(err, errors.ErrDependency, message+": required program not found")
	}
	if stderr := lastLine(executor.Stderr(err)); stderr != "" {
		message += ": " + stderr
	}
	return errors.Wrap(err, errors.ErrDependency, message)
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
