package steps

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pimp-project/pimp-install/pkg/config"
	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/executor"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
	"github.com/pimp-project/pimp-install/pkg/logging"
	"github.com/pimp-project/pimp-install/pkg/manifest"
	"github.com/pimp-project/pimp-install/pkg/paths"
	"github.com/pimp-project/pimp-install/pkg/sysdeps"
	"github.com/pimp-project/pimp-install/pkg/venv"
)

// Step names.
const (
	AddGroup            = "add-group"
	CopyApp             = "copy-app"
	SystemPackage       = "system-package"
	ValidateManifest    = "validate-manifest"
	CreateVenv          = "create-venv"
	ActivateVenv        = "activate-venv"
	UpgradePip          = "upgrade-pip"
	InstallRequirements = "install-requirements"
	DeactivateVenv      = "deactivate-venv"
	MarkLauncher        = "mark-launcher"
	RegisterAlias       = "register-alias"
	ReloadShell         = "reload-shell"
	Verify              = "verify"
)

// Step is one named unit of installation work.
type Step interface {
	Name() string
	// Class is the error code failures of this step are reported with.
	Class() errors.ErrorCode
	// Describe says what Run would do, for plans and dry runs.
	Describe(s *Session) string
	Run(ctx context.Context, s *Session) (Outcome, error)
}

// Finalizer is implemented by steps that must run even after the plan
// was aborted, when Required says so.
type Finalizer interface {
	Required(s *Session) bool
}

// Outcome is the result of a step that did not fail.
type Outcome struct {
	Skipped bool
	Message string
}

// Done is a completed outcome.
func Done(format string, args ...interface{}) Outcome {
	return Outcome{Message: fmt.Sprintf(format, args...)}
}

// Skip is an outcome for a step that had nothing to do.
func Skip(format string, args ...interface{}) Outcome {
	return Outcome{Skipped: true, Message: fmt.Sprintf(format, args...)}
}

// Session is shared by all steps of a run.
type Session struct {
	Config *config.Config
	Paths  paths.Paths
	Host   paths.Host
	FS     filesystem.FS
	Runner executor.Runner
	Groups sysdeps.GroupDB
	Logger zerolog.Logger

	// Environ is the environment external commands run with. Activation
	// replaces it and deactivation restores it.
	Environ []string

	// Manifest is set by validate-manifest.
	Manifest *manifest.Manifest

	activation *venv.Activation
}

// NewSession returns a session whose commands inherit environ.
func NewSession(cfg *config.Config, p paths.Paths, host paths.Host, fsys filesystem.FS,
	runner executor.Runner, groups sysdeps.GroupDB, environ []string) *Session {
	return &Session{
		Config:  cfg,
		Paths:   p,
		Host:    host,
		FS:      fsys,
		Runner:  runner,
		Groups:  groups,
		Logger:  logging.GetLogger("steps"),
		Environ: append([]string(nil), environ...),
	}
}

// Venv is the environment under the installed tree.
func (s *Session) Venv() venv.Env {
	return venv.New(s.Paths.VenvDir())
}

// Active reports whether the environment is activated.
func (s *Session) Active() bool {
	return s.activation != nil
}

// Elevation returns the sudo policy for privileged commands.
func (s *Session) Elevation() sysdeps.Elevation {
	return sysdeps.Elevation{Mode: s.Config.System.Sudo, Root: s.Host.IsRoot()}
}

// Command builds a command running with the session environment.
func (s *Session) Command(name string, args ...string) executor.Command {
	return executor.Command{
		Name: name,
		Args: args,
		Env:  append([]string(nil), s.Environ...),
	}
}

// Default returns the full plan in execution order.
func Default() []Step {
	return []Step{
		addGroup{},
		copyApp{},
		systemPackage{},
		validateManifest{},
		createVenv{},
		activateVenv{},
		upgradePip{},
		installRequirements{},
		deactivateVenv{},
		markLauncher{},
		registerAlias{},
		reloadShell{},
		verify{},
	}
}

// Names lists the step names in execution order.
func Names() []string {
	all := Default()
	names := make([]string, len(all))
	for i, st := range all {
		names[i] = st.Name()
	}
	return names
}

// Select returns the named steps in plan order.
func Select(names ...string) ([]Step, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if !Known(n) {
			return nil, errors.Newf(errors.ErrInvalidInput, "unknown step %q", n)
		}
		want[n] = true
	}

	var selected []Step
	for _, st := range Default() {
		if want[st.Name()] {
			selected = append(selected, st)
		}
	}
	return selected, nil
}

// Known reports whether name is a step name.
func Known(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}
