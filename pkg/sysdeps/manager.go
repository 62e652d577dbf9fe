package sysdeps

import (
	"context"
	"strings"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/executor"
	"github.com/pimp-project/pimp-install/pkg/logging"
)

// Manager is a system package manager.
type Manager struct {
	Name string
	// Binary is looked up on PATH to detect the manager.
	Binary string
	// Packages maps generic package names to this manager's names.
	Packages map[string]string

	query   func(pkg string) executor.Command
	install func(pkg string) executor.Command
}

var managers = []Manager{
	{
		Name:   "apt",
		Binary: "apt-get",
		query: func(pkg string) executor.Command {
			return executor.Command{Name: "dpkg-query", Args: []string{"-W", "-f=${Status}", pkg}}
		},
		install: func(pkg string) executor.Command {
			return executor.Command{Name: "apt-get", Args: []string{"install", "-y", "-q", pkg}}
		},
	},
	{
		Name:     "dnf",
		Binary:   "dnf",
		Packages: map[string]string{"python3-venv": "python3"},
		query: func(pkg string) executor.Command {
			return executor.Command{Name: "rpm", Args: []string{"-q", pkg}}
		},
		install: func(pkg string) executor.Command {
			return executor.Command{Name: "dnf", Args: []string{"install", "-y", pkg}}
		},
	},
	{
		Name:     "pacman",
		Binary:   "pacman",
		Packages: map[string]string{"python3-venv": "python"},
		query: func(pkg string) executor.Command {
			return executor.Command{Name: "pacman", Args: []string{"-Q", pkg}}
		},
		install: func(pkg string) executor.Command {
			return executor.Command{Name: "pacman", Args: []string{"-S", "--noconfirm", "--needed", pkg}}
		},
	},
}

// Names lists the supported managers.
func Names() []string {
	names := make([]string, len(managers))
	for i, m := range managers {
		names[i] = m.Name
	}
	return names
}

// Lookup returns the manager called name.
func Lookup(name string) (Manager, bool) {
	for _, m := range managers {
		if m.Name == name {
			return m, true
		}
	}
	return Manager{}, false
}

// Detect returns the configured manager, or for "auto" the first one whose
// binary is on PATH. A missing manager is a DEPENDENCY error.
func Detect(runner executor.Runner, preferred string) (Manager, error) {
	if preferred != "" && preferred != "auto" {
		m, ok := Lookup(preferred)
		if !ok {
			return Manager{}, errors.Newf(errors.ErrConfigValid, "unknown package manager %q (supported: %s)",
				preferred, strings.Join(Names(), ", "))
		}
		if _, err := runner.LookPath(m.Binary); err != nil {
			return Manager{}, errors.Wrapf(err, errors.ErrDependency, "package manager %s is not available", m.Name)
		}
		return m, nil
	}

	for _, m := range managers {
		if _, err := runner.LookPath(m.Binary); err == nil {
			return m, nil
		}
	}
	return Manager{}, errors.Newf(errors.ErrDependency, "no supported package manager found (looked for %s)",
		strings.Join(Names(), ", "))
}

// PackageName maps a generic package name to this manager's name.
func (m Manager) PackageName(pkg string) string {
	if mapped, ok := m.Packages[pkg]; ok {
		return mapped
	}
	return pkg
}

// QueryCommand returns the command checking whether pkg is installed.
func (m Manager) QueryCommand(pkg string) executor.Command {
	return m.query(m.PackageName(pkg))
}

// InstallCommand returns the unelevated install command for pkg.
func (m Manager) InstallCommand(pkg string) executor.Command {
	return m.install(m.PackageName(pkg))
}

// Installed asks the manager whether pkg is installed. A non-zero exit of
// the query means not installed.
func (m Manager) Installed(ctx context.Context, runner executor.Runner, pkg string) (bool, error) {
	res, err := runner.Run(ctx, m.QueryCommand(pkg))
	if err != nil {
		switch {
		case errors.IsErrorCode(err, errors.ErrCommandFailed):
			return false, nil
		case errors.IsErrorCode(err, errors.ErrCommandNotFound):
			return false, errors.Wrapf(err, errors.ErrDependency, "package manager %s is not available", m.Name)
		}
		return false, err
	}
	if m.Name == "apt" {
		return strings.Contains(res.Stdout, "install ok installed"), nil
	}
	return true, nil
}

// Ensure installs pkg unless it is already present. It reports whether an
// install ran.
func (m Manager) Ensure(ctx context.Context, runner executor.Runner, elevation Elevation, pkg string) (bool, error) {
	logger := logging.GetLogger("sysdeps")

	installed, err := m.Installed(ctx, runner, pkg)
	if err != nil {
		return false, err
	}
	if installed {
		logger.Debug().Str("manager", m.Name).Str("package", m.PackageName(pkg)).Msg("System package already installed")
		return false, nil
	}

	if err := elevation.Check(runner); err != nil {
		return false, err
	}

	cmd := elevation.Wrap(m.InstallCommand(pkg))
	logger.Info().Str("manager", m.Name).Str("package", m.PackageName(pkg)).Msg("Installing system package")
	if _, err := runner.Run(ctx, cmd); err != nil {
		if errors.IsErrorCode(err, errors.ErrCommandNotFound) {
			return false, errors.Wrapf(err, errors.ErrDependency, "package manager %s is not available", m.Name)
		}
		return false, ClassifyPrivileged(err, errors.ErrDependency,
			"failed to install "+m.PackageName(pkg)+" with "+m.Name)
	}
	return true, nil
}
