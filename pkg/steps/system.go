package steps

import (
	"context"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/sysdeps"
)

type systemPackage struct{}

func (systemPackage) Name() string            { return SystemPackage }
func (systemPackage) Class() errors.ErrorCode { return errors.ErrDependency }

func (systemPackage) Describe(s *Session) string {
	pkg := s.Config.System.Package
	m, err := sysdeps.Detect(s.Runner, s.Config.System.PackageManager)
	if err != nil {
		return "ensure " + pkg + " is installed (no package manager found)"
	}
	cmd := s.Elevation().Wrap(m.InstallCommand(pkg))
	return "ensure " + m.PackageName(pkg) + " is installed: " + cmd.String()
}

func (systemPackage) Run(ctx context.Context, s *Session) (Outcome, error) {
	pkg := s.Config.System.Package
	if pkg == "" {
		return Skip("no system package configured"), nil
	}

	m, err := sysdeps.Detect(s.Runner, s.Config.System.PackageManager)
	if err != nil {
		return Outcome{}, err
	}

	installed, err := m.Ensure(ctx, s.Runner, s.Elevation(), pkg)
	if err != nil {
		return Outcome{}, err
	}
	if !installed {
		return Done("%s already installed (%s)", m.PackageName(pkg), m.Name), nil
	}
	return Done("installed %s with %s", m.PackageName(pkg), m.Name), nil
}
