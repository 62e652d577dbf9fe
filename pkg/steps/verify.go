package steps

import (
	"context"
	"fmt"
	"strings"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
)

type verify struct{}

func (verify) Name() string            { return Verify }
func (verify) Class() errors.ErrorCode { return errors.ErrDependency }

func (verify) Describe(s *Session) string {
	if !s.Config.Verify.Enabled {
		return "verification disabled"
	}
	return fmt.Sprintf("pip check and import %s", strings.Join(s.Config.Verify.Imports, ", "))
}

// ImportProbe is the Python snippet importing every module in modules.
func ImportProbe(modules []string) string {
	return "import " + strings.Join(modules, ", ")
}

func (verify) Run(ctx context.Context, s *Session) (Outcome, error) {
	if !s.Config.Verify.Enabled {
		return Skip("verification disabled"), nil
	}

	python := s.Venv().Python()
	if !filesystem.Exists(s.FS, python) {
		return Outcome{}, errors.Newf(errors.ErrDependency, "no interpreter at %s", python)
	}

	if _, err := s.Runner.Run(ctx, s.Command(python, "-m", "pip", "check")); err != nil {
		return Outcome{}, commandError(err, "installed packages have broken requirements")
	}

	imports := s.Config.Verify.Imports
	if len(imports) == 0 {
		return Done("pip check passed"), nil
	}
	if _, err := s.Runner.Run(ctx, s.Command(python, "-c", ImportProbe(imports))); err != nil {
		return Outcome{}, commandError(err, "import probe failed")
	}
	return Done("pip check passed; imported %s", strings.Join(imports, ", ")), nil
}
