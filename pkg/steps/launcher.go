package steps

import (
	"bytes"
	"context"
	_ "embed"
	"path/filepath"
	"text/template"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
	"github.com/pimp-project/pimp-install/pkg/shell"
)

//go:embed launcher.sh.tmpl
var launcherTemplate string

var launcher = template.Must(template.New("launcher").
	Funcs(template.FuncMap{"quote": shell.Quote}).
	Parse(launcherTemplate))

// LauncherData fills the launcher template.
type LauncherData struct {
	Name       string
	Python     string
	Entrypoint string
}

// RenderLauncher returns the launcher script for the session's layout.
// Paths inside the script are relative to the application directory.
func RenderLauncher(s *Session) (string, error) {
	target := s.Paths.TargetDir()
	python, err := filepath.Rel(target, s.Venv().Python())
	if err != nil {
		python = s.Venv().Python()
	} else {
		python = "./" + python
	}
	entry, err := filepath.Rel(target, s.Paths.EntrypointPath())
	if err != nil {
		entry = s.Paths.EntrypointPath()
	}

	var buf bytes.Buffer
	err = launcher.Execute(&buf, LauncherData{
		Name:       s.Config.App.Name,
		Python:     filepath.ToSlash(python),
		Entrypoint: filepath.ToSlash(entry),
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to render launcher")
	}
	return buf.String(), nil
}

type markLauncher struct{}

func (markLauncher) Name() string            { return MarkLauncher }
func (markLauncher) Class() errors.ErrorCode { return errors.ErrFilesystem }

func (markLauncher) Describe(s *Session) string {
	return "chmod +x " + s.Paths.LauncherPath()
}

func (markLauncher) Run(ctx context.Context, s *Session) (Outcome, error) {
	path := s.Paths.LauncherPath()

	generated := false
	if !filesystem.Exists(s.FS, path) {
		if !s.Config.Launcher.Generate {
			return Outcome{}, errors.Newf(errors.ErrFilesystem, "launcher %s does not exist", path)
		}
		script, err := RenderLauncher(s)
		if err != nil {
			return Outcome{}, err
		}
		if err := filesystem.WriteWithParents(s.FS, path, []byte(script), 0755); err != nil {
			return Outcome{}, errors.Wrapf(err, errors.ErrFilesystem, "failed to write launcher %s", path)
		}
		generated = true
	}

	changed, err := filesystem.MakeExecutable(s.FS, path)
	if err != nil {
		return Outcome{}, errors.Wrapf(err, errors.ErrFilesystem, "failed to mark %s executable", path)
	}

	switch {
	case generated:
		return Done("generated %s", path), nil
	case changed:
		return Done("marked %s executable", path), nil
	}
	return Done("%s already executable", path), nil
}
