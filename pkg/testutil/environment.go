package testutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/pimp-project/pimp-install/pkg/config"
	"github.com/pimp-project/pimp-install/pkg/executor"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
	"github.com/pimp-project/pimp-install/pkg/paths"
	"github.com/pimp-project/pimp-install/pkg/steps"
)

// Fixed locations of the in-memory host.
const (
	HomeDir  = "/home/ana"
	WorkDir  = "/work"
	User     = "ana"
	StateDir = "/home/ana/.local/state/pimp-install"
)

// MainWindowForm is a minimal Qt Designer form.
const MainWindowForm = `<?xml version="1.0" encoding="UTF-8"?>
<ui version="4.0">
 <class>MainWindow</class>
 <widget class="QMainWindow" name="MainWindow"/>
</ui>
`

// AppFiles is the seeded application source tree, relative to its root.
var AppFiles = map[string]string{
	"main.py":                    "import sys\n",
	"DEFAULTS.txt":               "{'GUI_DIR': './Gui_Files/', 'BAUD_RATE': 9600}\n",
	"requirements.txt":           "PyQt6>=6.5\nnumpy>=1.24\npandas\nmatplotlib\nscipy\npyserial\n",
	"pimp.sh":                    "#!/usr/bin/env bash\ncd \"$(dirname \"$0\")\" && exec ./venv/bin/python main.py\n",
	"Gui_Files/MainWindow.ui":    MainWindowForm,
	"Gui_Files/SetUpWindow.ui":   MainWindowForm,
	"serialdevices.py":           "",
	"__pycache__/main.pyc":       "",
	"utils/pressure_sim/main.py": "",
}

// Environment is an in-memory host for installer tests.
type Environment struct {
	T      *testing.T
	FS     filesystem.FS
	Host   paths.Host
	Config *config.Config
	Runner *FakeRunner
	Groups *FakeGroups
}

// NewEnvironment seeds /work/PIMP with AppFiles, creates the home
// directory and answers "python3 -m venv" by creating the environment's
// marker files, as the real command would.
func NewEnvironment(t *testing.T) *Environment {
	t.Helper()
	t.Setenv(paths.EnvStateDir, StateDir)

	cfg, err := config.Defaults()
	if err != nil {
		t.Fatalf("failed to load default config: %v", err)
	}

	env := &Environment{
		T:      t,
		FS:     filesystem.NewMemory(),
		Host:   paths.Host{Home: HomeDir, User: User, Shell: "/bin/bash", WorkDir: WorkDir, UID: 1000},
		Config: cfg,
		Runner: NewFakeRunner(),
		Groups: NewFakeGroups("dialout"),
	}

	env.WriteFiles(filepath.Join(WorkDir, "PIMP"), AppFiles)
	if err := env.FS.MkdirAll(HomeDir, 0755); err != nil {
		t.Fatalf("failed to create home: %v", err)
	}
	if err := env.FS.Chmod(filepath.Join(WorkDir, "PIMP", "pimp.sh"), 0644); err != nil {
		t.Fatalf("failed to chmod launcher: %v", err)
	}

	env.Runner.OnFunc(Response{
		Match: func(cmd executor.Command) bool {
			return len(cmd.Args) == 3 && cmd.Args[0] == "-m" && cmd.Args[1] == "venv"
		},
		Do: func(cmd executor.Command) {
			root := cmd.Args[2]
			env.WriteFiles(root, map[string]string{
				"pyvenv.cfg": "home = /usr/bin\n",
				"bin/python": "",
				"bin/pip":    "",
			})
		},
	})
	env.Runner.On("dpkg-query", executor.Result{Stdout: "install ok installed"}, nil)
	return env
}

// WriteFiles creates files below root.
func (e *Environment) WriteFiles(root string, files map[string]string) {
	e.T.Helper()
	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := filesystem.WriteWithParents(e.FS, path, []byte(content), 0644); err != nil {
			e.T.Fatalf("failed to write %s: %v", path, err)
		}
	}
}

// Paths resolves paths for the current configuration.
func (e *Environment) Paths() paths.Paths {
	e.T.Helper()
	p, err := paths.New(e.Config, e.Host)
	if err != nil {
		e.T.Fatalf("failed to resolve paths: %v", err)
	}
	return p
}

// Session builds a step session for the current configuration.
func (e *Environment) Session() *steps.Session {
	e.T.Helper()
	return steps.NewSession(e.Config, e.Paths(), e.Host, e.FS, e.Runner, e.Groups,
		[]string{"HOME=" + HomeDir, "PATH=/usr/bin:/bin"})
}

// ReadFile returns a file's content, failing the test when it is missing.
func (e *Environment) ReadFile(path string) string {
	e.T.Helper()
	data, err := e.FS.ReadFile(path)
	if err != nil {
		e.T.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// CountLines counts lines of a file starting with prefix.
func (e *Environment) CountLines(path, prefix string) int {
	e.T.Helper()
	n := 0
	for _, line := range strings.Split(e.ReadFile(path), "\n") {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return n
}
