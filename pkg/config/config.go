package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Policy values for Policy.OnFailure
const (
	PolicyAbort    = "abort"
	PolicyContinue = "continue"
)

// Sudo modes for System.Sudo
const (
	SudoAuto   = "auto"
	SudoAlways = "always"
	SudoNever  = "never"
)

// Config is the complete installer configuration.
type Config struct {
	App      App      `koanf:"app"`
	Group    Group    `koanf:"group"`
	System   System   `koanf:"system"`
	Venv     Venv     `koanf:"venv"`
	Manifest Manifest `koanf:"manifest"`
	Launcher Launcher `koanf:"launcher"`
	Shell    Shell    `koanf:"shell"`
	Copy     Copy     `koanf:"copy"`
	Policy   Policy   `koanf:"policy"`
	Executor Executor `koanf:"executor"`
	Verify   Verify   `koanf:"verify"`
}

// App describes the application tree being installed.
type App struct {
	Name         string `koanf:"name"`
	Source       string `koanf:"source"`
	TargetParent string `koanf:"target_parent"`
	Entrypoint   string `koanf:"entrypoint"`
	DefaultsFile string `koanf:"defaults_file"`
}

// Group is the device-access group the user joins.
type Group struct {
	Enabled bool   `koanf:"enabled"`
	Name    string `koanf:"name"`
}

// System selects the system package manager and the venv package.
type System struct {
	PackageManager string `koanf:"package_manager"`
	Package        string `koanf:"package"`
	Sudo           string `koanf:"sudo"`
}

// Venv names the isolated environment directory and the interpreter creating it.
type Venv struct {
	Dir    string `koanf:"dir"`
	Python string `koanf:"python"`
}

// Package is one structured manifest entry.
type Package struct {
	Name    string `koanf:"name"`
	Version string `koanf:"version"`
}

// Manifest points at the requirements file or lists packages inline.
type Manifest struct {
	Path     string    `koanf:"path"`
	Packages []Package `koanf:"packages"`
}

// Launcher is the executable the alias points at.
type Launcher struct {
	Path     string `koanf:"path"`
	Generate bool   `koanf:"generate"`
}

// Shell controls alias registration.
type Shell struct {
	Kind          string `koanf:"kind"`
	AliasName     string `koanf:"alias_name"`
	AliasFile     string `koanf:"alias_file"`
	RCFile        string `koanf:"rc_file"`
	EnsureSourced bool   `koanf:"ensure_sourced"`
	Reload        bool   `koanf:"reload"`
}

// Copy holds exclude patterns matched against base names during the tree copy.
type Copy struct {
	Exclude []string `koanf:"exclude"`
}

// Policy decides what happens after a failing step.
type Policy struct {
	OnFailure string `koanf:"on_failure"`
}

// Executor bounds external commands.
type Executor struct {
	Timeout time.Duration `koanf:"timeout"`
}

// Verify controls the post-install checks.
type Verify struct {
	Enabled bool     `koanf:"enabled"`
	Imports []string `koanf:"imports"`
}

var aliasNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	if c.App.Name == "" {
		problems = append(problems, "app.name must not be empty")
	} else if strings.ContainsRune(c.App.Name, filepath.Separator) || c.App.Name == "." || c.App.Name == ".." {
		problems = append(problems, "app.name must be a single path element")
	}

	if c.Venv.Dir == "" {
		problems = append(problems, "venv.dir must not be empty")
	} else if filepath.IsAbs(c.Venv.Dir) {
		problems = append(problems, "venv.dir must be relative to the application directory")
	}
	if c.Venv.Python == "" {
		problems = append(problems, "venv.python must not be empty")
	}

	if c.Launcher.Path == "" {
		problems = append(problems, "launcher.path must not be empty")
	}

	if c.Group.Enabled && c.Group.Name == "" {
		problems = append(problems, "group.name must be set when group.enabled is true")
	}

	switch c.System.Sudo {
	case SudoAuto, SudoAlways, SudoNever:
	default:
		problems = append(problems, fmt.Sprintf("system.sudo %q must be one of auto, always, never", c.System.Sudo))
	}

	if !aliasNamePattern.MatchString(c.Shell.AliasName) {
		problems = append(problems, fmt.Sprintf("shell.alias_name %q is not a valid alias name", c.Shell.AliasName))
	}

	switch c.Policy.OnFailure {
	case PolicyAbort, PolicyContinue:
	default:
		problems = append(problems, fmt.Sprintf("policy.on_failure %q must be abort or continue", c.Policy.OnFailure))
	}

	if c.Executor.Timeout <= 0 {
		problems = append(problems, "executor.timeout must be positive")
	}

	if c.Manifest.Path == "" && len(c.Manifest.Packages) == 0 {
		problems = append(problems, "manifest.path is empty and manifest.packages lists nothing")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
