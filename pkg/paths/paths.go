package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/pimp-project/pimp-install/pkg/config"
	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/shell"
)

// Fixed names under the state directory. These are not user-configurable.
const (
	AppDirName      = "pimp-install"
	ReceiptFileName = "receipt.toml"
	LogFileName     = "pimp-install.log"
)

// Paths provides centralized path management for the installer
type Paths interface {
	Home() string
	User() string
	SourceDir() string
	TargetDir() string
	VenvDir() string
	EntrypointPath() string
	DefaultsFilePath() string
	LauncherPath() string
	// ManifestPath is empty when the manifest is given inline in the config.
	ManifestPath() string
	ShellKind() shell.Kind
	AliasFile() string
	RCFile() string
	StateDir() string
	ReceiptPath() string
	LogFilePath() string
	NormalizePath(path string) (string, error)
}

type paths struct {
	host      Host
	sourceDir string
	targetDir string
	venvDir   string
	entry     string
	defaults  string
	launcher  string
	manifest  string
	kind      shell.Kind
	aliasFile string
	rcFile    string
	stateDir  string
}

// New resolves every installer path from cfg and host.
func New(cfg *config.Config, host Host) (Paths, error) {
	if host.Home == "" {
		return nil, errors.New(errors.ErrInvalidInput, "home directory is empty")
	}

	p := &paths{host: host}

	source := cfg.App.Source
	if source == "" {
		source = cfg.App.Name
	}
	p.sourceDir = p.absolute(source, host.WorkDir)

	parent := cfg.App.TargetParent
	if parent == "" {
		parent = host.Home
	}
	p.targetDir = filepath.Join(p.absolute(parent, host.Home), cfg.App.Name)

	p.venvDir = filepath.Join(p.targetDir, cfg.Venv.Dir)
	p.entry = p.absolute(cfg.App.Entrypoint, p.targetDir)
	if cfg.App.DefaultsFile != "" {
		p.defaults = p.absolute(cfg.App.DefaultsFile, p.targetDir)
	}
	p.launcher = p.absolute(cfg.Launcher.Path, p.targetDir)
	if cfg.Manifest.Path != "" {
		p.manifest = p.absolute(cfg.Manifest.Path, p.targetDir)
	}

	kind, err := shell.ParseKind(cfg.Shell.Kind, host.Shell)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigValid, "shell.kind")
	}
	p.kind = kind

	aliasRel, rcRel := kind.DefaultFiles()
	p.aliasFile = p.orDefault(cfg.Shell.AliasFile, aliasRel)
	p.rcFile = p.orDefault(cfg.Shell.RCFile, rcRel)

	if dir := os.Getenv(EnvStateDir); dir != "" {
		p.stateDir = p.expand(dir)
	} else {
		p.stateDir = filepath.Join(xdg.StateHome, AppDirName)
	}

	return p, nil
}

// ExpandHome expands a leading ~ or ~/ using home.
func ExpandHome(path, home string) string {
	if path == "~" {
		return home
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

func (p *paths) expand(path string) string {
	return ExpandHome(path, p.host.Home)
}

// absolute expands ~ and resolves relative paths against base.
func (p *paths) absolute(path, base string) string {
	path = p.expand(path)
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(base, path)
}

func (p *paths) orDefault(configured, homeRel string) string {
	if configured == "" {
		return filepath.Join(p.host.Home, homeRel)
	}
	return p.absolute(configured, p.host.Home)
}

func (p *paths) Home() string             { return p.host.Home }
func (p *paths) User() string             { return p.host.User }
func (p *paths) SourceDir() string        { return p.sourceDir }
func (p *paths) TargetDir() string        { return p.targetDir }
func (p *paths) VenvDir() string          { return p.venvDir }
func (p *paths) EntrypointPath() string   { return p.entry }
func (p *paths) DefaultsFilePath() string { return p.defaults }
func (p *paths) LauncherPath() string     { return p.launcher }
func (p *paths) ManifestPath() string     { return p.manifest }
func (p *paths) ShellKind() shell.Kind    { return p.kind }
func (p *paths) AliasFile() string        { return p.aliasFile }
func (p *paths) RCFile() string           { return p.rcFile }
func (p *paths) StateDir() string         { return p.stateDir }

// ReceiptPath returns the location of the last run's receipt
func (p *paths) ReceiptPath() string {
	return filepath.Join(p.stateDir, ReceiptFileName)
}

// LogFilePath returns the log file location
func (p *paths) LogFilePath() string {
	return filepath.Join(p.stateDir, LogFileName)
}

// NormalizePath normalizes a path by expanding home, making it absolute,
// and cleaning it
func (p *paths) NormalizePath(path string) (string, error) {
	if path == "" {
		return "", errors.New(errors.ErrInvalidInput, "empty path")
	}
	return p.absolute(path, p.host.WorkDir), nil
}
