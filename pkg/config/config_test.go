package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/pimp-project/pimp-install/pkg/errors"
)

// isolate points XDG_CONFIG_HOME at an empty directory so a developer's
// own config cannot leak into the tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Cleanup(xdg.Reload)
	t.Setenv("XDG_CONFIG_HOME", dir)
	xdg.Reload()
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, "PIMP", cfg.App.Name)
	assert.Equal(t, "main.py", cfg.App.Entrypoint)
	assert.Equal(t, "dialout", cfg.Group.Name)
	assert.True(t, cfg.Group.Enabled)
	assert.Equal(t, "python3-venv", cfg.System.Package)
	assert.Equal(t, "venv", cfg.Venv.Dir)
	assert.Equal(t, "requirements.txt", cfg.Manifest.Path)
	assert.Empty(t, cfg.Manifest.Packages)
	assert.Equal(t, "pimp", cfg.Shell.AliasName)
	assert.Equal(t, PolicyAbort, cfg.Policy.OnFailure)
	assert.Equal(t, 10*time.Minute, cfg.Executor.Timeout)
	assert.Contains(t, cfg.Copy.Exclude, "__pycache__")
	assert.Contains(t, cfg.Verify.Imports, "serial")
}

func TestLoad_Layering(t *testing.T) {
	configHome := isolate(t)

	userDir := filepath.Join(configHome, "pimp-install")
	require.NoError(t, os.MkdirAll(userDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "config.toml"), []byte(`
[shell]
alias_name = "plot"

[executor]
timeout = "2m"
`), 0644))

	sourceDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(sourceDir, SourceConfigFile), []byte(`
[manifest]
path = ""

[[manifest.packages]]
name = "numpy"
version = ">=1.26"

[[manifest.packages]]
name = "pyserial"
`), 0644))

	t.Setenv("PIMP_POLICY__ON_FAILURE", "continue")

	cfg, err := Load(LoadOptions{
		SourceDir: sourceDir,
		Overrides: map[string]interface{}{"venv.dir": ".env"},
	})
	require.NoError(t, err)

	assert.Equal(t, "plot", cfg.Shell.AliasName)
	assert.Equal(t, 2*time.Minute, cfg.Executor.Timeout)
	assert.Equal(t, "", cfg.Manifest.Path)
	require.Len(t, cfg.Manifest.Packages, 2)
	assert.Equal(t, Package{Name: "numpy", Version: ">=1.26"}, cfg.Manifest.Packages[0])
	assert.Equal(t, "pyserial", cfg.Manifest.Packages[1].Name)
	assert.Equal(t, PolicyContinue, cfg.Policy.OnFailure)
	assert.Equal(t, ".env", cfg.Venv.Dir)
}

func TestLoad_YAMLFile(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
group:
  name: uucp
shell:
  kind: zsh
  alias_name: pressure
`), 0644))

	cfg, err := Load(LoadOptions{File: path})
	require.NoError(t, err)
	assert.Equal(t, "uucp", cfg.Group.Name)
	assert.Equal(t, "zsh", cfg.Shell.Kind)
	assert.Equal(t, "pressure", cfg.Shell.AliasName)
	assert.Equal(t, "venv", cfg.Venv.Dir)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	isolate(t)

	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "nope.toml")})
	require.Error(t, err)
	assert.True(t, ierrors.IsErrorCode(err, ierrors.ErrConfigLoad))
}

func TestLoad_InvalidValues(t *testing.T) {
	isolate(t)

	_, err := Load(LoadOptions{Overrides: map[string]interface{}{
		"policy.on_failure": "retry",
		"shell.alias_name":  "bad name",
	}})
	require.Error(t, err)
	assert.True(t, ierrors.IsErrorCode(err, ierrors.ErrConfigValid))
	assert.Contains(t, err.Error(), "policy.on_failure")
	assert.Contains(t, err.Error(), "shell.alias_name")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			App:      App{Name: "PIMP"},
			Group:    Group{Enabled: true, Name: "dialout"},
			System:   System{Sudo: SudoAuto},
			Venv:     Venv{Dir: "venv", Python: "python3"},
			Manifest: Manifest{Path: "requirements.txt"},
			Launcher: Launcher{Path: "pimp.sh"},
			Shell:    Shell{AliasName: "pimp"},
			Policy:   Policy{OnFailure: PolicyAbort},
			Executor: Executor{Timeout: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"absolute venv", func(c *Config) { c.Venv.Dir = "/opt/venv" }, "venv.dir"},
		{"nested app name", func(c *Config) { c.App.Name = "a/b" }, "app.name"},
		{"dot app name", func(c *Config) { c.App.Name = "." }, "app.name"},
		{"parent app name", func(c *Config) { c.App.Name = ".." }, "app.name"},
		{"group without name", func(c *Config) { c.Group.Name = "" }, "group.name"},
		{"disabled group without name", func(c *Config) { c.Group = Group{} }, ""},
		{"bad sudo", func(c *Config) { c.System.Sudo = "maybe" }, "system.sudo"},
		{"zero timeout", func(c *Config) { c.Executor.Timeout = 0 }, "executor.timeout"},
		{"no manifest", func(c *Config) { c.Manifest = Manifest{} }, "manifest.path"},
		{"inline manifest", func(c *Config) {
			c.Manifest = Manifest{Packages: []Package{{Name: "numpy"}}}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "shell.alias_name", envKey("PIMP_SHELL__ALIAS_NAME"))
	assert.Equal(t, "policy.on_failure", envKey("PIMP_POLICY__ON_FAILURE"))
}

func TestDefaultContent(t *testing.T) {
	assert.Contains(t, DefaultContent(), "[manifest]")
}

func TestDefaults(t *testing.T) {
	cfg, err := Defaults()
	require.NoError(t, err)
	assert.Equal(t, "PIMP", cfg.App.Name)
	assert.Equal(t, PolicyAbort, cfg.Policy.OnFailure)
	assert.Equal(t, "dialout", cfg.Group.Name)
}
