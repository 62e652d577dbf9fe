package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	ierrors "github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/logging"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

const (
	// EnvPrefix prefixes environment overrides. Nested keys use a double
	// underscore: PIMP_SHELL__ALIAS_NAME sets shell.alias_name.
	EnvPrefix = "PIMP_"

	// UserConfigFile is looked up in $XDG_CONFIG_HOME/pimp-install/.
	UserConfigFile = "config.toml"

	// SourceConfigFile is looked up in the application source directory.
	SourceConfigFile = "pimp-install.toml"

	// SourceConfigFileYAML is the YAML spelling of SourceConfigFile.
	SourceConfigFileYAML = "pimp-install.yaml"

	appDirName = "pimp-install"
)

type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New("not implemented")
}

// LoadOptions selects the optional configuration layers.
type LoadOptions struct {
	// File is an explicit config file; it must exist when set.
	File string
	// SourceDir is searched for pimp-install.toml.
	SourceDir string
	// Overrides are applied last, keyed by dotted path (e.g. "policy.on_failure").
	Overrides map[string]interface{}
}

// DefaultContent returns the embedded defaults file.
func DefaultContent() string {
	return string(defaultConfig)
}

// Load merges, in increasing precedence: embedded defaults, the user config
// file, pimp-install.toml (or .yaml) in the source dir, an explicit file,
// PIMP_* environment variables and flag overrides.
func Load(opts LoadOptions) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, ierrors.Wrap(err, ierrors.ErrConfigLoad, "failed to load defaults")
	}

	for _, path := range candidateFiles(opts) {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, ierrors.Wrapf(err, ierrors.ErrConfigLoad, "failed to load config from %s", path)
		}
		logger.Debug().Str("path", path).Msg("Loaded config file")
	}

	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return nil, ierrors.Wrapf(err, ierrors.ErrConfigLoad, "config file %s", opts.File)
		}
		if err := k.Load(file.Provider(opts.File), parserFor(opts.File)); err != nil {
			return nil, ierrors.Wrapf(err, ierrors.ErrConfigLoad, "failed to load config from %s", opts.File)
		}
		logger.Debug().Str("path", opts.File).Msg("Loaded explicit config file")
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, ierrors.Wrap(err, ierrors.ErrConfigLoad, "failed to load environment overrides")
	}

	if len(opts.Overrides) > 0 {
		if err := k.Load(confmap.Provider(opts.Overrides, "."), nil); err != nil {
			return nil, ierrors.Wrap(err, ierrors.ErrConfigLoad, "failed to apply overrides")
		}
	}

	return decode(k)
}

// Defaults returns the embedded configuration with no other layer applied.
func Defaults() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, ierrors.Wrap(err, ierrors.ErrConfigLoad, "failed to load defaults")
	}
	return decode(k)
}

func decode(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, ierrors.Wrap(err, ierrors.ErrConfigLoad, "failed to unmarshal configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, ierrors.Wrap(err, ierrors.ErrConfigValid, "configuration rejected")
	}

	return &cfg, nil
}

// UserConfigPath is the per-user config file location.
func UserConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appDirName, UserConfigFile)
}

func candidateFiles(opts LoadOptions) []string {
	files := []string{UserConfigPath()}
	if opts.SourceDir != "" {
		files = append(files,
			filepath.Join(opts.SourceDir, SourceConfigFile),
			filepath.Join(opts.SourceDir, SourceConfigFileYAML))
	}
	return files
}

// parserFor picks the YAML parser for .yaml and .yml files and TOML
// for everything else.
func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Parser()
	default:
		return toml.Parser()
	}
}

// envKey maps PIMP_SHELL__ALIAS_NAME to shell.alias_name.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// Describe renders the effective value of a few keys for debug output.
func (c *Config) Describe() map[string]string {
	return map[string]string{
		"app.name":          c.App.Name,
		"venv.dir":          c.Venv.Dir,
		"manifest.path":     c.Manifest.Path,
		"shell.alias_name":  c.Shell.AliasName,
		"policy.on_failure": c.Policy.OnFailure,
		"executor.timeout":  fmt.Sprint(c.Executor.Timeout),
	}
}
