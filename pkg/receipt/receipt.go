// Package receipt persists a summary of the last installer run so that
// status and uninstall know what was installed where.
package receipt

import (
	"bytes"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
)

// Receipt is the persisted record of one run.
type Receipt struct {
	RunID      string    `toml:"run_id"`
	Version    string    `toml:"version"`
	StartedAt  time.Time `toml:"started_at"`
	FinishedAt time.Time `toml:"finished_at"`
	Succeeded  bool      `toml:"succeeded"`
	Policy     string    `toml:"policy"`

	App   App   `toml:"app"`
	Shell Shell `toml:"shell"`

	Requirements []string `toml:"requirements"`
	Steps        []Step   `toml:"steps"`
}

// App records where the application went.
type App struct {
	Name     string `toml:"name"`
	Source   string `toml:"source"`
	Target   string `toml:"target"`
	Venv     string `toml:"venv"`
	Launcher string `toml:"launcher"`

	// Manifest and ManifestChecksum identify the requirements installed.
	Manifest         string `toml:"manifest,omitempty"`
	ManifestChecksum string `toml:"manifest_checksum,omitempty"`
}

// Shell records the alias registration.
type Shell struct {
	Kind      string `toml:"kind"`
	AliasName string `toml:"alias_name"`
	AliasFile string `toml:"alias_file"`
	RCFile    string `toml:"rc_file"`
}

// Step is one step outcome.
type Step struct {
	Name     string `toml:"name"`
	Status   string `toml:"status"`
	Message  string `toml:"message,omitempty"`
	Error    string `toml:"error,omitempty"`
	Duration string `toml:"duration,omitempty"`
}

// Step returns the recorded outcome of the named step.
func (r *Receipt) Step(name string) (Step, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return Step{}, false
}

// Save writes the receipt, creating the state directory when needed.
func Save(fsys filesystem.FS, path string, r *Receipt) error {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode receipt")
	}
	// Written beside the target and renamed so a reader never sees half a receipt.
	tmp := path + ".tmp"
	if err := filesystem.WriteWithParents(fsys, tmp, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFilesystem, "failed to write receipt %s", path)
	}
	if err := fsys.Rename(tmp, path); err != nil {
		_ = fsys.Remove(tmp)
		return errors.Wrapf(err, errors.ErrFilesystem, "failed to write receipt %s", path)
	}
	return nil
}

// Load reads a receipt. A missing file is a NOT_FOUND error.
func Load(fsys filesystem.FS, path string) (*Receipt, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrNotFound, "no receipt at %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "failed to read receipt %s", path)
	}

	var r Receipt
	if err := toml.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "receipt %s is corrupt", path)
	}
	return &r, nil
}

// Remove deletes the receipt; a missing file is not an error.
func Remove(fsys filesystem.FS, path string) error {
	if err := fsys.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFilesystem, "failed to remove receipt %s", path)
	}
	return nil
}
