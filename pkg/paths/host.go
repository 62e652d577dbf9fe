package paths

import (
	"os"
	"os/user"

	"github.com/pimp-project/pimp-install/pkg/errors"
)

// Environment variable names
const (
	EnvHome  = "HOME"
	EnvUser  = "USER"
	EnvShell = "SHELL"

	// EnvStateDir overrides the XDG state directory for pimp-install
	EnvStateDir = "PIMP_INSTALL_STATE_DIR"
)

// Host is a read-only snapshot of the invoking user's environment.
type Host struct {
	Home    string
	User    string
	Shell   string
	WorkDir string
	UID     int
}

// IsRoot reports whether the installer runs as the superuser.
func (h Host) IsRoot() bool {
	return h.UID == 0
}

// HostFromEnv reads HOME, USER and SHELL, falling back to the user
// database when HOME or USER are unset.
func HostFromEnv() (Host, error) {
	h := Host{
		Home:  os.Getenv(EnvHome),
		User:  os.Getenv(EnvUser),
		Shell: os.Getenv(EnvShell),
		UID:   os.Geteuid(),
	}

	if h.Home == "" || h.User == "" {
		u, err := user.Current()
		if err != nil {
			return Host{}, errors.Wrap(err, errors.ErrNotFound, "unable to determine the invoking user")
		}
		if h.Home == "" {
			h.Home = u.HomeDir
		}
		if h.User == "" {
			h.User = u.Username
		}
	}

	if h.Home == "" {
		return Host{}, errors.New(errors.ErrNotFound, "unable to determine home directory: neither HOME nor the user database provide one")
	}

	wd, err := os.Getwd()
	if err != nil {
		return Host{}, errors.Wrap(err, errors.ErrFilesystem, "failed to get current directory")
	}
	h.WorkDir = wd

	return h, nil
}
