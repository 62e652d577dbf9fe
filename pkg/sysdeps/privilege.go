package sysdeps

import (
	"strings"

	"github.com/pimp-project/pimp-install/pkg/config"
	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/executor"
)

// SudoBinary is the elevation helper.
const SudoBinary = "sudo"

// Elevation decides whether privileged commands are wrapped in sudo.
type Elevation struct {
	// Mode is one of config.SudoAuto, config.SudoAlways, config.SudoNever.
	Mode string
	Root bool
}

// Needed reports whether commands are prefixed with sudo.
func (e Elevation) Needed() bool {
	switch e.Mode {
	case config.SudoAlways:
		return true
	case config.SudoNever:
		return false
	default:
		return !e.Root
	}
}

// Wrap prefixes cmd with sudo when elevation is needed.
func (e Elevation) Wrap(cmd executor.Command) executor.Command {
	if !e.Needed() {
		return cmd
	}
	wrapped := cmd
	wrapped.Name = SudoBinary
	wrapped.Args = append([]string{cmd.Name}, cmd.Args...)
	return wrapped
}

// Check fails with a PRIVILEGE error when sudo is needed but missing.
func (e Elevation) Check(runner executor.Runner) error {
	if !e.Needed() {
		return nil
	}
	if _, err := runner.LookPath(SudoBinary); err != nil {
		return errors.Wrap(err, errors.ErrPrivilege, "elevated rights are required but sudo is not available")
	}
	return nil
}

var privilegeMarkers = []string{
	"permission denied",
	"operation not permitted",
	"are you root",
	"must be root",
	"only root",
	"unless you are root",
	"not in the sudoers",
	"a password is required",
	"incorrect password",
	"a terminal is required",
	"cannot lock /etc/",
	"could not open lock file",
	"unable to lock",
}

// IsPrivilegeFailure reports whether a failed command's stderr shows
// missing privileges rather than a problem with the request itself.
func IsPrivilegeFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.HasErrorCode(err, errors.ErrPrivilege) {
		return true
	}
	stderr := strings.ToLower(executor.Stderr(err))
	for _, marker := range privilegeMarkers {
		if strings.Contains(stderr, marker) {
			return true
		}
	}
	return false
}

// ClassifyPrivileged codes a failed privileged command as PRIVILEGE when
// its output shows missing rights, otherwise as fallback.
func ClassifyPrivileged(err error, fallback errors.ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	if IsPrivilegeFailure(err) {
		if errors.IsErrorCode(err, errors.ErrPrivilege) {
			return err
		}
		return errors.Wrap(err, errors.ErrPrivilege, message)
	}
	return errors.Classify(err, fallback, message)
}
