// Package paths provides centralized path handling for pimp-install.
// It resolves every location the installer reads or writes from the
// configuration and a snapshot of the invoking user's environment, and
// places its own state under the XDG state directory.
package paths
