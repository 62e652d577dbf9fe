// Package sysdeps queries and installs system packages through the host's
// package manager (apt, dnf or pacman) and decides when commands need sudo.
package sysdeps
