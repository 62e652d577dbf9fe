package shell

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind identifies a shell dialect.
type Kind string

const (
	Bash Kind = "bash"
	Zsh  Kind = "zsh"
	Fish Kind = "fish"
)

// ParseKind accepts bash, zsh, fish, or auto (resolved from shellEnv).
func ParseKind(s, shellEnv string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return Detect(shellEnv), nil
	case "bash":
		return Bash, nil
	case "zsh":
		return Zsh, nil
	case "fish":
		return Fish, nil
	default:
		return "", fmt.Errorf("unsupported shell %q", s)
	}
}

// Detect maps a $SHELL value to a Kind. Anything unrecognized is treated as bash.
func Detect(shellEnv string) Kind {
	switch filepath.Base(strings.TrimSpace(shellEnv)) {
	case "zsh":
		return Zsh
	case "fish":
		return Fish
	default:
		return Bash
	}
}

// Binary is the executable name of the shell.
func (k Kind) Binary() string {
	return string(k)
}

// DefaultFiles returns the alias file and rc file, relative to home.
func (k Kind) DefaultFiles() (aliasFile, rcFile string) {
	switch k {
	case Zsh:
		return ".zsh_aliases", ".zshrc"
	case Fish:
		// conf.d snippets are loaded by fish on startup
		return filepath.Join(".config", "fish", "conf.d", "pimp-install.fish"),
			filepath.Join(".config", "fish", "config.fish")
	default:
		return ".bash_aliases", ".bashrc"
	}
}

// AutoLoads reports whether the shell loads aliasFile without an rc-file entry.
func (k Kind) AutoLoads(aliasFile string) bool {
	if k != Fish {
		return false
	}
	return filepath.Base(filepath.Dir(aliasFile)) == "conf.d"
}
