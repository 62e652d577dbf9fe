// Package venv describes a Python virtual environment on disk and the
// process environment that activating it implies.
package venv

import (
	"os"
	"path/filepath"
	"strings"
)

// Environment variables touched by activation.
const (
	EnvVirtualEnv = "VIRTUAL_ENV"
	EnvPath       = "PATH"
	EnvPythonHome = "PYTHONHOME"
	EnvPrompt     = "VIRTUAL_ENV_PROMPT"
)

// Env is a virtual environment rooted at Root.
type Env struct {
	Root string
}

// New returns the environment rooted at root.
func New(root string) Env {
	return Env{Root: filepath.Clean(root)}
}

// BinDir is the directory holding the interpreter and entry points.
func (e Env) BinDir() string {
	return filepath.Join(e.Root, "bin")
}

// Python is the environment's interpreter.
func (e Env) Python() string {
	return filepath.Join(e.BinDir(), "python")
}

// ConfigFile is written by python -m venv and marks a usable environment.
func (e Env) ConfigFile() string {
	return filepath.Join(e.Root, "pyvenv.cfg")
}

// Activation is the result of activating an environment: the new process
// environment plus what is needed to undo it.
type Activation struct {
	Env      Env
	Environ  []string
	previous []string
}

// Activate returns environ as the activate script would leave it:
// VIRTUAL_ENV set, the bin directory first on PATH and PYTHONHOME unset.
// The input slice is not modified.
func (e Env) Activate(environ []string) Activation {
	vars := toMap(environ)

	path := e.BinDir()
	if old, ok := vars[EnvPath]; ok && old != "" {
		path += string(os.PathListSeparator) + old
	}

	out := make([]string, 0, len(environ)+2)
	for _, kv := range environ {
		switch key(kv) {
		case EnvVirtualEnv, EnvPath, EnvPythonHome, EnvPrompt:
			continue
		}
		out = append(out, kv)
	}
	out = append(out,
		EnvVirtualEnv+"="+e.Root,
		EnvPrompt+"="+filepath.Base(e.Root),
		EnvPath+"="+path,
	)

	return Activation{
		Env:      e,
		Environ:  out,
		previous: append([]string(nil), environ...),
	}
}

// Deactivate returns the environment as it was before activation.
func (a Activation) Deactivate() []string {
	return append([]string(nil), a.previous...)
}

// Active reports whether environ has an environment activated and which.
func Active(environ []string) (string, bool) {
	v, ok := Lookup(environ, EnvVirtualEnv)
	return v, ok && v != ""
}

// Lookup returns the value of name in environ.
func Lookup(environ []string, name string) (string, bool) {
	v, ok := toMap(environ)[name]
	return v, ok
}

func key(kv string) string {
	if i := strings.IndexByte(kv, '='); i >= 0 {
		return kv[:i]
	}
	return kv
}

func toMap(environ []string) map[string]string {
	m := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	return m
}
