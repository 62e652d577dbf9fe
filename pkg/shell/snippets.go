package shell

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SourceMarker precedes the source line written into rc files.
const SourceMarker = "# added by pimp-install"

// SourceLine renders a guarded source line for path.
func SourceLine(kind Kind, path string) string {
	if kind == Fish {
		return fmt.Sprintf(`test -f "%s"; and source "%s"`, path, path)
	}
	return fmt.Sprintf(`[ -f "%s" ] && . "%s"`, path, path)
}

// References reports whether rc content already mentions aliasFile, either
// literally or through ~ or $HOME.
func References(content, aliasFile, home string) bool {
	candidates := []string{aliasFile}
	if home != "" {
		if rel, err := filepath.Rel(home, aliasFile); err == nil && !strings.HasPrefix(rel, "..") {
			candidates = append(candidates,
				"~/"+rel,
				"$HOME/"+rel,
				"${HOME}/"+rel,
			)
		}
	}

	for _, line := range splitLines(content) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}
		for _, c := range candidates {
			if strings.Contains(trimmed, c) {
				return true
			}
		}
	}
	return false
}

// EnsureSourced appends a source line for aliasFile unless the rc content
// already references it.
func EnsureSourced(content string, kind Kind, aliasFile, home string) (string, bool) {
	if References(content, aliasFile, home) {
		return content, false
	}

	lines := splitLines(content)
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) != "" {
		lines = append(lines, "")
	}
	lines = append(lines, SourceMarker, SourceLine(kind, aliasFile))
	return joinLines(lines), true
}

// RemoveSourced drops the marker and source line written by EnsureSourced.
func RemoveSourced(content string, kind Kind, aliasFile string) (string, bool) {
	want := SourceLine(kind, aliasFile)
	lines := splitLines(content)
	out := make([]string, 0, len(lines))
	changed := false

	for i := 0; i < len(lines); i++ {
		if lines[i] == SourceMarker && i+1 < len(lines) && lines[i+1] == want {
			i++
			changed = true
			continue
		}
		out = append(out, lines[i])
	}

	if !changed {
		return content, false
	}
	return joinLines(out), true
}

// ReloadCommand returns a command that loads rcFile and aliasFile in a fresh
// non-interactive shell and fails unless alias name is defined afterwards.
func ReloadCommand(kind Kind, rcFile, aliasFile, name string) (string, []string) {
	if kind == Fish {
		script := `test -f $argv[1]; and source $argv[1] >/dev/null 2>&1; source $argv[2]; and functions -q $argv[3]`
		return kind.Binary(), []string{"-c", script, rcFile, aliasFile, name}
	}

	// $0 receives the first argument after the script
	script := `[ -f "$1" ] && . "$1" >/dev/null 2>&1; . "$2" && alias "$3" >/dev/null`
	return kind.Binary(), []string{"-c", script, "pimp-install", rcFile, aliasFile, name}
}
