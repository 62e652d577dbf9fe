package shell

import (
	"regexp"
	"strings"
)

// AliasLine renders one alias definition for the shell.
func AliasLine(kind Kind, name, value string) string {
	if kind == Fish {
		return "alias " + name + " " + quoteFish(value)
	}
	return "alias " + name + "=" + Quote(value)
}

// Quote single-quotes s for POSIX shells.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func quoteFish(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return "'" + s + "'"
}

func aliasPattern(name string) *regexp.Regexp {
	// alias NAME=..., alias NAME ..., alias -- NAME=...
	return regexp.MustCompile(`^\s*alias\s+(?:--\s+)?` + regexp.QuoteMeta(name) + `(?:=|\s)`)
}

// FindAliases returns the zero-based line numbers defining name.
func FindAliases(content, name string) []int {
	re := aliasPattern(name)
	var found []int
	for i, line := range splitLines(content) {
		if re.MatchString(line) {
			found = append(found, i)
		}
	}
	return found
}

// UpsertAlias makes content hold exactly one definition of name pointing at
// value. The first existing definition is rewritten in place and any later
// duplicates are dropped; with none present the line is appended.
func UpsertAlias(content string, kind Kind, name, value string) (string, bool) {
	want := AliasLine(kind, name, value)
	lines := splitLines(content)
	matches := FindAliases(content, name)

	if len(matches) == 0 {
		lines = append(lines, want)
		out := joinLines(lines)
		return out, out != content
	}

	drop := make(map[int]bool, len(matches)-1)
	for _, idx := range matches[1:] {
		drop[idx] = true
	}

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if drop[i] {
			continue
		}
		if i == matches[0] {
			line = want
		}
		out = append(out, line)
	}

	result := joinLines(out)
	return result, result != content
}

// RemoveAlias drops every definition of name.
func RemoveAlias(content, name string) (string, bool) {
	matches := FindAliases(content, name)
	if len(matches) == 0 {
		return content, false
	}

	drop := make(map[int]bool, len(matches))
	for _, idx := range matches {
		drop[idx] = true
	}

	lines := splitLines(content)
	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if !drop[i] {
			out = append(out, line)
		}
	}
	return joinLines(out), true
}

// splitLines splits on newlines without producing a trailing empty element
// for a final newline.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

// joinLines always terminates the result with a newline.
func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
