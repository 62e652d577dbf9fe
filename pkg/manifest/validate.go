package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pimp-project/pimp-install/pkg/errors"
)

// Problem is one validation finding.
type Problem struct {
	Line    int
	Name    string
	Message string
}

func (p Problem) String() string {
	var b strings.Builder
	if p.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", p.Line)
	}
	if p.Name != "" {
		b.WriteString(p.Name + ": ")
	}
	b.WriteString(p.Message)
	return b.String()
}

// Problems collects every finding of a parse or validation pass.
type Problems []Problem

func (ps Problems) Error() string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, "; ")
}

func (ps Problems) asError(source string) error {
	return errors.Wrapf(ps, errors.ErrManifestInvalid, "manifest %s is invalid", source).
		WithDetail("problems", len(ps))
}

// ProblemsOf extracts the findings carried by a MANIFEST_INVALID error.
func ProblemsOf(err error) Problems {
	for err != nil {
		if ps, ok := err.(Problems); ok {
			return ps
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

var (
	namePattern    = regexp.MustCompile(`^(?i:[A-Z0-9]|[A-Z0-9][A-Z0-9._-]*[A-Z0-9])$`)
	versionPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.+!_-]*(\.\*)?$`)
)

// Validate checks every requirement and reports all problems together.
// An empty manifest is invalid.
func (m *Manifest) Validate() error {
	var problems Problems
	seen := make(map[string]string)

	if len(m.Requirements) == 0 {
		problems = append(problems, Problem{Message: "no requirements listed"})
	}

	for _, r := range m.Requirements {
		report := func(format string, args ...interface{}) {
			problems = append(problems, Problem{Line: r.Line, Name: r.Name, Message: fmt.Sprintf(format, args...)})
		}

		if !namePattern.MatchString(r.Name) {
			report("invalid package name")
			continue
		}
		key := Canonical(r.Name)
		if first, dup := seen[key]; dup {
			report("duplicate of %s", first)
		} else {
			seen[key] = r.Name
		}

		for _, extra := range r.Extras {
			if !namePattern.MatchString(extra) {
				report("invalid extra %q", extra)
			}
		}

		if r.URL != "" {
			if r.Constraint != "" {
				report("a URL requirement cannot carry a version")
			}
			continue
		}

		specs, err := Requirement{Constraint: normalizeConstraint(r.Constraint)}.Specifiers()
		if err != nil {
			report("%v", err)
			continue
		}
		for _, s := range specs {
			if msg := checkSpecifier(s); msg != "" {
				report("%s", msg)
			}
		}
	}

	if len(problems) > 0 {
		source := m.Source
		if source == "" {
			source = "manifest"
		}
		return problems.asError(source)
	}
	return nil
}

func checkSpecifier(s Specifier) string {
	switch s.Op {
	case "===":
		if strings.ContainsAny(s.Version, " \t") || s.Version == "" {
			return fmt.Sprintf("invalid arbitrary version %q", s.Version)
		}
		return ""
	case "==", "!=", "<=", ">=", "<", ">", "~=":
	default:
		return fmt.Sprintf("unknown operator %q", s.Op)
	}

	if !versionPattern.MatchString(s.Version) {
		return fmt.Sprintf("invalid version %q", s.Version)
	}
	if strings.HasSuffix(s.Version, ".*") && s.Op != "==" && s.Op != "!=" {
		return fmt.Sprintf("wildcard version %q is only allowed with == and !=", s.Version)
	}
	if s.Op == "~=" && !strings.Contains(s.Version, ".") {
		return fmt.Sprintf("~= needs at least two release segments, got %q", s.Version)
	}
	return ""
}
