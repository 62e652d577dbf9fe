package manifest

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
)

//go:embed embedded/requirements.txt
var defaultRequirements string

// Requirement is one package to install.
type Requirement struct {
	Name   string   `toml:"name" yaml:"name"`
	Extras []string `toml:"extras,omitempty" yaml:"extras,omitempty"`
	// Constraint is a comma separated specifier list such as ">=1.24,<3".
	// A bare version ("3.5") means an exact pin.
	Constraint string `toml:"version,omitempty" yaml:"version,omitempty"`
	Marker     string `toml:"marker,omitempty" yaml:"marker,omitempty"`
	URL        string `toml:"url,omitempty" yaml:"url,omitempty"`

	// Line is the source line for requirement files, zero otherwise.
	Line int `toml:"-" yaml:"-"`
}

// Specifier is one version clause.
type Specifier struct {
	Op      string
	Version string
}

// Manifest is an ordered list of requirements plus pip index options.
type Manifest struct {
	Source         string
	IndexURL       string
	ExtraIndexURLs []string
	Requirements   []Requirement
}

// Default returns the manifest of PIMP's runtime dependencies.
func Default() *Manifest {
	m, err := Parse(strings.NewReader(defaultRequirements), "default")
	if err != nil {
		panic(fmt.Sprintf("embedded requirements are invalid: %v", err))
	}
	return m
}

// DefaultContent returns the embedded default requirements file.
func DefaultContent() string {
	return defaultRequirements
}

// Names returns the requirement names in manifest order.
func (m *Manifest) Names() []string {
	names := make([]string, 0, len(m.Requirements))
	for _, r := range m.Requirements {
		names = append(names, r.Name)
	}
	return names
}

// Len returns the number of requirements.
func (m *Manifest) Len() int {
	return len(m.Requirements)
}

// Args returns the pip install arguments after "install".
func (m *Manifest) Args() []string {
	var args []string
	if m.IndexURL != "" {
		args = append(args, "--index-url", m.IndexURL)
	}
	for _, u := range m.ExtraIndexURLs {
		args = append(args, "--extra-index-url", u)
	}
	for _, r := range m.Requirements {
		args = append(args, r.String())
	}
	return args
}

// String renders the manifest in requirements file format.
func (m *Manifest) String() string {
	var b strings.Builder
	if m.IndexURL != "" {
		fmt.Fprintf(&b, "--index-url %s\n", m.IndexURL)
	}
	for _, u := range m.ExtraIndexURLs {
		fmt.Fprintf(&b, "--extra-index-url %s\n", u)
	}
	for _, r := range m.Requirements {
		b.WriteString(r.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// String renders the requirement as pip accepts it on the command line.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	switch {
	case r.URL != "":
		b.WriteString(" @ " + r.URL)
	case r.Constraint != "":
		b.WriteString(normalizeConstraint(r.Constraint))
	}
	if r.Marker != "" {
		if r.URL != "" {
			b.WriteString(" ")
		}
		b.WriteString("; " + r.Marker)
	}
	return b.String()
}

// Specifiers parses the constraint into clauses.
func (r Requirement) Specifiers() ([]Specifier, error) {
	c := strings.TrimSpace(r.Constraint)
	if c == "" {
		return nil, nil
	}
	c = strings.TrimSuffix(strings.TrimPrefix(c, "("), ")")

	var specs []Specifier
	for _, clause := range strings.Split(c, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			return nil, fmt.Errorf("empty clause in %q", r.Constraint)
		}
		m := specifierPattern.FindStringSubmatch(clause)
		if m == nil {
			return nil, fmt.Errorf("malformed specifier %q", clause)
		}
		op := m[1]
		if op == "" {
			op = "=="
		}
		specs = append(specs, Specifier{Op: op, Version: strings.TrimSpace(m[2])})
	}
	return specs, nil
}

var specifierPattern = regexp.MustCompile(`^(===|==|!=|<=|>=|~=|<|>)?\s*(\S.*)$`)

// normalizeConstraint turns a bare version into an exact pin.
func normalizeConstraint(c string) string {
	c = strings.TrimSpace(c)
	if c != "" && (c[0] >= '0' && c[0] <= '9') {
		return "==" + c
	}
	return c
}

var canonicalSeparators = regexp.MustCompile(`[-_.]+`)

// Canonical normalizes a distribution name for comparison.
func Canonical(name string) string {
	return canonicalSeparators.ReplaceAllString(strings.ToLower(name), "-")
}
