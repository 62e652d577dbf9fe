package manifest

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/pimp-project/pimp-install/pkg/config"
	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
)

var requirementPattern = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[([^\]]*)\])?\s*(.*)$`)

// Parse reads the pip requirements file format. Structural problems on any
// line are collected and returned together.
func Parse(r io.Reader, source string) (*Manifest, error) {
	m := &Manifest{Source: source}
	var problems Problems

	scanner := bufio.NewScanner(r)
	lineNo, startLine := 0, 0
	var pending strings.Builder

	flush := func() {
		line := strings.TrimSpace(stripComment(pending.String()))
		pending.Reset()
		if line == "" {
			return
		}
		if err := m.parseLine(line, startLine); err != nil {
			problems = append(problems, Problem{Line: startLine, Message: err.Error()})
		}
	}

	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		if pending.Len() == 0 {
			startLine = lineNo
		}
		if strings.HasSuffix(text, `\`) {
			pending.WriteString(strings.TrimSuffix(text, `\`))
			pending.WriteByte(' ')
			continue
		}
		pending.WriteString(text)
		flush()
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFilesystem, "failed to read manifest %s", source)
	}
	flush()

	if len(problems) > 0 {
		return nil, problems.asError(source)
	}
	return m, nil
}

// stripComment drops a '#' comment that starts a line or follows whitespace.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		if line[i] == '#' && (i == 0 || line[i-1] == ' ' || line[i-1] == '\t') {
			return line[:i]
		}
	}
	return line
}

func (m *Manifest) parseLine(line string, lineNo int) error {
	if strings.HasPrefix(line, "-") {
		return m.parseOption(line)
	}

	req := Requirement{Line: lineNo}

	if i := strings.Index(line, ";"); i >= 0 {
		req.Marker = strings.TrimSpace(line[i+1:])
		line = strings.TrimSpace(line[:i])
		if req.Marker == "" {
			return fmt.Errorf("empty environment marker")
		}
	}

	if i := strings.Index(line, "@"); i >= 0 && !strings.Contains(line[:i], "=") {
		req.URL = strings.TrimSpace(line[i+1:])
		line = strings.TrimSpace(line[:i])
		if req.URL == "" {
			return fmt.Errorf("empty URL for %q", line)
		}
	}

	match := requirementPattern.FindStringSubmatch(line)
	if match == nil {
		return fmt.Errorf("cannot parse requirement %q", line)
	}
	req.Name = match[1]
	if match[2] != "" {
		for _, extra := range strings.Split(match[2], ",") {
			req.Extras = append(req.Extras, strings.TrimSpace(extra))
		}
	}
	req.Constraint = strings.TrimSpace(match[3])
	if req.URL != "" && req.Constraint != "" {
		return fmt.Errorf("%s: a URL requirement cannot carry a version", req.Name)
	}

	m.Requirements = append(m.Requirements, req)
	return nil
}

func (m *Manifest) parseOption(line string) error {
	name, value := line, ""
	if i := strings.IndexAny(line, "= \t"); i >= 0 {
		name, value = line[:i], strings.TrimSpace(line[i+1:])
	}

	switch name {
	case "-i", "--index-url":
		if value == "" {
			return fmt.Errorf("%s requires a URL", name)
		}
		m.IndexURL = value
	case "--extra-index-url":
		if value == "" {
			return fmt.Errorf("%s requires a URL", name)
		}
		m.ExtraIndexURLs = append(m.ExtraIndexURLs, value)
	default:
		return fmt.Errorf("unsupported option %s", name)
	}
	return nil
}

// document is the TOML and YAML manifest layout.
type document struct {
	IndexURL       string        `toml:"index_url" yaml:"index_url"`
	ExtraIndexURLs []string      `toml:"extra_index_urls" yaml:"extra_index_urls"`
	Packages       []Requirement `toml:"packages" yaml:"packages"`
}

// Load reads a manifest file, choosing the format from its extension:
// .toml, .yaml and .yml are structured documents, anything else is a pip
// requirements file.
func Load(fsys filesystem.FS, path string) (*Manifest, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if filesystem.Exists(fsys, path) {
			return nil, errors.Wrapf(err, errors.ErrFilesystem, "failed to read manifest %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrNotFound, "manifest %s not found", path)
	}

	var doc document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrapf(err, errors.ErrManifestInvalid, "failed to parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrapf(err, errors.ErrManifestInvalid, "failed to parse %s", path)
		}
	default:
		return Parse(strings.NewReader(string(data)), path)
	}

	return &Manifest{
		Source:         path,
		IndexURL:       doc.IndexURL,
		ExtraIndexURLs: doc.ExtraIndexURLs,
		Requirements:   doc.Packages,
	}, nil
}

// FromConfig builds a manifest from [[manifest.packages]] entries.
func FromConfig(pkgs []config.Package) *Manifest {
	m := &Manifest{Source: "config"}
	for _, p := range pkgs {
		m.Requirements = append(m.Requirements, Requirement{
			Name:       strings.TrimSpace(p.Name),
			Constraint: strings.TrimSpace(p.Version),
		})
	}
	return m
}

// Resolve loads the manifest the configuration points at: the file at
// path when it is set, otherwise the inline packages.
func Resolve(fsys filesystem.FS, cfg *config.Config, path string) (*Manifest, error) {
	if path != "" {
		return Load(fsys, path)
	}
	if len(cfg.Manifest.Packages) == 0 {
		return nil, errors.New(errors.ErrNotFound, "no manifest file configured and manifest.packages is empty")
	}
	return FromConfig(cfg.Manifest.Packages), nil
}
