package ui

import (
	"bytes"
	_ "embed"
	"text/template"

	"github.com/charmbracelet/glamour"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/installer"
	"github.com/pimp-project/pimp-install/pkg/steps"
)

//go:embed notes.md.tmpl
var notesTemplate string

var notes = template.Must(template.New("notes").Parse(notesTemplate))

// NotesData fills the completion notes.
type NotesData struct {
	AppName       string
	AliasName     string
	AliasFile     string
	SourceCommand string
	GroupAdded    bool
	User          string
	Group         string
	TargetDir     string
	VenvDir       string
	DefaultsFile  string
	ReceiptPath   string
}

// CompletionNotes returns the markdown shown after a successful install.
func CompletionNotes(s *steps.Session, r *installer.Report) (string, error) {
	p := s.Paths
	data := NotesData{
		AppName:       s.Config.App.Name,
		AliasName:     s.Config.Shell.AliasName,
		AliasFile:     p.AliasFile(),
		SourceCommand: "source " + p.RCFile(),
		User:          s.Host.User,
		Group:         s.Config.Group.Name,
		TargetDir:     p.TargetDir(),
		VenvDir:       p.VenvDir(),
		DefaultsFile:  p.DefaultsFilePath(),
		ReceiptPath:   p.ReceiptPath(),
	}
	if res, ok := r.Result(steps.AddGroup); ok && res.Status == installer.StatusOK {
		data.GroupAdded = true
	}

	var buf bytes.Buffer
	if err := notes.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to render completion notes")
	}
	return buf.String(), nil
}

// renderMarkdown styles markdown for the terminal, falling back to the
// raw text when glamour cannot render it.
func renderMarkdown(markdown string, width int) string {
	options := []glamour.TermRendererOption{glamour.WithAutoStyle()}
	if width > 0 {
		options = append(options, glamour.WithWordWrap(width))
	}

	renderer, err := glamour.NewTermRenderer(options...)
	if err != nil {
		return markdown
	}
	rendered, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return rendered
}
