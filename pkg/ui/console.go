package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/installer"
	"github.com/pimp-project/pimp-install/pkg/manifest"
)

// console renders for people, styled on terminals and plain otherwise.
type console struct {
	w     io.Writer
	rich  bool
	style Styles
}

func newConsole(w io.Writer, rich bool) *console {
	c := &console{w: w, rich: rich, style: PlainStyles()}
	if rich {
		c.style = NewStyles(lipgloss.NewRenderer(w))
	}
	return c
}

func (c *console) println(s string) error {
	_, err := fmt.Fprintln(c.w, s)
	return err
}

func (c *console) stepLine(res installer.StepResult) string {
	status := c.style.Indicator(res.Status)
	if !c.rich {
		status = fmt.Sprintf("%-8s", res.Status)
	}
	line := fmt.Sprintf("%s %-21s %s", status, res.Name, c.style.ForStatus(res.Status).Render(res.Message))
	if res.Duration >= time.Second {
		line += " " + c.style.Muted.Render("("+res.Duration.Round(100*time.Millisecond).String()+")")
	}
	return line
}

// table renders rows with pterm on terminals and as aligned columns otherwise.
func (c *console) table(rows [][]string) (string, error) {
	if c.rich {
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Srender()
	}

	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				continue
			}
			fmt.Fprintf(&b, "%-*s  ", widths[i], cell)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (c *console) Plan(policy string, plan []installer.PlannedStep) error {
	rows := [][]string{{"#", "Step", "Action"}}
	for i, st := range plan {
		action := st.Description
		if st.Skipped {
			action = "(skipped) " + action
		}
		rows = append(rows, []string{fmt.Sprint(i + 1), st.Name, action})
	}
	out, err := c.table(rows)
	if err != nil {
		return err
	}
	if err := c.println(c.style.Title.Render("Installation plan") + c.style.Muted.Render(" (on failure: "+policy+")")); err != nil {
		return err
	}
	return c.println(out)
}

func (c *console) Report(r *installer.Report) error {
	if r.DryRun {
		if err := c.println(c.style.Title.Render("Dry run, nothing was changed")); err != nil {
			return err
		}
		for _, res := range r.Results {
			if err := c.println(c.stepLine(res)); err != nil {
				return err
			}
		}
		return nil
	}

	counts := r.Counts()
	summary := fmt.Sprintf("%d steps: %d ok, %d skipped, %d failed, %d not run",
		len(r.Results), counts[installer.StatusOK], counts[installer.StatusSkipped],
		counts[installer.StatusFailed], counts[installer.StatusNotRun])

	var head string
	switch {
	case r.Cancelled:
		head = c.style.Warning.Render("Installation cancelled")
	case r.Succeeded():
		head = c.style.Success.Render("Installation complete")
	default:
		head = c.style.Error.Render("Installation finished with failures")
	}

	lines := []string{head, summary}
	for _, res := range r.Failed() {
		lines = append(lines, c.style.Error.Render("✗ "+res.Name)+": "+res.Message)
	}
	lines = append(lines, c.style.Muted.Render(fmt.Sprintf("run %s, %s",
		r.RunID, r.Duration().Round(time.Second))))

	return c.println(c.style.Box.Render(strings.Join(lines, "\n")))
}

func (c *console) Status(h installer.HostStatus) error {
	if h.Receipt != nil {
		rec := h.Receipt
		result := "succeeded"
		if !rec.Succeeded {
			result = "failed"
		}
		line := fmt.Sprintf("Last install %s on %s (run %s)", result,
			rec.FinishedAt.Local().Format("2006-01-02 15:04"), rec.RunID)
		if err := c.println(c.style.Title.Render(line)); err != nil {
			return err
		}
	} else if err := c.println(c.style.Muted.Render("No install recorded on this host")); err != nil {
		return err
	}

	rows := [][]string{{"Check", "State", "Detail"}}
	for _, chk := range h.Checks {
		state := "ok"
		if !chk.OK {
			state = "problem"
		}
		rows = append(rows, []string{chk.Name, state, chk.Detail})
	}
	out, err := c.table(rows)
	if err != nil {
		return err
	}
	return c.println(out)
}

func (c *console) Uninstall(r installer.UninstallReport, dryRun bool) error {
	if len(r.Actions) == 0 {
		return c.println("Nothing to remove")
	}
	verb := "Removed"
	if dryRun {
		verb = "Would remove"
	}
	if err := c.println(c.style.Title.Render(verb + ":")); err != nil {
		return err
	}
	for _, a := range r.Actions {
		if err := c.println("  " + a); err != nil {
			return err
		}
	}
	return nil
}

func (c *console) Manifest(m *manifest.Manifest) error {
	if err := c.println(c.style.Success.Render(fmt.Sprintf("%s: %d requirements", m.Source, m.Len()))); err != nil {
		return err
	}
	if m.IndexURL != "" {
		if err := c.println("  index " + c.style.Path.Render(m.IndexURL)); err != nil {
			return err
		}
	}
	for _, req := range m.Requirements {
		if err := c.println("  " + req.String()); err != nil {
			return err
		}
	}
	return nil
}

func (c *console) Notes(markdown string) error {
	if c.rich {
		markdown = renderMarkdown(markdown, 0)
	}
	_, err := io.WriteString(c.w, markdown)
	return err
}

func (c *console) Message(msg string) error {
	return c.println(msg)
}

func (c *console) Error(err error) error {
	head := c.style.Error.Render("Error")

	problems := manifest.ProblemsOf(err)
	if len(problems) == 0 {
		return c.println(head + " " + err.Error())
	}

	if e := c.println(head + " " + c.style.Muted.Render("["+string(errors.GetErrorCode(err))+"]") +
		" the manifest has problems:"); e != nil {
		return e
	}
	for _, p := range problems {
		if e := c.println("  " + c.style.Warning.Render("•") + " " + p.String()); e != nil {
			return e
		}
	}
	return nil
}

func (c *console) Progress() installer.Observer {
	return &progress{c: c}
}

// progress prints each step as it starts and finishes.
type progress struct {
	c *console
}

func (p *progress) StepStarted(name, description string) {
	_ = p.c.println(p.c.style.Muted.Render("→ " + name + ": " + description))
}

func (p *progress) StepFinished(res installer.StepResult) {
	_ = p.c.println(p.c.stepLine(res))
}
