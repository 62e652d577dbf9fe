package ui

import (
	"encoding/json"
	"io"
	"time"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/installer"
	"github.com/pimp-project/pimp-install/pkg/manifest"
)

// jsonRenderer writes one JSON document per call.
type jsonRenderer struct {
	encoder *json.Encoder
}

func newJSON(w io.Writer) *jsonRenderer {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return &jsonRenderer{encoder: encoder}
}

type jsonStep struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	Code       string `json:"code,omitempty"`
	DurationMS int64  `json:"duration_ms,omitempty"`
}

type jsonReport struct {
	RunID      string     `json:"run_id"`
	Policy     string     `json:"policy"`
	DryRun     bool       `json:"dry_run"`
	Cancelled  bool       `json:"cancelled"`
	Succeeded  bool       `json:"succeeded"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at"`
	Steps      []jsonStep `json:"steps"`
}

func (j *jsonRenderer) Plan(policy string, plan []installer.PlannedStep) error {
	type planned struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Skipped     bool   `json:"skipped"`
	}
	out := struct {
		Policy string    `json:"policy"`
		Steps  []planned `json:"steps"`
	}{Policy: policy}
	for _, st := range plan {
		out.Steps = append(out.Steps, planned{Name: st.Name, Description: st.Description, Skipped: st.Skipped})
	}
	return j.encoder.Encode(out)
}

func (j *jsonRenderer) Report(r *installer.Report) error {
	out := jsonReport{
		RunID:      r.RunID,
		Policy:     r.Policy,
		DryRun:     r.DryRun,
		Cancelled:  r.Cancelled,
		Succeeded:  r.Succeeded(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	for _, res := range r.Results {
		step := jsonStep{
			Name:       res.Name,
			Status:     string(res.Status),
			Message:    res.Message,
			DurationMS: res.Duration.Milliseconds(),
		}
		if res.Err != nil {
			step.Error = res.Err.Error()
			step.Code = string(errors.GetErrorCode(res.Err))
		}
		out.Steps = append(out.Steps, step)
	}
	return j.encoder.Encode(out)
}

func (j *jsonRenderer) Status(h installer.HostStatus) error {
	type check struct {
		Name   string `json:"name"`
		OK     bool   `json:"ok"`
		Detail string `json:"detail"`
	}
	out := struct {
		Healthy bool        `json:"healthy"`
		Receipt interface{} `json:"receipt,omitempty"`
		Checks  []check     `json:"checks"`
	}{Healthy: h.Healthy()}
	if h.Receipt != nil {
		out.Receipt = h.Receipt
	}
	for _, c := range h.Checks {
		out.Checks = append(out.Checks, check{Name: c.Name, OK: c.OK, Detail: c.Detail})
	}
	return j.encoder.Encode(out)
}

func (j *jsonRenderer) Uninstall(r installer.UninstallReport, dryRun bool) error {
	actions := r.Actions
	if actions == nil {
		actions = []string{}
	}
	return j.encoder.Encode(map[string]interface{}{"dry_run": dryRun, "actions": actions})
}

func (j *jsonRenderer) Manifest(m *manifest.Manifest) error {
	reqs := make([]string, len(m.Requirements))
	for i, r := range m.Requirements {
		reqs[i] = r.String()
	}
	return j.encoder.Encode(map[string]interface{}{
		"source":       m.Source,
		"index_url":    m.IndexURL,
		"requirements": reqs,
	})
}

func (j *jsonRenderer) Notes(markdown string) error {
	return j.encoder.Encode(map[string]string{"notes": markdown})
}

func (j *jsonRenderer) Message(msg string) error {
	return j.encoder.Encode(map[string]string{"message": msg})
}

func (j *jsonRenderer) Error(err error) error {
	out := map[string]interface{}{
		"error": err.Error(),
		"code":  string(errors.GetErrorCode(err)),
	}
	if problems := manifest.ProblemsOf(err); len(problems) > 0 {
		list := make([]string, len(problems))
		for i, p := range problems {
			list[i] = p.String()
		}
		out["problems"] = list
	}
	return j.encoder.Encode(out)
}

func (j *jsonRenderer) Progress() installer.Observer {
	return nil
}
