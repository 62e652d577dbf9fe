package ui_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pimp-project/pimp-install/pkg/config"
	"github.com/pimp-project/pimp-install/pkg/installer"
	"github.com/pimp-project/pimp-install/pkg/manifest"
	"github.com/pimp-project/pimp-install/pkg/steps"
	"github.com/pimp-project/pimp-install/pkg/testutil"
	"github.com/pimp-project/pimp-install/pkg/ui"
)

func run(t *testing.T, env *testutil.Environment, opts installer.Options) (*steps.Session, *installer.Report) {
	t.Helper()
	s := env.Session()
	inst, err := installer.New(s, opts)
	require.NoError(t, err)
	return s, inst.Run(context.Background())
}

func textRenderer(t *testing.T) (ui.Renderer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	r, err := ui.NewRenderer(ui.FormatText, &buf)
	require.NoError(t, err)
	return r, &buf
}

func TestText_Progress(t *testing.T) {
	env := testutil.NewEnvironment(t)
	r, buf := textRenderer(t)

	_, report := run(t, env, installer.Options{Observer: r.Progress()})
	require.NoError(t, r.Report(report))

	out := buf.String()
	assert.Contains(t, out, "→ copy-app: copy /work/PIMP to /home/ana/PIMP")
	assert.Contains(t, out, "ok       register-alias")
	assert.Contains(t, out, "Installation complete")
	assert.Contains(t, out, "13 steps: 13 ok, 0 skipped, 0 failed, 0 not run")
	assert.NotContains(t, out, "\x1b[", "plain text carries no escape codes")
}

func TestText_ReportWithFailures(t *testing.T) {
	env := testutil.NewEnvironment(t)
	require.NoError(t, env.FS.Remove("/work/PIMP/requirements.txt"))
	r, buf := textRenderer(t)

	_, report := run(t, env, installer.Options{})
	require.NoError(t, r.Report(report))

	out := buf.String()
	assert.Contains(t, out, "Installation finished with failures")
	assert.Contains(t, out, "✗ validate-manifest")
	assert.Contains(t, out, report.RunID)
}

func TestText_DryRun(t *testing.T) {
	env := testutil.NewEnvironment(t)
	r, buf := textRenderer(t)

	_, report := run(t, env, installer.Options{DryRun: true})
	require.NoError(t, r.Report(report))

	out := buf.String()
	assert.Contains(t, out, "Dry run, nothing was changed")
	assert.Contains(t, out, "planned  create-venv")
}

func TestText_Plan(t *testing.T) {
	env := testutil.NewEnvironment(t)
	inst, err := installer.New(env.Session(), installer.Options{Skip: []string{steps.ReloadShell}})
	require.NoError(t, err)
	r, buf := textRenderer(t)

	require.NoError(t, r.Plan(inst.Policy(), inst.Plan()))
	out := buf.String()
	assert.Contains(t, out, "Installation plan (on failure: abort)")
	assert.Contains(t, out, "(skipped) load /home/ana/.bashrc")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), len(steps.Names())+2)
}

func TestText_Status(t *testing.T) {
	env := testutil.NewEnvironment(t)
	r, buf := textRenderer(t)

	status, err := installer.Inspect(env.Session())
	require.NoError(t, err)
	require.NoError(t, r.Status(status))

	out := buf.String()
	assert.Contains(t, out, "No install recorded on this host")
	assert.Contains(t, out, "alias        problem")
}

func TestText_ManifestProblems(t *testing.T) {
	r, buf := textRenderer(t)
	_, err := manifest.Parse(strings.NewReader("numpy\n--trusted-host example.org\n"), "requirements.txt")
	require.Error(t, err)

	require.NoError(t, r.Error(err))
	out := buf.String()
	assert.Contains(t, out, "the manifest has problems")
	assert.Contains(t, out, "line 2: unsupported option --trusted-host")
}

func TestText_Uninstall(t *testing.T) {
	r, buf := textRenderer(t)
	require.NoError(t, r.Uninstall(installer.UninstallReport{Actions: []string{"delete /home/ana/PIMP"}}, true))
	assert.Equal(t, "Would remove:\n  delete /home/ana/PIMP\n", buf.String())

	buf.Reset()
	require.NoError(t, r.Uninstall(installer.UninstallReport{}, false))
	assert.Equal(t, "Nothing to remove\n", buf.String())
}

func TestJSON_Report(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.Runner.Fail("usermod", 1, "usermod: Permission denied.")

	var buf bytes.Buffer
	r, err := ui.NewRenderer(ui.FormatJSON, &buf)
	require.NoError(t, err)
	assert.Nil(t, r.Progress())

	_, report := run(t, env, installer.Options{Policy: config.PolicyContinue})
	require.NoError(t, r.Report(report))

	var decoded struct {
		RunID     string `json:"run_id"`
		Succeeded bool   `json:"succeeded"`
		Steps     []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
			Code   string `json:"code"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.False(t, decoded.Succeeded)
	require.Len(t, decoded.Steps, len(steps.Names()))
	assert.Equal(t, "failed", decoded.Steps[0].Status)
	assert.Equal(t, "PRIVILEGE", decoded.Steps[0].Code)
	assert.Equal(t, "ok", decoded.Steps[1].Status)
}

func TestCompletionNotes(t *testing.T) {
	env := testutil.NewEnvironment(t)
	s, report := run(t, env, installer.Options{})

	notes, err := ui.CompletionNotes(s, report)
	require.NoError(t, err)
	assert.Contains(t, notes, "# PIMP is installed")
	assert.Contains(t, notes, "run `source /home/ana/.bashrc`")
	assert.Contains(t, notes, "ana was added to the `dialout` group")
	assert.Contains(t, notes, "- Settings: `/home/ana/PIMP/DEFAULTS.txt`")

	env = testutil.NewEnvironment(t)
	env.Groups.Add("ana", "dialout")
	s, report = run(t, env, installer.Options{})
	notes, err = ui.CompletionNotes(s, report)
	require.NoError(t, err)
	assert.NotContains(t, notes, "Serial port access")
}
