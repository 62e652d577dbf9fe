package installer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pimp-project/pimp-install/pkg/config"
	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/executor"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
	"github.com/pimp-project/pimp-install/pkg/installer"
	"github.com/pimp-project/pimp-install/pkg/internal/hashutil"
	"github.com/pimp-project/pimp-install/pkg/receipt"
	"github.com/pimp-project/pimp-install/pkg/steps"
	"github.com/pimp-project/pimp-install/pkg/testutil"
)

const (
	target    = "/home/ana/PIMP"
	aliasFile = "/home/ana/.bash_aliases"
	rcFile    = "/home/ana/.bashrc"
)

func install(t *testing.T, s *steps.Session, opts installer.Options) *installer.Report {
	t.Helper()
	inst, err := installer.New(s, opts)
	require.NoError(t, err)
	return inst.Run(context.Background())
}

func statuses(r *installer.Report) map[string]installer.Status {
	out := make(map[string]installer.Status, len(r.Results))
	for _, res := range r.Results {
		out[res.Name] = res.Status
	}
	return out
}

type recorder struct {
	started  []string
	finished []installer.StepResult
}

func (r *recorder) StepStarted(name, _ string) { r.started = append(r.started, name) }

func (r *recorder) StepFinished(res installer.StepResult) { r.finished = append(r.finished, res) }

type panicking struct{}

func (panicking) Name() string                   { return "explode" }
func (panicking) Class() errors.ErrorCode        { return errors.ErrFilesystem }
func (panicking) Describe(*steps.Session) string { return "panics" }
func (panicking) Run(context.Context, *steps.Session) (steps.Outcome, error) {
	panic("boom")
}

func TestRun_CleanHost(t *testing.T) {
	env := testutil.NewEnvironment(t)
	obs := &recorder{}
	report := install(t, env.Session(), installer.Options{Observer: obs})

	require.NoError(t, report.Err())
	assert.True(t, report.Succeeded())
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, config.PolicyAbort, report.Policy)
	assert.Len(t, report.Results, len(steps.Names()))
	assert.Equal(t, steps.Names(), obs.started)
	assert.Len(t, obs.finished, len(steps.Names()))

	for _, res := range report.Results {
		assert.Equal(t, installer.StatusOK, res.Status, "%s: %s", res.Name, res.Message)
	}

	assert.Equal(t, testutil.MainWindowForm, env.ReadFile(target+"/Gui_Files/MainWindow.ui"))
	assert.True(t, env.Runner.Ran("python3 -m venv "+target+"/venv"))
	assert.True(t, env.Runner.Ran(target+"/venv/bin/python -m pip install PyQt6>=6.5 numpy>=1.24 pandas matplotlib scipy pyserial"))

	info, err := env.FS.Stat(target + "/pimp.sh")
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0100)

	assert.Equal(t, 1, env.CountLines(aliasFile, "alias pimp='"+target+"/pimp.sh'"))
	assert.Equal(t, 1, env.CountLines(rcFile, "# added by pimp-install"))
}

func TestRun_Twice(t *testing.T) {
	env := testutil.NewEnvironment(t)

	first := install(t, env.Session(), installer.Options{})
	require.NoError(t, first.Err())
	second := install(t, env.Session(), installer.Options{})
	require.NoError(t, second.Err())

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, 1, env.CountLines(aliasFile, "alias pimp="))
	assert.Equal(t, 1, env.CountLines(rcFile, "# added by pimp-install"))

	res, _ := second.Result(steps.CreateVenv)
	assert.Contains(t, res.Message, "reused existing")
}

func TestRun_MissingManifest(t *testing.T) {
	t.Run("continue", func(t *testing.T) {
		env := testutil.NewEnvironment(t)
		require.NoError(t, env.FS.Remove("/work/PIMP/requirements.txt"))

		report := install(t, env.Session(), installer.Options{Policy: config.PolicyContinue})
		got := statuses(report)

		assert.Equal(t, installer.StatusFailed, got[steps.ValidateManifest])
		assert.Equal(t, installer.StatusFailed, got[steps.InstallRequirements])
		assert.Equal(t, installer.StatusOK, got[steps.MarkLauncher])
		assert.Equal(t, installer.StatusOK, got[steps.RegisterAlias])
		assert.Equal(t, 1, env.CountLines(aliasFile, "alias pimp="))

		res, _ := report.Result(steps.ValidateManifest)
		assert.True(t, errors.IsErrorCode(res.Err, errors.ErrDependency))
		assert.True(t, errors.HasErrorCode(res.Err, errors.ErrNotFound))
		assert.False(t, env.Runner.Ran("pip install PyQt6"))

		err := report.Err()
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrDependency))
		assert.Equal(t, report.RunID, errors.GetErrorDetails(err)["run_id"])
	})

	t.Run("abort", func(t *testing.T) {
		env := testutil.NewEnvironment(t)
		require.NoError(t, env.FS.Remove("/work/PIMP/requirements.txt"))

		report := install(t, env.Session(), installer.Options{})
		got := statuses(report)

		assert.Equal(t, installer.StatusOK, got[steps.CopyApp])
		assert.Equal(t, installer.StatusFailed, got[steps.ValidateManifest])
		for _, name := range []string{steps.CreateVenv, steps.DeactivateVenv, steps.MarkLauncher, steps.RegisterAlias, steps.Verify} {
			assert.Equal(t, installer.StatusNotRun, got[name], name)
		}

		res, _ := report.Result(steps.RegisterAlias)
		assert.Equal(t, "aborted after validate-manifest failed", res.Message)
		assert.False(t, env.Runner.Ran("-m venv"))
	})
}

func TestRun_PrivilegeFailureContinues(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.Runner.Fail("usermod", 1, "usermod: Permission denied.\nusermod: cannot lock /etc/group; try again later.")

	report := install(t, env.Session(), installer.Options{Policy: config.PolicyContinue})

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, steps.AddGroup, failed[0].Name)
	assert.True(t, errors.IsErrorCode(failed[0].Err, errors.ErrPrivilege))

	counts := report.Counts()
	assert.Equal(t, len(steps.Names())-1, counts[installer.StatusOK])
	assert.True(t, env.Runner.Ran("pip install PyQt6"))
	assert.True(t, errors.IsErrorCode(report.Err(), errors.ErrPrivilege))
}

func TestRun_DeactivatesAfterAbort(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.Runner.Fail("pip install PyQt6", 1, "ERROR: No matching distribution found for PyQt6>=6.5")
	s := env.Session()

	report := install(t, s, installer.Options{})
	got := statuses(report)

	assert.Equal(t, installer.StatusFailed, got[steps.InstallRequirements])
	assert.Equal(t, installer.StatusOK, got[steps.DeactivateVenv])
	assert.Equal(t, installer.StatusNotRun, got[steps.MarkLauncher])
	assert.False(t, s.Active())
	assert.Equal(t, []string{"HOME=/home/ana", "PATH=/usr/bin:/bin"}, s.Environ)
}

func TestRun_DryRun(t *testing.T) {
	env := testutil.NewEnvironment(t)
	inst, err := installer.New(env.Session(), installer.Options{DryRun: true})
	require.NoError(t, err)

	report := inst.Run(context.Background())
	require.NoError(t, report.Err())
	for _, res := range report.Results {
		assert.Equal(t, installer.StatusPlanned, res.Status, res.Name)
		assert.NotEmpty(t, res.Message, res.Name)
	}

	assert.Empty(t, env.Runner.Calls())
	assert.False(t, filesystem.Exists(env.FS, target))
	require.NoError(t, inst.Record(report, "test"))
	_, err = receipt.Load(env.FS, env.Paths().ReceiptPath())
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestRun_Skip(t *testing.T) {
	env := testutil.NewEnvironment(t)
	report := install(t, env.Session(), installer.Options{Skip: []string{steps.AddGroup, steps.ReloadShell}})

	require.NoError(t, report.Err())
	got := statuses(report)
	assert.Equal(t, installer.StatusSkipped, got[steps.AddGroup])
	assert.Equal(t, installer.StatusSkipped, got[steps.ReloadShell])
	assert.False(t, env.Runner.Ran("usermod"))
	assert.False(t, env.Runner.Ran("bash -c"))
}

func TestNew_RejectsBadOptions(t *testing.T) {
	env := testutil.NewEnvironment(t)

	_, err := installer.New(env.Session(), installer.Options{Skip: []string{"reboot", "add-group"}})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "reboot")

	plan, err := steps.Select(steps.RegisterAlias)
	require.NoError(t, err)
	_, err = installer.New(env.Session(), installer.Options{Steps: plan, Skip: []string{steps.AddGroup}})
	assert.NoError(t, err, "known steps outside the plan are accepted")

	_, err = installer.New(env.Session(), installer.Options{Policy: "retry"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestPlan(t *testing.T) {
	env := testutil.NewEnvironment(t)
	inst, err := installer.New(env.Session(), installer.Options{Skip: []string{steps.Verify}})
	require.NoError(t, err)

	plan := inst.Plan()
	require.Len(t, plan, len(steps.Names()))
	assert.Equal(t, steps.AddGroup, plan[0].Name)
	assert.Equal(t, "python3 -m venv "+target+"/venv", plan[4].Description)
	assert.True(t, plan[len(plan)-1].Skipped)
	assert.Empty(t, env.Runner.Calls())
}

func TestRun_Cancelled(t *testing.T) {
	env := testutil.NewEnvironment(t)
	ctx, cancel := context.WithCancel(context.Background())
	env.Runner.OnFunc(testutil.Response{
		Match: func(cmd executor.Command) bool { return cmd.Name == "python3" },
		Do:    func(executor.Command) { cancel() },
	})

	inst, err := installer.New(env.Session(), installer.Options{Policy: config.PolicyContinue})
	require.NoError(t, err)
	report := inst.Run(ctx)

	got := statuses(report)
	assert.Equal(t, installer.StatusOK, got[steps.CreateVenv])
	assert.Equal(t, installer.StatusNotRun, got[steps.ActivateVenv])
	assert.Equal(t, installer.StatusNotRun, got[steps.Verify])
	assert.True(t, report.Cancelled)
	assert.False(t, report.Succeeded())
	assert.True(t, errors.IsErrorCode(report.Err(), errors.ErrCancelled))
}

func TestRun_PanickingStep(t *testing.T) {
	env := testutil.NewEnvironment(t)
	report := install(t, env.Session(), installer.Options{
		Policy: config.PolicyContinue,
		Steps:  []steps.Step{panicking{}},
	})

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.True(t, errors.IsErrorCode(failed[0].Err, errors.ErrFilesystem))
	assert.True(t, errors.HasErrorCode(failed[0].Err, errors.ErrInternal))
	assert.Contains(t, failed[0].Message, "boom")
}

func TestRecord(t *testing.T) {
	env := testutil.NewEnvironment(t)
	s := env.Session()
	inst, err := installer.New(s, installer.Options{})
	require.NoError(t, err)
	report := inst.Run(context.Background())
	require.NoError(t, inst.Record(report, "1.2.3"))

	rec, err := receipt.Load(env.FS, testutil.StateDir+"/receipt.toml")
	require.NoError(t, err)
	assert.Equal(t, report.RunID, rec.RunID)
	assert.Equal(t, "1.2.3", rec.Version)
	assert.True(t, rec.Succeeded)
	assert.Equal(t, target, rec.App.Target)
	assert.Equal(t, aliasFile, rec.Shell.AliasFile)
	assert.Contains(t, rec.Requirements, "PyQt6>=6.5")
	assert.Equal(t, target+"/requirements.txt", rec.App.Manifest)
	assert.Equal(t, hashutil.Checksum([]byte(testutil.AppFiles["requirements.txt"])), rec.App.ManifestChecksum)
	assert.Len(t, rec.Steps, len(steps.Names()))

	step, ok := rec.Step(steps.Verify)
	require.True(t, ok)
	assert.Equal(t, "ok", step.Status)
}
