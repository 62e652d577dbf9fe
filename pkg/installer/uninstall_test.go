package installer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
	"github.com/pimp-project/pimp-install/pkg/installer"
	"github.com/pimp-project/pimp-install/pkg/receipt"
	"github.com/pimp-project/pimp-install/pkg/testutil"
)

func installed(t *testing.T) *testutil.Environment {
	t.Helper()
	env := testutil.NewEnvironment(t)
	s := env.Session()
	inst, err := installer.New(s, installer.Options{})
	require.NoError(t, err)
	report := inst.Run(context.Background())
	require.NoError(t, report.Err())
	require.NoError(t, inst.Record(report, "test"))
	return env
}

func TestUninstall_RemovesAlias(t *testing.T) {
	env := installed(t)

	report, err := installer.Uninstall(env.Session(), installer.UninstallOptions{})
	require.NoError(t, err)
	assert.Len(t, report.Actions, 2)

	assert.False(t, filesystem.Exists(env.FS, aliasFile), "alias file only held our alias")
	assert.Equal(t, 0, env.CountLines(rcFile, "# added by pimp-install"))
	assert.True(t, filesystem.Exists(env.FS, target))

	again, err := installer.Uninstall(env.Session(), installer.UninstallOptions{})
	require.NoError(t, err)
	assert.Empty(t, again.Actions)
}

func TestUninstall_KeepsOtherAliases(t *testing.T) {
	env := testutil.NewEnvironment(t)
	env.WriteFiles("/home/ana", map[string]string{
		".bash_aliases": "alias ll='ls -l'\nalias pimp='/home/ana/PIMP/pimp.sh'\n",
		".bashrc":       "[ -f ~/.bash_aliases ] && . ~/.bash_aliases\n",
	})

	_, err := installer.Uninstall(env.Session(), installer.UninstallOptions{})
	require.NoError(t, err)
	assert.Equal(t, "alias ll='ls -l'\n", env.ReadFile(aliasFile))
	assert.Equal(t, "[ -f ~/.bash_aliases ] && . ~/.bash_aliases\n", env.ReadFile(rcFile))
}

func TestUninstall_Purge(t *testing.T) {
	env := installed(t)
	receiptPath := env.Paths().ReceiptPath()

	dry, err := installer.Uninstall(env.Session(), installer.UninstallOptions{Purge: true, DryRun: true})
	require.NoError(t, err)
	assert.Contains(t, dry.Actions, "delete "+target)
	assert.True(t, filesystem.Exists(env.FS, target))
	assert.True(t, filesystem.Exists(env.FS, aliasFile))

	_, err = installer.Uninstall(env.Session(), installer.UninstallOptions{Purge: true})
	require.NoError(t, err)
	assert.False(t, filesystem.Exists(env.FS, target))
	assert.False(t, filesystem.Exists(env.FS, receiptPath))
	assert.True(t, filesystem.Exists(env.FS, "/work/PIMP/main.py"), "sources stay")
}

func TestUninstall_FollowsReceipt(t *testing.T) {
	env := installed(t)

	env.Config.Shell.AliasName = "plot"
	_, err := installer.Uninstall(env.Session(), installer.UninstallOptions{})
	require.NoError(t, err)
	assert.False(t, filesystem.Exists(env.FS, aliasFile), "receipt names the alias that was installed")
}

func TestUninstall_RefusesUnsafePurge(t *testing.T) {
	env := testutil.NewEnvironment(t)
	rec := &receipt.Receipt{RunID: "r1", App: receipt.App{Name: "PIMP", Target: "/home/ana"}}
	require.NoError(t, receipt.Save(env.FS, env.Paths().ReceiptPath(), rec))

	_, err := installer.Uninstall(env.Session(), installer.UninstallOptions{Purge: true})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	assert.True(t, filesystem.Exists(env.FS, "/home/ana"))

	rec.App.Target = "/usr/lib/PIMP"
	require.NoError(t, receipt.Save(env.FS, env.Paths().ReceiptPath(), rec))
	_, err = installer.Uninstall(env.Session(), installer.UninstallOptions{Purge: true})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestUninstall_PurgeStaysBelowHome(t *testing.T) {
	t.Run("configured target outside home", func(t *testing.T) {
		env := testutil.NewEnvironment(t)
		env.Config.App.TargetParent = "/opt"
		env.WriteFiles("/opt/PIMP", map[string]string{"main.py": "print()\n"})

		report, err := installer.Uninstall(env.Session(), installer.UninstallOptions{Purge: true})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
		assert.NotContains(t, report.Actions, "delete /opt/PIMP")
		assert.True(t, filesystem.Exists(env.FS, "/opt/PIMP/main.py"))
	})

	t.Run("app name climbing out of home", func(t *testing.T) {
		env := testutil.NewEnvironment(t)
		env.Config.App.Name = ".."
		env.WriteFiles("/home/bob", map[string]string{"thesis.tex": "\\documentclass{article}\n"})

		_, err := installer.Uninstall(env.Session(), installer.UninstallOptions{Purge: true})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
		assert.True(t, filesystem.Exists(env.FS, "/home/bob/thesis.tex"))
	})
}

func TestInspect(t *testing.T) {
	t.Run("fresh host", func(t *testing.T) {
		env := testutil.NewEnvironment(t)
		status, err := installer.Inspect(env.Session())
		require.NoError(t, err)
		assert.Nil(t, status.Receipt)
		assert.False(t, status.Healthy())
		for _, c := range status.Checks {
			assert.False(t, c.OK, c.Name)
		}
	})

	t.Run("after install", func(t *testing.T) {
		env := installed(t)
		env.Groups.Add("ana", "dialout")

		status, err := installer.Inspect(env.Session())
		require.NoError(t, err)
		require.NotNil(t, status.Receipt)
		assert.True(t, status.Receipt.Succeeded)
		assert.True(t, status.Healthy(), "%+v", status.Checks)

		names := make([]string, len(status.Checks))
		for i, c := range status.Checks {
			names[i] = c.Name
		}
		assert.Equal(t, []string{"application", "environment", "launcher", "alias", "requirements", "group"}, names)
		assert.Equal(t, "6 packages from /home/ana/PIMP/requirements.txt", status.Checks[4].Detail)
	})

	t.Run("requirements changed", func(t *testing.T) {
		env := installed(t)
		env.WriteFiles(target, map[string]string{"requirements.txt": "numpy\n"})

		status, err := installer.Inspect(env.Session())
		require.NoError(t, err)
		assert.False(t, status.Healthy())
		assert.Equal(t, "requirements", status.Checks[4].Name)
		assert.Contains(t, status.Checks[4].Detail, "changed since the last install")
	})

	t.Run("duplicate alias", func(t *testing.T) {
		env := installed(t)
		env.Groups.Add("ana", "dialout")
		env.WriteFiles("/home/ana", map[string]string{
			".bash_aliases": "alias pimp='/home/ana/PIMP/pimp.sh'\nalias pimp='/old/pimp.sh'\n",
		})

		status, err := installer.Inspect(env.Session())
		require.NoError(t, err)
		assert.False(t, status.Healthy())
		assert.Contains(t, status.Checks[3].Detail, "2 times")
	})
}
