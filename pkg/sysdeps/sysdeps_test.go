package sysdeps_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pimp-project/pimp-install/pkg/config"
	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/executor"
	"github.com/pimp-project/pimp-install/pkg/sysdeps"
	"github.com/pimp-project/pimp-install/pkg/testutil"
)

func TestElevation(t *testing.T) {
	usermod := sysdeps.AddToGroupCommand("ana", "dialout")

	tests := []struct {
		mode string
		root bool
		want string
	}{
		{config.SudoAuto, false, "sudo usermod -a -G dialout ana"},
		{config.SudoAuto, true, "usermod -a -G dialout ana"},
		{config.SudoAlways, true, "sudo usermod -a -G dialout ana"},
		{config.SudoNever, false, "usermod -a -G dialout ana"},
	}
	for _, tt := range tests {
		e := sysdeps.Elevation{Mode: tt.mode, Root: tt.root}
		assert.Equal(t, tt.want, e.Wrap(usermod).String(), "%s root=%v", tt.mode, tt.root)
	}

	assert.Equal(t, "usermod", usermod.Name, "Wrap leaves the original command alone")
}

func TestElevationCheck(t *testing.T) {
	runner := testutil.NewFakeRunner().Missing("sudo")

	err := sysdeps.Elevation{Mode: config.SudoAuto}.Check(runner)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPrivilege))

	assert.NoError(t, sysdeps.Elevation{Mode: config.SudoAuto, Root: true}.Check(runner))
	assert.NoError(t, sysdeps.Elevation{Mode: config.SudoNever}.Check(runner))
}

func TestIsPrivilegeFailure(t *testing.T) {
	tests := []struct {
		stderr string
		want   bool
	}{
		{"usermod: Permission denied.\nusermod: cannot lock /etc/passwd; try again later.", true},
		{"sudo: a terminal is required to read the password", true},
		{"E: Could not open lock file /var/lib/dpkg/lock-frontend", true},
		{"error: you cannot perform this operation unless you are root.", true},
		{"E: Unable to locate package python3-venv", false},
		{"", false},
	}
	for _, tt := range tests {
		err := testutil.CommandFailure("cmd", 1, tt.stderr)
		assert.Equal(t, tt.want, sysdeps.IsPrivilegeFailure(err), tt.stderr)
	}

	assert.False(t, sysdeps.IsPrivilegeFailure(nil))
	assert.True(t, sysdeps.IsPrivilegeFailure(errors.New(errors.ErrPrivilege, "no sudo")))
}

func TestClassifyPrivileged(t *testing.T) {
	denied := testutil.CommandFailure("usermod", 1, "usermod: Permission denied.")
	err := sysdeps.ClassifyPrivileged(denied, errors.ErrDependency, "usermod failed")
	assert.True(t, errors.IsErrorCode(err, errors.ErrPrivilege))

	other := testutil.CommandFailure("apt-get", 100, "E: Unable to locate package foo")
	err = sysdeps.ClassifyPrivileged(other, errors.ErrDependency, "install failed")
	assert.True(t, errors.IsErrorCode(err, errors.ErrDependency))
	assert.Equal(t, "E: Unable to locate package foo", executor.Stderr(err))

	assert.NoError(t, sysdeps.ClassifyPrivileged(nil, errors.ErrDependency, "x"))
}

func TestDetect(t *testing.T) {
	t.Run("auto picks the first available", func(t *testing.T) {
		runner := testutil.NewFakeRunner().Missing("apt-get")
		m, err := sysdeps.Detect(runner, "auto")
		require.NoError(t, err)
		assert.Equal(t, "dnf", m.Name)
	})

	t.Run("explicit manager", func(t *testing.T) {
		m, err := sysdeps.Detect(testutil.NewFakeRunner(), "pacman")
		require.NoError(t, err)
		assert.Equal(t, "pacman", m.Name)
	})

	t.Run("explicit manager missing", func(t *testing.T) {
		_, err := sysdeps.Detect(testutil.NewFakeRunner().Missing("pacman"), "pacman")
		assert.True(t, errors.IsErrorCode(err, errors.ErrDependency))
	})

	t.Run("unknown manager", func(t *testing.T) {
		_, err := sysdeps.Detect(testutil.NewFakeRunner(), "zypper")
		assert.True(t, errors.IsErrorCode(err, errors.ErrConfigValid))
	})

	t.Run("none available", func(t *testing.T) {
		_, err := sysdeps.Detect(testutil.NewFakeRunner().Missing("apt-get", "dnf", "pacman"), "")
		assert.True(t, errors.IsErrorCode(err, errors.ErrDependency))
	})
}

func TestManagerCommands(t *testing.T) {
	tests := []struct {
		manager string
		query   string
		install string
	}{
		{"apt", "dpkg-query -W -f=${Status} python3-venv", "apt-get install -y -q python3-venv"},
		{"dnf", "rpm -q python3", "dnf install -y python3"},
		{"pacman", "pacman -Q python", "pacman -S --noconfirm --needed python"},
	}
	for _, tt := range tests {
		m, ok := sysdeps.Lookup(tt.manager)
		require.True(t, ok, tt.manager)
		assert.Equal(t, tt.query, m.QueryCommand("python3-venv").String())
		assert.Equal(t, tt.install, m.InstallCommand("python3-venv").String())
	}
	assert.Equal(t, []string{"apt", "dnf", "pacman"}, sysdeps.Names())
}

func TestInstalled(t *testing.T) {
	ctx := context.Background()
	apt, _ := sysdeps.Lookup("apt")

	runner := testutil.NewFakeRunner().On("dpkg-query", executor.Result{Stdout: "install ok installed"}, nil)
	ok, err := apt.Installed(ctx, runner, "python3-venv")
	require.NoError(t, err)
	assert.True(t, ok)

	runner = testutil.NewFakeRunner().On("dpkg-query", executor.Result{Stdout: "deinstall ok config-files"}, nil)
	ok, err = apt.Installed(ctx, runner, "python3-venv")
	require.NoError(t, err)
	assert.False(t, ok, "removed but not purged counts as absent")

	runner = testutil.NewFakeRunner().Fail("dpkg-query", 1, "dpkg-query: no packages found matching python3-venv")
	ok, err = apt.Installed(ctx, runner, "python3-venv")
	require.NoError(t, err)
	assert.False(t, ok)

	runner = testutil.NewFakeRunner().Missing("dpkg-query")
	_, err = apt.Installed(ctx, runner, "python3-venv")
	assert.True(t, errors.IsErrorCode(err, errors.ErrDependency))
}

func TestEnsure(t *testing.T) {
	ctx := context.Background()
	dnf, _ := sysdeps.Lookup("dnf")
	elevation := sysdeps.Elevation{Mode: config.SudoAuto}

	t.Run("present", func(t *testing.T) {
		runner := testutil.NewFakeRunner()
		ran, err := dnf.Ensure(ctx, runner, elevation, "python3-venv")
		require.NoError(t, err)
		assert.False(t, ran)
		assert.Equal(t, []string{"rpm -q python3"}, runner.Commands())
	})

	t.Run("absent", func(t *testing.T) {
		runner := testutil.NewFakeRunner().Fail("rpm -q", 1, "package python3 is not installed")
		ran, err := dnf.Ensure(ctx, runner, elevation, "python3-venv")
		require.NoError(t, err)
		assert.True(t, ran)
		assert.Equal(t, []string{"rpm -q python3", "sudo dnf install -y python3"}, runner.Commands())
	})

	t.Run("sudo missing", func(t *testing.T) {
		runner := testutil.NewFakeRunner().Fail("rpm -q", 1, "").Missing("sudo")
		_, err := dnf.Ensure(ctx, runner, elevation, "python3-venv")
		assert.True(t, errors.IsErrorCode(err, errors.ErrPrivilege))
		assert.False(t, runner.Ran("dnf install"))
	})

	t.Run("cancelled", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := dnf.Ensure(cancelled, testutil.NewFakeRunner(), elevation, "python3-venv")
		assert.True(t, errors.IsErrorCode(err, errors.ErrCancelled))
	})
}

func TestAddToGroupCommand(t *testing.T) {
	cmd := sysdeps.AddToGroupCommand("ana", "dialout")
	assert.Equal(t, "usermod", cmd.Name)
	assert.Equal(t, []string{"-a", "-G", "dialout", "ana"}, cmd.Args)
}
