package executor_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/executor"
)

func TestExecRunner_Success(t *testing.T) {
	r := executor.NewExecRunner(time.Minute)

	res, err := r.Run(context.Background(), executor.Command{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecRunner_StreamsOutput(t *testing.T) {
	var buf bytes.Buffer
	r := executor.NewExecRunner(time.Minute).WithOutput(&buf)

	_, err := r.Run(context.Background(), executor.Command{Name: "sh", Args: []string{"-c", "echo streamed"}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "streamed")
}

func TestExecRunner_EnvAndDir(t *testing.T) {
	dir := t.TempDir()
	r := executor.NewExecRunner(time.Minute)

	res, err := r.Run(context.Background(), executor.Command{
		Name: "sh",
		Args: []string{"-c", `echo "$VIRTUAL_ENV:$(pwd)"`},
		Dir:  dir,
		Env:  []string{"VIRTUAL_ENV=/v", "PATH=/usr/bin:/bin"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "/v:")
}

func TestExecRunner_Failures(t *testing.T) {
	r := executor.NewExecRunner(time.Minute)

	t.Run("non-zero exit", func(t *testing.T) {
		res, err := r.Run(context.Background(), executor.Command{
			Name: "sh",
			Args: []string{"-c", "echo 'No matching distribution' >&2; exit 3"},
		})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrCommandFailed))
		assert.Equal(t, 3, res.ExitCode)
		assert.Equal(t, 3, errors.GetErrorDetails(err)["exit_code"])
		assert.Contains(t, executor.Stderr(err), "No matching distribution")
	})

	t.Run("missing program", func(t *testing.T) {
		_, err := r.Run(context.Background(), executor.Command{Name: "definitely-not-a-real-binary-pimp"})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrCommandNotFound))
	})

	t.Run("timeout", func(t *testing.T) {
		_, err := r.Run(context.Background(), executor.Command{
			Name:    "sleep",
			Args:    []string{"5"},
			Timeout: 50 * time.Millisecond,
		})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrCommandFailed))
		assert.Contains(t, err.Error(), "timed out")
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := r.Run(ctx, executor.Command{Name: "sleep", Args: []string{"5"}})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrCancelled))
	})

	t.Run("missing working directory", func(t *testing.T) {
		_, err := r.Run(context.Background(), executor.Command{Name: "true", Dir: "/does/not/exist"})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrFilesystem))
	})
}

func TestExecRunner_LookPath(t *testing.T) {
	r := executor.NewExecRunner(0)

	path, err := r.LookPath("sh")
	require.NoError(t, err)
	assert.NotEmpty(t, path)

	_, err = r.LookPath("definitely-not-a-real-binary-pimp")
	assert.True(t, errors.IsErrorCode(err, errors.ErrCommandNotFound))
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "pip", executor.Command{Name: "pip"}.String())
	assert.Equal(t, "pip install numpy", executor.Command{Name: "pip", Args: []string{"install", "numpy"}}.String())
}
