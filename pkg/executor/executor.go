package executor

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/logging"
)

// DefaultTimeout bounds a command when neither the command nor the runner sets one.
const DefaultTimeout = 10 * time.Minute

// stderrTail caps the stderr kept in error details.
const stderrTail = 2048

// Command describes one external program invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env is the complete environment; nil inherits the installer's.
	Env     []string
	Timeout time.Duration
}

// String renders the command line for logs and dry-run output.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result captures a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
	LookPath(name string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger  zerolog.Logger
	timeout time.Duration
	output  io.Writer
}

// NewExecRunner creates a runner. A zero timeout selects DefaultTimeout.
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{
		logger:  logging.GetLogger("executor"),
		timeout: timeout,
	}
}

// WithOutput streams command output to w while it is captured.
func (r *ExecRunner) WithOutput(w io.Writer) *ExecRunner {
	r.output = w
	return r
}

// LookPath resolves name on PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCommandNotFound, "%s not found", name)
	}
	return path, nil
}

// Run executes cmd and waits for it.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = r.timeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logging.LogCommand(cmd.Name, cmd.Args)

	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	if cmd.Dir != "" {
		if _, err := os.Stat(cmd.Dir); err != nil {
			return Result{}, errors.Wrapf(err, errors.ErrFilesystem, "working directory %s", cmd.Dir)
		}
		c.Dir = cmd.Dir
	}
	if cmd.Env != nil {
		c.Env = cmd.Env
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if r.output != nil {
		c.Stdout = io.MultiWriter(&stdout, r.output)
		c.Stderr = io.MultiWriter(&stderr, r.output)
	}

	start := time.Now()
	err := c.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode(c, err),
		Duration: time.Since(start),
	}

	if err == nil {
		r.logger.Debug().
			Str("command", cmd.Name).
			Dur("duration", res.Duration).
			Msg("Command finished")
		return res, nil
	}

	classified := classify(ctx, cmd, res, err)
	r.logger.Error().
		Err(classified).
		Str("command", cmd.String()).
		Int("exitCode", res.ExitCode).
		Str("stderr", tail(res.Stderr)).
		Msg("Command execution failed")
	return res, classified
}

func exitCode(c *exec.Cmd, err error) int {
	if c.ProcessState != nil {
		return c.ProcessState.ExitCode()
	}
	if err != nil {
		return -1
	}
	return 0
}

func classify(ctx context.Context, cmd Command, res Result, err error) error {
	switch {
	case stderrors.Is(err, exec.ErrNotFound):
		return errors.Wrapf(err, errors.ErrCommandNotFound, "%s not found", cmd.Name)
	case stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.Wrapf(err, errors.ErrCommandFailed, "%s timed out", cmd.Name).
			WithDetail("exit_code", res.ExitCode)
	case stderrors.Is(ctx.Err(), context.Canceled):
		return errors.Wrapf(err, errors.ErrCancelled, "%s cancelled", cmd.Name)
	}

	return errors.Wrapf(err, errors.ErrCommandFailed, "%s failed", cmd.Name).
		WithDetails(map[string]interface{}{
			"exit_code": res.ExitCode,
			"stderr":    tail(res.Stderr),
		})
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= stderrTail {
		return s
	}
	return s[len(s)-stderrTail:]
}

// Stderr returns the captured stderr attached to a COMMAND_FAILED error,
// looking through any errors wrapping it.
func Stderr(err error) string {
	for ; err != nil; err = stderrors.Unwrap(err) {
		if s, ok := errors.GetErrorDetails(err)["stderr"].(string); ok {
			return s
		}
	}
	return ""
}
