package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/executor"
)

// Response is a canned reply for commands matching Match.
type Response struct {
	Match  func(cmd executor.Command) bool
	Result executor.Result
	Err    error
	// Do runs before the reply is returned, e.g. to create files the real
	// command would have produced.
	Do func(cmd executor.Command)
}

// FakeRunner records commands and replies from registered responses.
// Unmatched commands succeed with empty output.
type FakeRunner struct {
	mu        sync.Mutex
	calls     []executor.Command
	responses []Response
	missing   map[string]bool
}

var _ executor.Runner = (*FakeRunner)(nil)

// NewFakeRunner returns a runner on which every program exists.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{missing: make(map[string]bool)}
}

// On registers a response for commands whose line contains substr.
// Later registrations win, so tests can override the defaults.
func (f *FakeRunner) On(substr string, result executor.Result, err error) *FakeRunner {
	return f.OnFunc(Response{
		Match:  func(cmd executor.Command) bool { return strings.Contains(cmd.String(), substr) },
		Result: result,
		Err:    err,
	})
}

// OnFunc registers an arbitrary response.
func (f *FakeRunner) OnFunc(r Response) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, r)
	return f
}

// Fail makes commands containing substr fail like a non-zero exit.
func (f *FakeRunner) Fail(substr string, exitCode int, stderr string) *FakeRunner {
	return f.On(substr, executor.Result{ExitCode: exitCode, Stderr: stderr},
		CommandFailure(substr, exitCode, stderr))
}

// Missing makes LookPath and Run report the programs as not installed.
func (f *FakeRunner) Missing(names ...string) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.missing[n] = true
	}
	return f
}

// Run implements executor.Runner.
func (f *FakeRunner) Run(ctx context.Context, cmd executor.Command) (executor.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	missing := f.missing[cmd.Name]
	responses := append([]Response(nil), f.responses...)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return executor.Result{ExitCode: -1}, errors.Wrapf(err, errors.ErrCancelled, "%s cancelled", cmd.Name)
	}
	if missing {
		return executor.Result{ExitCode: -1}, errors.Newf(errors.ErrCommandNotFound, "%s not found", cmd.Name)
	}

	for n := len(responses) - 1; n >= 0; n-- {
		r := responses[n]
		if r.Match(cmd) {
			if r.Do != nil {
				r.Do(cmd)
			}
			return r.Result, r.Err
		}
	}
	return executor.Result{}, nil
}

// LookPath implements executor.Runner.
func (f *FakeRunner) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[name] {
		return "", errors.Newf(errors.ErrCommandNotFound, "%s not found", name)
	}
	return "/usr/bin/" + name, nil
}

// Calls returns the recorded commands in order.
func (f *FakeRunner) Calls() []executor.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]executor.Command(nil), f.calls...)
}

// Commands returns the recorded command lines in order.
func (f *FakeRunner) Commands() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// Ran reports whether a command line containing substr was run.
func (f *FakeRunner) Ran(substr string) bool {
	_, ok := f.Find(substr)
	return ok
}

// Find returns the first recorded command whose line contains substr.
func (f *FakeRunner) Find(substr string) (executor.Command, bool) {
	for _, c := range f.Calls() {
		if strings.Contains(c.String(), substr) {
			return c, true
		}
	}
	return executor.Command{}, false
}

// Reset forgets recorded calls but keeps responses.
func (f *FakeRunner) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// CommandFailure builds the error ExecRunner returns for a non-zero exit.
func CommandFailure(name string, exitCode int, stderr string) error {
	return errors.Newf(errors.ErrCommandFailed, "%s failed", name).
		WithDetail("exit_code", exitCode).
		WithDetail("stderr", stderr)
}

// Env looks up name in a recorded command's environment.
func Env(cmd executor.Command, name string) string {
	prefix := fmt.Sprintf("%s=", name)
	for _, kv := range cmd.Env {
		if strings.HasPrefix(kv, prefix) {
			return strings.TrimPrefix(kv, prefix)
		}
	}
	return ""
}
