// Package executor runs external programs for the installer.
//
// Every system change the installer makes outside its own file edits goes
// through a Runner: usermod, the system package manager, python -m venv,
// pip and the shell reload check. ExecRunner is the real implementation;
// tests use testutil.FakeRunner.
//
// Failures are classified with pkg/errors codes so steps can map them to
// the installer's error classes:
//
//   - COMMAND_NOT_FOUND: the program is not on PATH
//   - COMMAND_FAILED: non-zero exit or timeout; Details carry exit_code and stderr
//   - CANCELLED: the context was cancelled (e.g. Ctrl-C)
package executor
