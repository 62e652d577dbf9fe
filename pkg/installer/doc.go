// Package installer runs the ordered installation plan under a failure
// policy and reports what happened to every step.
//
// Under the abort policy the first failing step stops the run; the steps
// after it are reported as not-run, except finalizers such as
// deactivate-venv which still run when their precondition holds. Under the
// continue policy every step runs regardless of earlier failures. A run
// succeeds only when no step failed.
package installer
