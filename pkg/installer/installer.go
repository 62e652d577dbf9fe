package installer

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pimp-project/pimp-install/pkg/config"
	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/logging"
	"github.com/pimp-project/pimp-install/pkg/steps"
)

// Observer is told about step progress as the run goes.
type Observer interface {
	StepStarted(name, description string)
	StepFinished(result StepResult)
}

// Options tune a run.
type Options struct {
	// Policy overrides policy.on_failure when set.
	Policy string
	DryRun bool
	// Skip names steps to report as skipped without running them.
	Skip []string
	// Steps replaces the default plan.
	Steps    []steps.Step
	Observer Observer
}

// Installer runs a plan against a session.
type Installer struct {
	session *steps.Session
	plan    []steps.Step
	policy  string
	dryRun  bool
	skip    map[string]bool
	obs     Observer
	logger  zerolog.Logger
	now     func() time.Time
}

// PlannedStep describes one step of the plan.
type PlannedStep struct {
	Name        string
	Description string
	Skipped     bool
}

// New validates opts and prepares an installer.
func New(session *steps.Session, opts Options) (*Installer, error) {
	plan := opts.Steps
	if plan == nil {
		plan = steps.Default()
	}

	policy := opts.Policy
	if policy == "" {
		policy = session.Config.Policy.OnFailure
	}
	if policy != config.PolicyAbort && policy != config.PolicyContinue {
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown failure policy %q", policy)
	}

	inPlan := make(map[string]bool, len(plan))
	for _, st := range plan {
		inPlan[st.Name()] = true
	}
	// Known steps outside a partial plan are accepted and have no effect.
	skip := make(map[string]bool, len(opts.Skip))
	var unknown []string
	for _, name := range opts.Skip {
		if !inPlan[name] && !steps.Known(name) {
			unknown = append(unknown, name)
			continue
		}
		skip[name] = true
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.Newf(errors.ErrInvalidInput, "unknown step(s) %s", strings.Join(unknown, ", ")).
			WithDetail("known", steps.Names())
	}

	return &Installer{
		session: session,
		plan:    plan,
		policy:  policy,
		dryRun:  opts.DryRun,
		skip:    skip,
		obs:     opts.Observer,
		logger:  logging.GetLogger("installer"),
		now:     time.Now,
	}, nil
}

// Policy is the effective failure policy.
func (i *Installer) Policy() string {
	return i.policy
}

// Plan describes the steps in execution order.
func (i *Installer) Plan() []PlannedStep {
	planned := make([]PlannedStep, len(i.plan))
	for n, st := range i.plan {
		planned[n] = PlannedStep{
			Name:        st.Name(),
			Description: st.Describe(i.session),
			Skipped:     i.skip[st.Name()],
		}
	}
	return planned
}

// Run executes the plan and returns the report. Step failures are in the
// report, not in an error; Report.Err summarizes them.
func (i *Installer) Run(ctx context.Context) *Report {
	report := &Report{
		RunID:     uuid.NewString(),
		Policy:    i.policy,
		DryRun:    i.dryRun,
		StartedAt: i.now(),
	}
	logger := i.logger.With().Str("runId", report.RunID).Str("policy", i.policy).Logger()
	logger.Info().Int("steps", len(i.plan)).Bool("dryRun", i.dryRun).Msg("Installation started")

	halted := ""
	for _, st := range i.plan {
		name := st.Name()

		var result StepResult
		switch {
		case i.dryRun:
			result = StepResult{Name: name, Status: StatusPlanned, Message: st.Describe(i.session)}
		case i.skip[name]:
			result = StepResult{Name: name, Status: StatusSkipped, Message: "skipped on request"}
		case halted != "" && !i.mustFinalize(st):
			result = StepResult{Name: name, Status: StatusNotRun, Message: halted}
		case halted == "" && ctx.Err() != nil:
			halted = "run cancelled"
			report.Cancelled = true
			if i.mustFinalize(st) {
				result = i.runStep(ctx, st, logger)
			} else {
				result = StepResult{Name: name, Status: StatusNotRun, Message: halted}
			}
		default:
			result = i.runStep(ctx, st, logger)
		}

		report.Results = append(report.Results, result)
		if i.obs != nil && result.Status != StatusPlanned {
			i.obs.StepFinished(result)
		}

		if result.Status == StatusFailed && halted == "" {
			switch {
			case errors.IsErrorCode(result.Err, errors.ErrCancelled):
				halted = "run cancelled"
				report.Cancelled = true
			case i.policy == config.PolicyAbort:
				halted = "aborted after " + name + " failed"
			}
		}
	}

	report.FinishedAt = i.now()
	level := zerolog.InfoLevel
	if !report.Succeeded() {
		level = zerolog.WarnLevel
	}
	logger.WithLevel(level).
		Int("failed", len(report.Failed())).
		Dur("duration", report.Duration()).
		Msg("Installation finished")
	return report
}

func (i *Installer) mustFinalize(st steps.Step) bool {
	f, ok := st.(steps.Finalizer)
	return ok && f.Required(i.session)
}

func (i *Installer) runStep(ctx context.Context, st steps.Step, logger zerolog.Logger) StepResult {
	name := st.Name()
	if i.obs != nil {
		i.obs.StepStarted(name, st.Describe(i.session))
	}

	stepLogger := logger.With().Str("step", name).Logger()
	done := logging.LogOperationStart(stepLogger, name)
	start := i.now()

	outcome, err := runSafely(ctx, st, i.session)
	result := StepResult{Name: name, Duration: i.now().Sub(start)}
	done()

	switch {
	case err != nil:
		result.Status = StatusFailed
		result.Err = errors.Classify(err, st.Class(), name+" failed")
		result.Message = result.Err.Error()
		stepLogger.Error().Err(result.Err).Str("class", string(errors.GetErrorCode(result.Err))).Msg("Step failed")
	case outcome.Skipped:
		result.Status = StatusSkipped
		result.Message = outcome.Message
		stepLogger.Info().Str("reason", outcome.Message).Msg("Step skipped")
	default:
		result.Status = StatusOK
		result.Message = outcome.Message
		stepLogger.Info().Str("result", outcome.Message).Msg("Step completed")
	}
	return result
}

// runSafely turns a panicking step into an INTERNAL failure so the policy
// and finalizers still apply.
func runSafely(ctx context.Context, st steps.Step, s *steps.Session) (outcome steps.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrInternal, "step %s panicked: %v", st.Name(), r)
		}
	}()
	return st.Run(ctx, s)
}
