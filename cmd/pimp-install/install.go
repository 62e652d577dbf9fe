package pimpinstall

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pimp-project/pimp-install/internal/version"
	"github.com/pimp-project/pimp-install/pkg/installer"
	"github.com/pimp-project/pimp-install/pkg/steps"
	"github.com/pimp-project/pimp-install/pkg/ui"
)

func (a *app) newInstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "install",
		Short:   MsgInstallShort,
		Long:    MsgInstallLong,
		Example: MsgInstallExample,
		Args:    cobra.NoArgs,
		GroupID: "install",
		RunE:    a.runInstall,
	}
}

func (a *app) runInstall(cmd *cobra.Command, args []string) error {
	return a.run(cmd, nil, true)
}

func (a *app) newPlanCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "plan",
		Short:   MsgPlanShort,
		Long:    MsgPlanLong,
		Args:    cobra.NoArgs,
		GroupID: "install",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}
			inst, err := installer.New(s, installer.Options{Skip: a.skip})
			if err != nil {
				return err
			}
			return r.Plan(inst.Policy(), inst.Plan())
		},
	}
}

func (a *app) newAliasCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "alias",
		Short:   MsgAliasShort,
		Long:    MsgAliasLong,
		Args:    cobra.NoArgs,
		GroupID: "install",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := steps.Select(steps.RegisterAlias, steps.ReloadShell)
			if err != nil {
				return err
			}
			return a.run(cmd, plan, false)
		},
	}
}

// run executes plan, or the full plan when it is nil, and reports the
// outcome. Full installs leave a receipt and end with the completion notes.
func (a *app) run(cmd *cobra.Command, plan []steps.Step, full bool) error {
	s, err := a.session()
	if err != nil {
		return err
	}
	r, err := a.renderer(cmd)
	if err != nil {
		return err
	}

	inst, err := installer.New(s, installer.Options{
		DryRun:   a.dryRun,
		Skip:     a.skip,
		Steps:    plan,
		Observer: r.Progress(),
	})
	if err != nil {
		return err
	}

	report := inst.Run(cmd.Context())

	if full {
		if err := inst.Record(report, version.Version); err != nil {
			log.Warn().Err(err).Msg(MsgReceiptFailed)
		}
	}

	if err := r.Report(report); err != nil {
		return err
	}

	if full && report.Succeeded() && !report.DryRun {
		notes, err := ui.CompletionNotes(s, report)
		if err != nil {
			return err
		}
		if err := r.Notes(notes); err != nil {
			return err
		}
	}

	return report.Err()
}
