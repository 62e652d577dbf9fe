package pimpinstall

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pimp-project/pimp-install/pkg/errors"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
	"github.com/pimp-project/pimp-install/pkg/installer"
	"github.com/pimp-project/pimp-install/pkg/manifest"
)

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   MsgStatusShort,
		Args:    cobra.NoArgs,
		GroupID: "inspect",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}
			status, err := installer.Inspect(s)
			if err != nil {
				return err
			}
			return r.Status(status)
		},
	}
}

func (a *app) newUninstallCmd() *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:     "uninstall",
		Short:   MsgUninstallShort,
		Long:    MsgUninstallLong,
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
			report, err := installer.Uninstall(s, installer.UninstallOptions{Purge: purge, DryRun: a.dryRun})
			if err != nil {
				return err
			}
			return r.Uninstall(report, a.dryRun)
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, MsgFlagPurge)
	return cmd
}

func (a *app) newManifestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "manifest",
		Short:   MsgManifestShort,
		Args:    cobra.NoArgs,
		GroupID: "inspect",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "check [FILE]",
		Short: MsgCheckShort,
		Long:  MsgManifestLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}

			// The installed copy may not exist yet, so relative manifest
			// paths resolve against the source tree.
			path := s.Config.Manifest.Path
			if len(args) == 1 {
				if path, err = s.Paths.NormalizePath(args[0]); err != nil {
					return err
				}
			} else if path != "" && !filepath.IsAbs(path) {
				path = filepath.Join(s.Paths.SourceDir(), path)
			}

			m, err := manifest.Resolve(s.FS, s.Config, path)
			if err != nil {
				return err
			}
			if err := m.Validate(); err != nil {
				return err
			}
			return r.Manifest(m)
		},
	})

	cmd.AddCommand(a.newManifestInitCmd())
	return cmd
}

func (a *app) newManifestInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: MsgInitShort,
		Long:  MsgManifestInitLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session()
			if err != nil {
				return err
			}
			r, err := a.renderer(cmd)
			if err != nil {
				return err
			}

			path := s.Config.Manifest.Path
			if path == "" {
				return errors.New(errors.ErrInvalidInput, "manifest packages are listed inline in the config")
			}
			if !filepath.IsAbs(path) {
				path = filepath.Join(s.Paths.SourceDir(), path)
			}
			if filesystem.Exists(s.FS, path) && !force {
				return errors.Newf(errors.ErrInvalidInput, "%s already exists", path).
					WithDetail("hint", "use --force to replace it")
			}

			count := manifest.Default().Len()
			if a.dryRun {
				return r.Message(fmt.Sprintf(MsgManifestWouldWrite, count, path))
			}
			if err := filesystem.WriteWithParents(s.FS, path, []byte(manifest.DefaultContent()), 0644); err != nil {
				return errors.Wrapf(err, errors.ErrFilesystem, "failed to write %s", path)
			}
			return r.Message(fmt.Sprintf(MsgManifestWritten, count, path))
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, MsgFlagForce)
	return cmd
}
