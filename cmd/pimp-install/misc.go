package pimpinstall

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/pimp-project/pimp-install/internal/version"
	"github.com/pimp-project/pimp-install/pkg/config"
	"github.com/pimp-project/pimp-install/pkg/ui"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "config",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		Args:    cobra.NoArgs,
		GroupID: "inspect",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, MsgUserConfigPath+"\n", config.UserConfigPath()); err != nil {
				return err
			}
			_, err := io.WriteString(out, config.DefaultContent())
			return err
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   MsgVersionShort,
		Args:    cobra.NoArgs,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), MsgVersionFormat+"\n", version.Version, version.Commit, version.Date)
			return err
		},
	}
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 MsgCompletionShort,
		Long:                  MsgCompletionLong,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		GroupID:               "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

func newManCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "man",
		Short:   MsgManShort,
		Args:    cobra.NoArgs,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := WriteManPage(cmd.Root(), cmd.OutOrStdout()); err != nil {
				return fmt.Errorf(MsgErrManPage, err)
			}
			return nil
		},
	}
}

// WriteManPage renders the man page of root.
func WriteManPage(root *cobra.Command, w io.Writer) error {
	header := &doc.GenManHeader{
		Title:   "PIMP-INSTALL",
		Section: "1",
		Source:  "pimp-install " + version.Version,
		Manual:  "pimp-install manual",
	}
	return doc.GenMan(root, header, w)
}

// PrintError reports a command failure on w, styled when w is a terminal.
func PrintError(w io.Writer, err error) {
	r, rerr := ui.NewRenderer(ui.DetectFormat(w), w)
	if rerr == nil && r.Error(err) == nil {
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}
