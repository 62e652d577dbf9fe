package pimpinstall

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pimp-project/pimp-install/internal/version"
	"github.com/pimp-project/pimp-install/pkg/cobrax/topics"
	"github.com/pimp-project/pimp-install/pkg/config"
	"github.com/pimp-project/pimp-install/pkg/executor"
	"github.com/pimp-project/pimp-install/pkg/filesystem"
	"github.com/pimp-project/pimp-install/pkg/logging"
	"github.com/pimp-project/pimp-install/pkg/paths"
	"github.com/pimp-project/pimp-install/pkg/steps"
	"github.com/pimp-project/pimp-install/pkg/sysdeps"
	"github.com/pimp-project/pimp-install/pkg/ui"
)

//go:embed topics/*.md
var topicFiles embed.FS

// Deps are the host services the commands act on. Zero fields select the
// real host.
type Deps struct {
	FS      filesystem.FS
	Runner  executor.Runner
	Groups  sysdeps.GroupDB
	Host    func() (paths.Host, error)
	Environ func() []string

	// SetupLogging configures the global logger for the -v count.
	SetupLogging func(verbosity int)
}

func (d Deps) withDefaults() Deps {
	if d.FS == nil {
		d.FS = filesystem.NewOS()
	}
	if d.Groups == nil {
		d.Groups = sysdeps.OSGroups{}
	}
	if d.Host == nil {
		d.Host = paths.HostFromEnv
	}
	if d.Environ == nil {
		d.Environ = os.Environ
	}
	if d.SetupLogging == nil {
		d.SetupLogging = logging.SetupLogger
	}
	return d
}

// app holds the global flags and the dependencies shared by all commands.
type app struct {
	deps Deps

	verbosity       int
	configFile      string
	format          string
	source          string
	dryRun          bool
	continueOnError bool
	skip            []string
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	return NewRootCmdWithDeps(Deps{})
}

// NewRootCmdWithDeps creates the root command acting on deps.
func NewRootCmdWithDeps(deps Deps) *cobra.Command {
	// Initialize custom template formatting functions
	initTemplateFormatting()

	a := &app{deps: deps.withDefaults()}

	rootCmd := &cobra.Command{
		Use:     "pimp-install",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Example: MsgInstallExample,
		Version: version.Version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.deps.SetupLogging(a.verbosity)
			log.Debug().Str("command", cmd.Name()).Msg(MsgCommandStarted)
		},
		// Without a command, install.
		RunE:              a.runInstall,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&a.verbosity, "verbose", "v", MsgFlagVerbose)
	flags.StringVar(&a.configFile, "config", "", MsgFlagConfig)
	flags.StringVar(&a.format, "format", "auto", MsgFlagFormat)
	flags.StringVar(&a.source, "source", "", MsgFlagSource)
	flags.BoolVar(&a.dryRun, "dry-run", false, MsgFlagDryRun)
	flags.BoolVar(&a.continueOnError, "continue-on-error", false, MsgFlagContinueOnError)
	flags.StringArrayVar(&a.skip, "skip", nil, MsgFlagSkip)
	_ = rootCmd.RegisterFlagCompletionFunc("skip", stepNamesCompletion)

	// Define command groups
	rootCmd.AddGroup(&cobra.Group{ID: "install", Title: "INSTALL:"})
	rootCmd.AddGroup(&cobra.Group{ID: "inspect", Title: "INSPECT:"})
	rootCmd.AddGroup(&cobra.Group{ID: "misc", Title: "MISC:"})

	// Set custom help template
	rootCmd.SetUsageTemplate(MsgUsageTemplate)

	rootCmd.AddCommand(a.newInstallCmd())
	rootCmd.AddCommand(a.newPlanCmd())
	rootCmd.AddCommand(a.newAliasCmd())
	rootCmd.AddCommand(a.newUninstallCmd())
	rootCmd.AddCommand(a.newStatusCmd())
	rootCmd.AddCommand(a.newManifestCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCompletionCmd())
	rootCmd.AddCommand(newManCmd())

	// Help topics ship inside the binary.
	topicFS, err := fs.Sub(topicFiles, "topics")
	if err == nil {
		_, err = topics.Initialize(rootCmd, topicFS, topics.Options{
			Extensions: []string{".md"},
			Renderer:   topics.NewGlamourRenderer(),
		})
	}
	if err != nil {
		log.Warn().Err(err).Msg("Help topics unavailable")
	}

	return rootCmd
}

// session loads the configuration and resolves the paths a command works
// with.
func (a *app) session() (*steps.Session, error) {
	host, err := a.deps.Host()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.LoadOptions{
		File:      a.configFile,
		SourceDir: a.sourceDir(host),
		Overrides: a.overrides(),
	})
	if err != nil {
		return nil, err
	}

	p, err := paths.New(cfg, host)
	if err != nil {
		return nil, err
	}

	runner := a.deps.Runner
	if runner == nil {
		exec := executor.NewExecRunner(cfg.Executor.Timeout)
		if a.verbosity >= 2 {
			exec = exec.WithOutput(os.Stderr)
		}
		runner = exec
	}

	log.Debug().
		Str("source", p.SourceDir()).
		Str("target", p.TargetDir()).
		Str("shell", string(p.ShellKind())).
		Interface("config", cfg.Describe()).
		Msg(MsgSessionResolved)

	return steps.NewSession(cfg, p, host, a.deps.FS, runner, a.deps.Groups, a.deps.Environ()), nil
}

// sourceDir is where pimp-install.toml is looked for.
func (a *app) sourceDir(host paths.Host) string {
	dir := a.source
	if dir == "" {
		defaults, err := config.Defaults()
		if err != nil {
			return ""
		}
		dir = defaults.App.Name
	}
	dir = paths.ExpandHome(dir, host.Home)
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(host.WorkDir, dir)
	}
	return dir
}

// overrides maps flags onto configuration keys.
func (a *app) overrides() map[string]interface{} {
	o := map[string]interface{}{}
	if a.source != "" {
		o["app.source"] = a.source
	}
	if a.continueOnError {
		o["policy.on_failure"] = config.PolicyContinue
	}
	return o
}

// renderer creates the output renderer selected by --format.
func (a *app) renderer(cmd *cobra.Command) (ui.Renderer, error) {
	format, err := ui.ParseFormat(a.format)
	if err != nil {
		return nil, fmt.Errorf(MsgErrFormat, err)
	}
	r, err := ui.NewRenderer(format, cmd.OutOrStdout())
	if err != nil {
		return nil, fmt.Errorf(MsgErrRenderer, err)
	}
	return r, nil
}

// stepNamesCompletion completes --skip values
func stepNamesCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return steps.Names(), cobra.ShellCompDirectiveNoFileComp
}
