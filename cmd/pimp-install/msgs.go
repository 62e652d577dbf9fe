package pimpinstall

import (
	_ "embed"
	"strings"
)

// Short messages (one-liners)
const (
	// Command descriptions
	MsgRootShort       = "Install PIMP for the current user"
	MsgInstallShort    = "Install PIMP (the default command)"
	MsgPlanShort       = "Show the installation plan without running it"
	MsgStatusShort     = "Check an existing installation"
	MsgAliasShort      = "Register the launcher alias again"
	MsgUninstallShort  = "Remove the alias, and with --purge the installed files"
	MsgManifestShort   = "Work with package manifests"
	MsgCheckShort      = "Validate a package manifest"
	MsgInitShort       = "Write the default package manifest into the sources"
	MsgConfigShort     = "Print the default configuration"
	MsgConfigLong      = "Print the built-in configuration. Copy it to the user config file\nor to pimp-install.toml next to the sources and edit what you need."
	MsgVersionShort    = "Print version information"
	MsgCompletionShort = "Generate shell completion script"
	MsgManShort        = "Generate the man page"

	// Status messages
	MsgVersionFormat   = "pimp-install %s (commit %s, built %s)"
	MsgUserConfigPath  = "# user config file: %s"
	MsgReceiptFailed   = "Failed to save install receipt"
	MsgCommandStarted  = "Command started"
	MsgSessionResolved = "Session resolved"

	MsgManifestWritten    = "Wrote %d requirements to %s"
	MsgManifestWouldWrite = "Would write %d requirements to %s"

	// Error messages
	MsgErrFormat   = "invalid --format: %w"
	MsgErrRenderer = "failed to create renderer: %w"
	MsgErrManPage  = "failed to generate man page: %w"

	// Flag descriptions
	MsgFlagVerbose         = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagConfig          = "Configuration file to load on top of the defaults"
	MsgFlagFormat          = "Output format: auto, terminal, text or json"
	MsgFlagSource          = "Application source directory (default ./PIMP)"
	MsgFlagDryRun          = "Preview changes without executing them"
	MsgFlagContinueOnError = "Run every step even after a failure"
	MsgFlagSkip            = "Skip the named step (repeatable)"
	MsgFlagPurge           = "Also delete the installed application and the receipt"
	MsgFlagForce           = "Replace an existing manifest"
)

// Long messages from embedded files
var (
	//go:embed msgs/root-long.txt
	msgRootLongRaw string
	MsgRootLong    = strings.TrimSpace(msgRootLongRaw)

	//go:embed msgs/install-long.txt
	msgInstallLongRaw string
	MsgInstallLong    = strings.TrimSpace(msgInstallLongRaw)

	//go:embed msgs/install-example.txt
	msgInstallExampleRaw string
	MsgInstallExample    = strings.TrimRight(msgInstallExampleRaw, "\n")

	//go:embed msgs/plan-long.txt
	msgPlanLongRaw string
	MsgPlanLong    = strings.TrimSpace(msgPlanLongRaw)

	//go:embed msgs/alias-long.txt
	msgAliasLongRaw string
	MsgAliasLong    = strings.TrimSpace(msgAliasLongRaw)

	//go:embed msgs/uninstall-long.txt
	msgUninstallLongRaw string
	MsgUninstallLong    = strings.TrimSpace(msgUninstallLongRaw)

	//go:embed msgs/manifest-long.txt
	msgManifestLongRaw string
	MsgManifestLong    = strings.TrimSpace(msgManifestLongRaw)

	//go:embed msgs/manifest-init-long.txt
	msgManifestInitLongRaw string
	MsgManifestInitLong    = strings.TrimSpace(msgManifestInitLongRaw)

	//go:embed msgs/completion-long.txt
	msgCompletionLongRaw string
	MsgCompletionLong    = strings.TrimSpace(msgCompletionLongRaw)

	//go:embed msgs/usage-template.txt
	msgUsageTemplateRaw string
	MsgUsageTemplate    = strings.TrimSpace(msgUsageTemplateRaw)
)
