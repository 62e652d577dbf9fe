package version

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/pimp-project/pimp-install/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/pimp-project/pimp-install/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/pimp-project/pimp-install/internal/version.Date={{.Date}}
)
