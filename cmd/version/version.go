package version

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/ansible-later/internal/registry"
	"github.com/scan-io-git/ansible-later/internal/rules"
	intver "github.com/scan-io-git/ansible-later/internal/version"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
)

var (
	AppConfig     *config.Config
	CoreVersion   = "unknown"
	GolangVersion = "unknown"
	BuildTime     = "unknown"
)

// Versions holds version information for the application and its built-in rule set.
type Versions struct {
	Version          string
	StandardsVersion string
	GolangVersion    string
	BuildTime        string
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// NewVersionCmd creates a new cobra.Command for the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "version",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Short:                 "Print the version number of the application and the built-in standards",
		Run: func(cmd *cobra.Command, args []string) {
			printVersionInfo(os.Stdout, currentVersions())
		},
	}
}

func currentVersions() Versions {
	return Versions{
		Version:          CoreVersion,
		StandardsVersion: registry.LatestVersion(rules.Builtin(), intver.Baseline),
		GolangVersion:    GolangVersion,
		BuildTime:        BuildTime,
	}
}

// printVersionInfo prints the version information for the core application.
func printVersionInfo(w io.Writer, v Versions) {
	fmt.Fprintf(w, "Core Version: v%s\n", v.Version)
	fmt.Fprintf(w, "Standards Version: %s\n", v.StandardsVersion)
	fmt.Fprintf(w, "Go Version: %s\n", v.GolangVersion)
	fmt.Fprintf(w, "Build Time: %s\n", v.BuildTime)
}
