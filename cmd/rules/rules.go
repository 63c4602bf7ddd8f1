package rules

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/ansible-later/internal/registry"
	"github.com/scan-io-git/ansible-later/internal/rule"
	builtin "github.com/scan-io-git/ansible-later/internal/rules"
	"github.com/scan-io-git/ansible-later/pkg/shared/config"
	"github.com/scan-io-git/ansible-later/pkg/shared/errors"
)

// RunOptionsRules holds the arguments for the rules command.
type RunOptionsRules struct {
	RulesDir []string
}

var (
	AppConfig         *config.Config
	logger            hclog.Logger
	rulesOptions      RunOptionsRules
	exampleRulesUsage = `  # List the built-in rules
  ansible-later rules

  # List built-in rules together with rules served by plugins
  ansible-later rules -r ./later-rules`
)

// RulesCmd represents the rules command.
var RulesCmd = &cobra.Command{
	Use:                   "rules [-r RULES_DIR]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleRulesUsage,
	Short:                 "List every registered rule",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *AppConfig
		cfg.Rules.Dir = append(append([]string(nil), AppConfig.Rules.Dir...), rulesOptions.RulesDir...)

		reg, err := registry.Load(&cfg, builtin.Builtin(), logger)
		if err != nil {
			logger.Error("failed to load rules", "error", err)
			return errors.NewCommandError(err, 2)
		}
		defer reg.Close()

		return printRules(os.Stdout, reg.Rules())
	},
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config, l hclog.Logger) {
	AppConfig = cfg
	logger = l
}

func printRules(out io.Writer, rules []rule.Rule) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVERSION\tTYPES\tDESCRIPTION")
	for _, r := range rules {
		meta := r.Info()
		ver := meta.Version
		if ver == "" {
			ver = "-"
		}
		kinds := make([]string, 0, len(meta.Types))
		for _, k := range meta.Types {
			kinds = append(kinds, k.String())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", config.SetThen(meta.ID, "-"), ver, strings.Join(kinds, ","), meta.Description)
	}
	return w.Flush()
}

func init() {
	RulesCmd.Flags().StringSliceVarP(&rulesOptions.RulesDir, "rules-dir", "r", nil, "Additional directory with rule plugins, can be repeated.")
	RulesCmd.Flags().BoolP("help", "h", false, "Show help for the rules command.")
}
