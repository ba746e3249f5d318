package cli

import (
	"github.com/spf13/cobra"

	"github.com/stormyy00/autopr/internal/logging"
)

var (
	verbose    bool
	configPath string

	rootCmd = &cobra.Command{
		Use:   "autopr",
		Short: "AI-assisted pull request review and auto-merge service",
		Long:  `autopr receives GitHub pull request webhooks, generates AI reviews of the diff, posts Discord notifications, and auto-merges PRs that pass every eligibility check.`,
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default ~/.config/autopr/autopr.jsonc)")
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
