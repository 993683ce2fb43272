package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate xraysync.yaml and the issue key tags of all feature files",
	Long: `Loads the configuration file, checks it for errors, then analyzes every feature file and
reports scenarios and backgrounds that are not tagged with exactly one issue key. Nothing is sent
to Jira.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.DryRun = true

		up, err := newUploader(cfg)
		if err != nil {
			return err
		}
		accepted, found := up.Check(cfg)

		fmt.Printf("Configuration file %q is valid.\n", cfgFile)
		fmt.Printf("%d of %d feature file(s) are correctly tagged.\n", len(accepted), found)
		if len(accepted) < found {
			return fmt.Errorf("%d feature file(s) have tagging problems", found-len(accepted))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
