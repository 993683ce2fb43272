package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var syncFeaturesCmd = &cobra.Command{
	Use:   "sync-features",
	Short: "Import feature files into Xray",
	Long: `Imports every correctly tagged feature file into Xray, warns about tagged issues the import
did not touch and touched issues that are not tagged, and restores issue fields the import changed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		up, err := newUploader(cfg)
		if err != nil {
			return err
		}
		keys, err := up.SyncFeatures(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			fmt.Println(strings.Join(keys, "\n"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncFeaturesCmd)
}
