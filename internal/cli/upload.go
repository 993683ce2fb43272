package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resultsFile string

var uploadResultsCmd = &cobra.Command{
	Use:   "upload-results",
	Short: "Upload Cucumber JSON results to an Xray test execution",
	Long: `Converts a Cucumber JSON report into an Xray execution import, imports it and attaches the
embedded evidence to the created test runs one by one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if resultsFile != "" {
			cfg.Cucumber.ResultsFile = resultsFile
		}
		up, err := newUploader(cfg)
		if err != nil {
			return err
		}
		key, err := up.UploadResults(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if key != "" {
			fmt.Println(key)
		}
		return nil
	},
}

func init() {
	uploadResultsCmd.Flags().StringVarP(&resultsFile, "results", "r", "", "Cucumber JSON report (overrides cucumber.results_file)")
	rootCmd.AddCommand(uploadResultsCmd)
}
