package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fjglira/xraysync/internal/config"
)

var (
	cfgFile string
	verbose bool
	dryRun  bool
	log     = logrus.New()
	logFile *os.File
)

// rootCmd is the base command for xraysync.
var rootCmd = &cobra.Command{
	Use:   "xraysync",
	Short: "Synchronize Cucumber feature files and results with Jira Xray",
	Long: `xraysync imports Cucumber feature files into Xray as tests and preconditions and
uploads Cucumber JSON results, with their evidence, as test executions.

Everything is driven by a YAML configuration file (xraysync.yaml). Credentials can be
passed through XRAYSYNC_* environment variables instead.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetOutput(os.Stderr)
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			_ = logFile.Close()
			logFile = nil
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "xraysync.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "analyze and convert but don't contact Jira")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads, overrides and validates the configuration and applies its logging section.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(cfg)
	if dryRun {
		cfg.DryRun = true
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := configureLogging(cfg.Logging); err != nil {
		return nil, err
	}
	log.Debugf("Loaded config from %s", cfgFile)
	return cfg, nil
}

func configureLogging(cfg config.LoggingConfig) error {
	if !verbose && cfg.Level != "" {
		level, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		log.SetLevel(level)
	}
	if cfg.File == "" {
		return nil
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}
