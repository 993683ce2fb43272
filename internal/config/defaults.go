package config

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	recursive := true
	return &Config{
		Cucumber: CucumberConfig{
			Directories: []string{"features"},
			Include:     []string{"*.feature"},
			Exclude:     []string{"node_modules/**", "vendor/**"},
			Recursive:   &recursive,
			ResultsFile: "cucumber-report.json",
		},
		Upload: UploadConfig{
			EvidenceMode:  "concurrent",
			Concurrency:   8,
			RestoreFields: []string{"summary", "labels"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
