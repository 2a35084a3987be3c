// Package main provides the bibfetch CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/bibfetch/internal/config"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	configPath  string
	logLevel    string

	cfg    *config.Config
	logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "bibfetch"})
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bibfetch",
	Short: "Fetch BibTeX for DOIs and arXiv ids with abbreviated journal names",
	Long: `bibfetch resolves DOIs and arXiv identifiers to BibTeX, adds an
ISO 4 abbreviated journal title (shortjournal) using the ISSN List of
Title Word Abbreviations, and appends the entries to a .bib file.

All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/bibfetch/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.Version = Version
}

// setup loads .env, the config file and the logger level before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		exitWithError(ExitConfigError, "invalid --log-level: %v", err)
	}
	logger.SetLevel(lvl)
	logger.Debug("config loaded", "path", resolvedConfigPath(), "data_dir", cfg.DataDir)
	return nil
}

// resolvedConfigPath returns the config file in effect.
func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.GlobalConfigPath()
}

// printf writes human-readable text to stdout.
func printf(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}
