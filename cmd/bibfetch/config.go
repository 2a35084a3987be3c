package main

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
	Long: `Configuration is read from $XDG_CONFIG_HOME/bibfetch/config.yml.
Every key can be overridden by a BIBFETCH_* environment variable (also read
from a .env file in the working directory).

Keys:
  bib_path      Bib file that add appends to (BIBFETCH_BIB_PATH)
  data_dir      Abbreviation list and cache directory (BIBFETCH_DATA_DIR)
  ltwa_url      Abbreviation list download URL
  ltwa_updated  Cached lists older than this date (YYYY-MM-DD) are refreshed
  timeout       HTTP timeout, e.g. 10s
  rate_limit    Resolver requests per second
  workers       Concurrent resolutions
  mailto        Contact address sent to Crossref and doi.org
  cache_ttl     Age after which cached responses are refetched (0 = never)
  log_level     debug, info, warn, error`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the current settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if humanOutput {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			exitWithError(ExitError, "encoding config: %v", err)
		}
		os.Stdout.Write(data)
		return nil
	}
	return outputJSON(cfg)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := resolvedConfigPath()
	if _, err := os.Stat(path); err == nil && !configInitForce {
		exitWithError(ExitConfigError, "%s already exists (use --force to overwrite)", path)
	}

	if err := cfg.Save(path); err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	if humanOutput {
		printf("Wrote %s\n", path)
		return nil
	}
	return outputJSON(StatusResponse{Status: "created", Path: path})
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := resolvedConfigPath()
	if humanOutput {
		printf("%s\n", path)
		return nil
	}
	_, err := os.Stat(path)
	return outputJSON(ConfigPathResponse{Path: path, Exists: err == nil, DataDir: cfg.DataDir})
}

// ConfigPathResponse is the response for config path.
type ConfigPathResponse struct {
	Path    string `json:"path"`
	Exists  bool   `json:"exists"`
	DataDir string `json:"data_dir"`
}
