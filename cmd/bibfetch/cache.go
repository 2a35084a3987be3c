package main

import (
	"time"

	"github.com/spf13/cobra"
)

var cacheClearOlderThan time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the resolution cache",
	Long: `bibfetch keeps the raw BibTeX returned for each DOI in a SQLite
database so repeated lookups do not hit the network. Entries older than
cache_ttl are fetched again.`,
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the resolution cache location and size",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached responses",
	Long: `Remove cached responses, or with --older-than only those fetched
longer ago than the given duration.

Examples:
  bibfetch cache clear
  bibfetch cache clear --older-than 720h`,
	Args: cobra.NoArgs,
	RunE: runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheClearCmd.Flags().DurationVar(&cacheClearOlderThan, "older-than", 0, "Only remove entries older than this")
}

// CacheInfoResponse describes the resolution cache.
type CacheInfoResponse struct {
	Path    string        `json:"path"`
	Entries int           `json:"entries"`
	TTL     time.Duration `json:"ttl_ns"`
}

// CacheClearResponse reports how many entries were removed.
type CacheClearResponse struct {
	Path    string `json:"path"`
	Removed int64  `json:"removed"`
}

func runCacheInfo(cmd *cobra.Command, args []string) error {
	db, err := openCacheDB()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	n, err := db.Count()
	if err != nil {
		exitWithError(ExitError, "counting cache entries: %v", err)
	}

	resp := CacheInfoResponse{Path: cfg.DBPath(), Entries: n, TTL: cfg.CacheTTL}
	if humanOutput {
		printf("Path:     %s\n", resp.Path)
		printf("Entries:  %d\n", resp.Entries)
		printf("TTL:      %s\n", resp.TTL)
		return nil
	}
	return outputJSON(resp)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	db, err := openCacheDB()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	defer db.Close()

	var removed int64
	if cacheClearOlderThan > 0 {
		removed, err = db.Purge(time.Now().Add(-cacheClearOlderThan))
	} else {
		removed, err = db.Clear()
	}
	if err != nil {
		exitWithError(ExitError, "clearing cache: %v", err)
	}

	if humanOutput {
		printf("Removed %d cached entr%s\n", removed, plural(int(removed), "y", "ies"))
		return nil
	}
	return outputJSON(CacheClearResponse{Path: cfg.DBPath(), Removed: removed})
}
