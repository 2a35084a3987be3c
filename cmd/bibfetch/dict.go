package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/bibfetch/internal/ltwa"
)

var dictCmd = &cobra.Command{
	Use:   "dict",
	Short: "Manage the cached abbreviation list",
}

var dictInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the cached abbreviation list",
	Args:  cobra.NoArgs,
	RunE:  runDictInfo,
}

var dictUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download the abbreviation list again",
	Args:  cobra.NoArgs,
	RunE:  runDictUpdate,
}

func init() {
	rootCmd.AddCommand(dictCmd)
	dictCmd.AddCommand(dictInfoCmd)
	dictCmd.AddCommand(dictUpdateCmd)
}

// DictInfoResponse describes the cached abbreviation list.
type DictInfoResponse struct {
	Path      string     `json:"path"`
	URL       string     `json:"url"`
	Exists    bool       `json:"exists"`
	Fresh     bool       `json:"fresh"`
	Modified  *time.Time `json:"modified,omitempty"`
	Entries   int        `json:"entries,omitempty"`
	Malformed int        `json:"malformed,omitempty"`
	Digest    string     `json:"digest,omitempty"`
}

func runDictInfo(cmd *cobra.Command, args []string) error {
	cache := newDictionaryCache()
	resp := DictInfoResponse{Path: cache.Path, URL: cache.URL}

	if info, err := os.Stat(cache.Path); err == nil {
		mtime := info.ModTime()
		resp.Exists = true
		resp.Modified = &mtime
		resp.Fresh = cache.IsFresh(mtime)

		dict, err := ltwa.LoadFile(cache.Path)
		if err != nil {
			exitWithErr("loading abbreviation list", err)
		}
		resp.Entries = dict.Len()
		resp.Malformed = dict.Malformed()
		resp.Digest = dict.Digest()
	}

	if humanOutput {
		printf("Path:      %s\n", resp.Path)
		printf("Source:    %s\n", resp.URL)
		if !resp.Exists {
			printf("Status:    not downloaded (run 'bibfetch dict update')\n")
			return nil
		}
		printf("Modified:  %s\n", resp.Modified.Format(time.RFC3339))
		printf("Fresh:     %v\n", resp.Fresh)
		printf("Entries:   %d (%d malformed lines skipped)\n", resp.Entries, resp.Malformed)
		printf("Digest:    %s\n", resp.Digest)
		return nil
	}
	return outputJSON(resp)
}

func runDictUpdate(cmd *cobra.Command, args []string) error {
	cache := newDictionaryCache()
	if err := cache.Refresh(context.Background()); err != nil {
		exitWithErr("updating abbreviation list", err)
	}

	if humanOutput {
		printf("Updated %s\n", cache.Path)
		return nil
	}
	return outputJSON(StatusResponse{Status: "updated", Path: cache.Path})
}
