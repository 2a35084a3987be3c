package main

import (
	"context"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get [id[,id...]]...",
	Short: "Fetch and print BibTeX without touching the bib file",
	Long: `Resolve DOIs or arXiv identifiers and print the normalised BibTeX.

Examples:
  bibfetch get 10.1103/PhysRevLett.116.061102 --human
  bibfetch get 2106.15928`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVar(&copyOutput, "copy", false, "Copy the BibTeX to the clipboard")
}

func runGet(cmd *cobra.Command, args []string) error {
	list := collectIDs(args)
	if len(list.IDs) == 0 {
		exitWithError(ExitError, "no identifiers given")
	}

	resp, err := fetchEntries(context.Background(), list.IDs, addOptions{Workers: cfg.Workers})
	if err != nil {
		exitWithErr("fetching entries", err)
	}
	return reportEntries(resp)
}
