package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

var lookupRows int

var lookupCmd = &cobra.Command{
	Use:   "lookup <citation text>",
	Short: "Find DOIs for a free-text citation via Crossref",
	Long: `Search Crossref for works matching a free-text citation and list the
best-scoring candidates with their DOIs.

Examples:
  bibfetch lookup "Abbott 2016 Observation of gravitational waves"
  bibfetch lookup --rows 3 --human "variational phylogenetics"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLookup,
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.Flags().IntVar(&lookupRows, "rows", 5, "Number of candidates")
}

func runLookup(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cands, err := newCrossrefClient().Search(context.Background(), query, lookupRows)
	if err != nil {
		exitWithError(ExitNetworkError, "searching Crossref: %v", err)
	}

	if humanOutput {
		printCandidatesHuman(cands)
		return nil
	}
	return outputJSON(LookupResponse{Query: query, Candidates: cands})
}
