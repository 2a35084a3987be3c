package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/bibfetch/internal/abbrev"
	"github.com/matsen/bibfetch/internal/ltwa"
)

var abbrevDict string

var abbrevCmd = &cobra.Command{
	Use:   "abbrev <journal title>",
	Short: "Abbreviate a journal title",
	Long: `Abbreviate a journal title with the List of Title Word Abbreviations.

Text after the first colon is dropped. Connecting words (of, and, the, ...)
are removed.

Examples:
  bibfetch abbrev "Journal of the American Chemical Society"
  bibfetch abbrev Physical Review Letters --human
  bibfetch abbrev "Annals of Physics" --dict ./ltwa.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAbbrev,
}

func init() {
	rootCmd.AddCommand(abbrevCmd)
	abbrevCmd.Flags().StringVar(&abbrevDict, "dict", "", "Use this abbreviation list instead of the cached one")
}

func runAbbrev(cmd *cobra.Command, args []string) error {
	title := strings.Join(args, " ")

	var a *abbrev.Abbreviator
	if abbrevDict != "" {
		dict, err := ltwa.LoadFile(abbrevDict)
		if err != nil {
			exitWithError(ExitDictionaryError, "loading %s: %v", abbrevDict, err)
		}
		a = abbrev.New(dict)
	} else {
		var err error
		if a, err = openAbbreviator(context.Background()); err != nil {
			exitWithErr("loading abbreviation list", err)
		}
	}

	out := a.Abbreviate(title)
	if humanOutput {
		printf("%s\n", out)
		return nil
	}
	return outputJSON(AbbrevResponse{Title: title, Abbreviated: out, Changed: out != title})
}
