package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/bibfetch/internal/clipboard"
	"github.com/matsen/bibfetch/internal/doi"
	"github.com/matsen/bibfetch/internal/export"
	"github.com/matsen/bibfetch/internal/pdf"
	"github.com/matsen/bibfetch/internal/pipeline"
	"github.com/matsen/bibfetch/internal/reference"
)

var (
	addPDF      string
	addNoAppend bool
	addForce    bool
	addBibPath  string

	// copyOutput copies the fetched BibTeX to the clipboard (add and get).
	copyOutput bool
)

var addCmd = &cobra.Command{
	Use:   "add [id[,id...]]...",
	Short: "Fetch BibTeX for identifiers and append it to the bib file",
	Long: `Resolve DOIs or arXiv identifiers to BibTeX, add an abbreviated
journal title (shortjournal), lowercase the month, print the entries and
append them to the bib file.

Identifiers may be given as separate arguments or comma-separated. A
leading "l" element (l,id1,id2) prints without appending. Entries whose
DOI or key is already in the bib file are skipped unless --force.

Examples:
  bibfetch add 10.1103/PhysRevLett.116.061102
  bibfetch add 2106.15928,10.1038/nature12373
  bibfetch add l,10.1038/nature12373
  bibfetch add --pdf ~/papers/paper.pdf`,
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVar(&addPDF, "pdf", "", "Take the DOI from a PDF file")
	addCmd.Flags().BoolVar(&addNoAppend, "no-append", false, "Print entries without appending")
	addCmd.Flags().BoolVar(&addForce, "force", false, "Append even if the entry is already in the bib file")
	addCmd.Flags().StringVar(&addBibPath, "bib", "", "Bib file to append to (overrides bib_path)")
	addCmd.Flags().BoolVar(&copyOutput, "copy", false, "Copy the BibTeX to the clipboard")
}

// addOptions controls how fetched entries are stored.
type addOptions struct {
	BibPath string
	Append  bool
	Force   bool
	Workers int
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	list := collectIDs(args)
	if addPDF != "" {
		id, err := doiFromPDF(ctx, addPDF)
		if err != nil {
			exitWithErr("reading PDF", err)
		}
		list.IDs = append(list.IDs, id)
	}
	if len(list.IDs) == 0 {
		exitWithError(ExitError, "no identifiers given")
	}

	opts := addOptions{
		BibPath: cfg.BibPath,
		Append:  !list.PrintOnly && !addNoAppend,
		Force:   addForce,
		Workers: cfg.Workers,
	}
	if addBibPath != "" {
		opts.BibPath = addBibPath
	}

	resp, err := fetchEntries(ctx, list.IDs, opts)
	if err != nil {
		exitWithErr("adding entries", err)
	}
	return reportEntries(resp)
}

// fetchEntries builds the pipeline and runs addEntries.
func fetchEntries(ctx context.Context, ids []string, opts addOptions) (EntriesResponse, error) {
	p, closeFn, err := newPipeline(ctx)
	if err != nil {
		return EntriesResponse{}, err
	}
	defer closeFn()

	idx := export.NewBibTeXIndex()
	if opts.Append {
		if idx, err = export.ParseBibTeXFile(opts.BibPath); err != nil {
			return EntriesResponse{}, fmt.Errorf("reading %s: %w", opts.BibPath, err)
		}
	}
	return addEntries(ctx, p, ids, idx, opts), nil
}

// reportEntries prints the response and exits non-zero if every entry failed.
func reportEntries(resp EntriesResponse) error {
	if copyOutput {
		if text := joinBibTeX(resp); text != "" {
			if err := clipboard.Copy(text); err != nil {
				logger.Warn("copying to clipboard", "err", err)
			}
		}
	}
	if humanOutput {
		printEntriesHuman(resp)
	} else {
		outputJSON(resp)
	}
	if resp.Failed > 0 && resp.Failed == len(resp.Entries) {
		os.Exit(ExitDataError)
	}
	return nil
}

// joinBibTeX concatenates the BibTeX of every entry that was fetched.
func joinBibTeX(resp EntriesResponse) string {
	var parts []string
	for _, e := range resp.Entries {
		if e.BibTeX != "" {
			parts = append(parts, e.BibTeX)
		}
	}
	return strings.Join(parts, "\n")
}

// collectIDs flattens identifier arguments. Any list with the print-only
// marker makes the whole invocation print-only.
func collectIDs(args []string) doi.IDList {
	var out doi.IDList
	for _, arg := range args {
		list := doi.SplitList(arg)
		out.IDs = append(out.IDs, list.IDs...)
		out.PrintOnly = out.PrintOnly || list.PrintOnly
	}
	return out
}

// addEntries fetches ids and, when opts.Append is set, appends new entries
// to the bib file, updating idx. Results keep input order.
func addEntries(ctx context.Context, p *pipeline.Pipeline, ids []string, idx *export.BibTeXIndex, opts addOptions) EntriesResponse {
	resp := EntriesResponse{Entries: make([]EntryResult, 0, len(ids))}
	if opts.Append {
		resp.BibPath = opts.BibPath
	}

	// Skip identifiers already present without touching the network.
	var pending []string
	skipped := make(map[int]EntryResult)
	for i, id := range ids {
		if opts.Append && !opts.Force && idx.HasEntry("", doi.Canonical(id)) {
			skipped[i] = EntryResult{
				ID:     id,
				DOI:    doi.Canonical(id),
				Key:    idx.DOIs[export.NormalizeDOI(doi.Canonical(id))],
				Action: "skipped",
			}
			continue
		}
		pending = append(pending, id)
	}

	// FetchAll delivers in input order, so results line up with pending.
	results := make([]EntryResult, 0, len(pending))
	p.FetchAll(ctx, pending, opts.Workers, func(r pipeline.Result) {
		results = append(results, storeResult(r, idx, opts))
	})

	next := 0
	for i := range ids {
		e, ok := skipped[i]
		if !ok {
			e = results[next]
			next++
		}
		switch e.Action {
		case "added":
			resp.Added++
		case "skipped":
			resp.Skipped++
		case "failed":
			resp.Failed++
		}
		resp.Entries = append(resp.Entries, e)
	}
	return resp
}

// storeResult turns a pipeline result into an EntryResult, appending the
// entry to the bib file when requested.
func storeResult(r pipeline.Result, idx *export.BibTeXIndex, opts addOptions) EntryResult {
	e := EntryResult{ID: r.ID, DOI: r.DOI}
	if r.Err != nil {
		e.Action = "failed"
		e.Error = r.Err.Error()
		return e
	}

	rec := r.Record
	e.Key = rec.Key
	e.Title = rec.Value(reference.FieldTitle)
	e.Authors = reference.ParseAuthors(rec.Value(reference.FieldAuthor))
	e.Year = rec.Value(reference.FieldYear)
	e.Journal = rec.Value(reference.FieldJournal)
	e.ShortJournal = rec.Value(reference.FieldShortJournal)
	e.BibTeX = r.BibTeX

	if !opts.Append {
		e.Action = "printed"
		return e
	}
	if !opts.Force && idx.HasRecord(rec) {
		e.Action = "skipped"
		return e
	}
	if err := export.AppendToBibFile(opts.BibPath, r.BibTeX); err != nil {
		e.Action = "failed"
		e.Error = fmt.Sprintf("appending to %s: %v", opts.BibPath, err)
		return e
	}
	idx.Add(rec.Key, recordDOI(rec, r.DOI))
	e.Action = "added"
	return e
}

// recordDOI prefers the DOI field of the record over the requested one.
func recordDOI(rec *reference.Record, fallback string) string {
	if d := rec.Value(reference.FieldDOI); d != "" {
		return d
	}
	return fallback
}

// doiFromPDF extracts a DOI from a PDF, falling back to a Crossref search
// on the title guessed from the first page.
func doiFromPDF(ctx context.Context, path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	id, err := pdf.ExtractDOI(absPath)
	if err == nil {
		logger.Info("DOI found in PDF", "doi", id)
		return id, nil
	}
	if !errors.Is(err, pdf.ErrNoDOIFound) {
		return "", err
	}

	title, terr := pdf.ExtractTitle(absPath)
	if terr != nil || title == "" {
		return "", err
	}
	logger.Info("no DOI in PDF; searching Crossref by title", "title", title)

	cands, serr := newCrossrefClient().Search(ctx, title, 1)
	if serr != nil {
		return "", fmt.Errorf("searching Crossref: %w", serr)
	}
	if len(cands) == 0 {
		return "", err
	}
	logger.Warn("using best Crossref match", "doi", cands[0].DOI, "title", cands[0].Title, "score", cands[0].Score)
	return cands[0].DOI, nil
}
