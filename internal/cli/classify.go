package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raysh454/phishcatcher/internal/app"
	"github.com/raysh454/phishcatcher/internal/assessor"
	"github.com/raysh454/phishcatcher/internal/batch"
	"github.com/raysh454/phishcatcher/internal/enumerator"
	"github.com/raysh454/phishcatcher/internal/utils"
)

func newClassifyCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify URL...",
		Short: "Classify one or more URLs",
		Long:  "Classify one or more URLs. Dots written as [.] are restored before classification.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := o.application(cmd)
			if err != nil {
				return err
			}
			defer done()

			items := make([]batch.Item, 0, len(args))
			for i, raw := range args {
				res, err := a.Assessor.Classify(cmd.Context(), strings.TrimSpace(raw))
				if assessor.Kind(err) == assessor.KindConfiguration {
					return err
				}
				items = append(items, batch.Item{Index: i, URL: raw, Result: res, Err: err})
			}
			return o.printItems(cmd.OutOrStdout(), items)
		},
	}
}

func newBatchCommand(o *options) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "batch [FILE|-]",
		Short: "Classify URLs read one per line from FILE or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			urls, err := readLines(in)
			if err != nil {
				return fmt.Errorf("reading urls: %w", err)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no urls to classify")
			}

			a, done, err := o.application(cmd)
			if err != nil {
				return err
			}
			defer done()
			return o.runBatch(cmd, a, urls, workers)
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent classifications (0 = batch.workers)")
	return cmd
}

func newLinksCommand(o *options) *cobra.Command {
	var (
		base    string
		text    bool
		workers int
	)
	cmd := &cobra.Command{
		Use:   "links FILE",
		Short: "Classify every link found in a saved HTML page or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := o.application(cmd)
			if err != nil {
				return err
			}
			defer done()

			links, err := enumerator.NewLinkExtractor(base, text, a.Logger).Enumerate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(links) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no links found")
				return nil
			}
			return o.runBatch(cmd, a, links, workers)
		},
	}
	f := cmd.Flags()
	f.StringVar(&base, "base", "", "Base URL for relative links when the page has no <base href>")
	f.BoolVar(&text, "text", false, "Also scan page text for URLs, including defanged ones")
	f.IntVarP(&workers, "workers", "w", 0, "Concurrent classifications (0 = batch.workers)")
	return cmd
}

func (o *options) runBatch(cmd *cobra.Command, a *app.Application, urls []string, workers int) error {
	if limit := a.Config.Batch.MaxURLs; len(urls) > limit {
		return fmt.Errorf("%d urls exceed batch.max_urls (%d)", len(urls), limit)
	}
	if workers <= 0 {
		workers = a.Config.Batch.Workers
	}
	a.Metrics.Batch(len(urls))
	items, err := batch.Run(cmd.Context(), a.Assessor, urls, workers)
	if err != nil {
		return err
	}
	if err := o.printItems(cmd.OutOrStdout(), items); err != nil {
		return err
	}
	if !o.json() {
		s := batch.Summarize(items)
		fmt.Fprintf(cmd.ErrOrStderr(), "%d urls, %d trusted, %d failed\n", s.Total, s.ShortCircuited, len(items)-resultCount(items))
	}
	return nil
}

func resultCount(items []batch.Item) int {
	n := 0
	for _, it := range items {
		if it.Err == nil {
			n++
		}
	}
	return n
}

// printItems writes one line per item: JSON lines, or tab-separated
// label, confidence and defanged URL. It reports an error when any item
// failed so scripts can tell from the exit status.
func (o *options) printItems(w io.Writer, items []batch.Item) error {
	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
		}
		if o.json() {
			r := app.JobResult{Index: it.Index, URL: it.URL, Result: it.Result}
			if it.Err != nil {
				r.Error = it.Err.Error()
				r.ErrorKind = it.ErrorKind()
			}
			if err := writeJSON(w, r, false); err != nil {
				return err
			}
			continue
		}
		if it.Err != nil {
			fmt.Fprintf(w, "ERROR\t-\t%s\t%s: %v\n", utils.Defang(it.URL), it.ErrorKind(), it.Err)
			continue
		}
		label := string(it.Result.Label)
		if it.Result.ShortCircuited {
			label += " (trusted)"
		}
		fmt.Fprintf(w, "%s\t%.4f\t%s\n", label, it.Result.Confidence, utils.Defang(it.URL))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d urls could not be classified", failed, len(items))
	}
	return nil
}
