package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kdcflow/internal/pipeline"
	"kdcflow/internal/util"
)

var (
	classifyFile        string
	classifyOut         string
	classifyConcurrency int
	classifyJSON        bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify [isbn...]",
	Short: "Classify books by ISBN",
	Long: `Looks each ISBN up in the catalog and the registry, then runs the
decision engine. ISBNs come from the arguments and, with --file, from a file
holding one ISBN per line.

Example:
  kdc classify 9788937462849
  kdc classify --file isbns.txt --out decisions.jsonl --concurrency 8`,
	RunE: runClassify,
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyFile, "file", "f", "", "File with one ISBN per line")
	classifyCmd.Flags().StringVarP(&classifyOut, "out", "o", "", "Write full results as JSON lines to this path")
	classifyCmd.Flags().IntVarP(&classifyConcurrency, "concurrency", "c", 0, "Parallel lookups (default from KDCFLOW_BATCH_MAX_CONCURRENT)")
	classifyCmd.Flags().BoolVar(&classifyJSON, "json", false, "Print full results as JSON")
}

func runClassify(cmd *cobra.Command, args []string) error {
	isbns := append([]string(nil), args...)
	if classifyFile != "" {
		fromFile, err := readISBNFile(classifyFile)
		if err != nil {
			return err
		}
		isbns = append(isbns, fromFile...)
	}
	if len(isbns) == 0 {
		return fmt.Errorf("no isbns given")
	}

	p, err := newPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	limit := classifyConcurrency
	if limit <= 0 {
		limit = cfg.BatchMaxConcurrent
	}
	if limit <= 0 {
		limit = 1
	}
	results := make([]pipeline.Result, len(isbns))
	rejected := make([]error, len(isbns))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, isbn := range isbns {
		g.Go(func() error {
			res, err := p.ClassifyISBN(gctx, isbn)
			if err != nil {
				rejected[i] = err
				logger.Warn("skipping isbn", zap.String("isbn", isbn), zap.Error(err))
				return nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	rows := make([]any, 0, len(results))
	for i, res := range results {
		if rejected[i] != nil {
			fmt.Fprintf(out, "%s\t-\tfailed\t%v\n", isbns[i], rejected[i])
			continue
		}
		rows = append(rows, res)
		if classifyJSON {
			raw, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(raw))
			continue
		}
		fmt.Fprintln(out, summaryRow(res))
	}
	if classifyOut != "" {
		if err := util.WriteJSONLinesAtomic(classifyOut, rows); err != nil {
			return err
		}
	}
	return nil
}

// summaryRow is the tab separated line printed per ISBN. Undetermined
// results show "-" and the reason in place of code and label.
func summaryRow(res pipeline.Result) string {
	if !res.Record.Classified() || res.Code == "" {
		return fmt.Sprintf("%s\t-\t%s\t%s", res.ISBN, res.Record.Status, res.Record.Reason)
	}
	return fmt.Sprintf("%s\t%s\t%s\t%s", res.ISBN, res.Code, res.Record.Status, res.Record.FinalLabel)
}

func readISBNFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open isbn file: %w", err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read isbn file: %w", err)
	}
	return out, nil
}
