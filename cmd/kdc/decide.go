package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kdcflow/internal/models"
)

var (
	decideBook   models.Book
	decideAnchor string
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Classify a book described on the command line",
	Long: `Runs the decision engine on a book record without catalog or registry
lookups and prints the evidence record.

Example:
  kdc decide --title "한국 현대 단편소설집" --category "소설" --anchor 813`,
	RunE: runDecide,
}

func init() {
	decideCmd.Flags().StringVar(&decideBook.Title, "title", "", "Book title")
	decideCmd.Flags().StringVar(&decideBook.Author, "author", "", "Author")
	decideCmd.Flags().StringVar(&decideBook.Publisher, "publisher", "", "Publisher")
	decideCmd.Flags().StringVar(&decideBook.Category, "category", "", "Store category path")
	decideCmd.Flags().StringVar(&decideBook.Description, "description", "", "Description")
	decideCmd.Flags().StringVar(&decideBook.TOC, "toc", "", "Table of contents")
	decideCmd.Flags().StringVar(&decideAnchor, "anchor", "", "Three digit coarse class, e.g. 813")
}

func runDecide(cmd *cobra.Command, args []string) error {
	if decideBook.IsEmpty() {
		return fmt.Errorf("at least one of --title, --category, --description or --toc is required")
	}
	p, err := newPipeline(cfg, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	res := p.ClassifyBook(ctx, decideBook, decideAnchor)
	raw, err := res.Record.JSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return nil
}
