package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"kdcflow/internal/kdc"
)

var (
	taxonomyAnchor   string
	taxonomyModelSet bool
)

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "List KDC classes allowed under an anchor",
	Long: `Prints the classes that satisfy an anchor. With --model-set the list is
trimmed the way it is before being shown to the language model.

Example:
  kdc taxonomy --anchor 810
  kdc taxonomy --anchor 800 --model-set`,
	RunE: runTaxonomy,
}

func init() {
	taxonomyCmd.Flags().StringVar(&taxonomyAnchor, "anchor", "", "Three digit coarse class")
	taxonomyCmd.Flags().BoolVar(&taxonomyModelSet, "model-set", false, "Show the model-facing subset")
}

func runTaxonomy(cmd *cobra.Command, args []string) error {
	anchor := kdc.BuildAnchor(taxonomyAnchor)
	allowed := kdc.Default().Allowed(anchor)
	if taxonomyModelSet {
		allowed = allowed.ForModel(cfg.Pipeline.MinAllowed)
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# anchor %s: %d classes, %d curated\n", anchor.Pattern(), allowed.Len(), allowed.CuratedCount())
	for _, e := range allowed.Entries() {
		fmt.Fprintf(tw, "%s\t%s\n", e.Code, e.Label)
	}
	return tw.Flush()
}
