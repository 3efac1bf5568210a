package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/tripquest/internal/catalog"
	"github.com/dukerupert/tripquest/internal/model"
	"github.com/dukerupert/tripquest/internal/stats"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with trip catalog files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a catalog file (default: the embedded catalog)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			c, err := catalog.Load(path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ok: %q, %d checklist items, %d timeline events, %d route points, %d packing entries\n",
				c.Trip.Name, len(c.Checklist), len(c.Timeline), len(c.Route), c.PackingTotal())
			for _, cat := range model.Categories {
				if n := stats.CategoryCount(c.Checklist, cat); n > 0 {
					fmt.Fprintf(out, "  %-14s %d\n", cat, n)
				}
			}
			return nil
		},
	})
	return cmd
}
