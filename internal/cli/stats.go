package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/tripquest/internal/model"
	"github.com/dukerupert/tripquest/internal/stats"
)

type statsOutput struct {
	Trip       string                   `json:"trip"`
	Departure  string                   `json:"departure"`
	DaysUntil  int                      `json:"days_until_departure"`
	Completion stats.Progress           `json:"completion"`
	XP         stats.XPProgress         `json:"xp"`
	Categories []stats.CategoryProgress `json:"categories"`
	Packing    stats.Progress           `json:"packing"`
	Remaining  string                   `json:"remaining_time"`
	Summary    stats.TripStats          `json:"summary"`
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var (
		today  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show checklist progress and trip statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if today != "" {
				t, err := time.Parse(model.DateLayout, today)
				if err != nil {
					return fmt.Errorf("--today: want YYYY-MM-DD, got %q", today)
				}
				now = t
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			settings, err := s.resolver.Resolve()
			if err != nil {
				return err
			}
			departure, err := settings.DepartureDate()
			if err != nil {
				return err
			}

			items := s.catalog.Checklist
			checked := s.checklist.Current()
			out := statsOutput{
				Trip:       s.catalog.Trip.Name,
				Departure:  settings.Departure,
				DaysUntil:  stats.DaysUntilDeparture(departure, now),
				Completion: stats.Completion(items, checked),
				XP:         stats.XP(items, checked),
				Categories: stats.CategoryBreakdown(items, checked),
				Packing:    stats.PackingCompletion(s.catalog.Packing, s.packing.Current()),
				Remaining:  stats.EstimateCompletionTime(items, checked),
				Summary:    stats.Summary(s.catalog.Timeline, settings.Rates),
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			printStats(cmd, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&today, "today", "", "evaluate days until departure as of this date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func printStats(cmd *cobra.Command, out statsOutput) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\n\n", out.Trip)
	fmt.Fprintf(w, "Departure\t%s (%d days)\n", out.Departure, out.DaysUntil)
	fmt.Fprintf(w, "Checklist\t%d/%d (%d%%)\n", out.Completion.Completed, out.Completion.Total, out.Completion.Percentage)
	fmt.Fprintf(w, "XP\t%d/%d (%d%%)\n", out.XP.Earned, out.XP.Total, out.XP.Percentage)
	fmt.Fprintf(w, "Packing\t%d/%d (%d%%)\n", out.Packing.Completed, out.Packing.Total, out.Packing.Percentage)
	fmt.Fprintf(w, "Remaining\t%s\n", out.Remaining)
	fmt.Fprintln(w)
	for _, c := range out.Categories {
		fmt.Fprintf(w, "  %s\t%d/%d\t%d%%\n", c.Name, c.Completed, c.Total, c.Percentage)
	}
	fmt.Fprintln(w)
	sum := out.Summary
	fmt.Fprintf(w, "Distance\t%d km\n", sum.TotalDistance)
	fmt.Fprintf(w, "Drive time\t%s\n", sum.TotalDriveTime)
	fmt.Fprintf(w, "Days\t%d (%d driving, %d nights)\n", sum.TotalDays, sum.DrivingDays, sum.AccommodationNights)
	fmt.Fprintf(w, "Estimated cost\t%d %s\n", sum.EstimatedCost.Total, sum.EstimatedCost.Currency)
}
