package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newColleaguesCmd() *cobra.Command {
	var month string

	colleaguesCmd := &cobra.Command{
		Use:   "colleagues",
		Short: "Show the team absence grid for one month",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("invalid --month %q, want YYYY-MM", month)
				}
				monthStart = t
			}

			components, err := newComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer components.Shutdown()

			grid, err := components.Session.Colleagues(cmd.Context(), monthStart)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if grid == nil || len(grid.Colleagues) == 0 {
				fmt.Fprintln(out, "No colleague data for the requested month.")
				return nil
			}

			fmt.Fprintf(out, "Absences in %s\n", monthStart.Format("January 2006"))
			for _, row := range grid.Colleagues {
				if len(row.Days) == 0 {
					fmt.Fprintf(out, "  %-24s none\n", row.Name)
					continue
				}
				days := make([]int, 0, len(row.Days))
				for d := range row.Days {
					days = append(days, d)
				}
				sort.Ints(days)
				parts := make([]string, 0, len(days))
				for _, d := range days {
					parts = append(parts, fmt.Sprintf("%d (%s)", d, row.Days[d]))
				}
				fmt.Fprintf(out, "  %-24s %s\n", row.Name, strings.Join(parts, ", "))
			}
			return nil
		},
	}

	colleaguesCmd.Flags().StringVar(&month, "month", "", "month to show, YYYY-MM (default: current month)")
	return colleaguesCmd
}
