package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/christophergoltz/elogio-sub000/internal/extract"
)

func newPresenceCmd() *cobra.Command {
	var (
		week  string
		weeks int
	)

	presenceCmd := &cobra.Command{
		Use:   "presence",
		Short: "Show worked and expected hours per day",
		RunE: func(cmd *cobra.Command, args []string) error {
			anchor := time.Now()
			if week != "" {
				var err error
				anchor, err = parseDay(week)
				if err != nil {
					return err
				}
			}
			if weeks < 1 {
				return fmt.Errorf("--weeks must be at least 1")
			}

			components, err := newComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer components.Shutdown()

			anchors := make([]time.Time, weeks)
			for i := range anchors {
				anchors[i] = anchor.AddDate(0, 0, 7*i)
			}
			results, err := components.Session.PresenceRange(cmd.Context(), anchors)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, w := range results {
				if w == nil {
					fmt.Fprintf(out, "Week of %s: no data\n", anchors[i].Format("2006-01-02"))
					continue
				}
				printWeek(out, w)
			}
			return nil
		},
	}

	presenceCmd.Flags().StringVar(&week, "week", "", "any day of the wanted week, YYYY-MM-DD (default: today)")
	presenceCmd.Flags().IntVar(&weeks, "weeks", 1, "number of consecutive weeks to fetch")
	return presenceCmd
}

func printWeek(out io.Writer, w *extract.WeekPresence) {
	fmt.Fprintf(out, "Week of %s", w.WeekAnchor.Format("2006-01-02"))
	if w.EmployeeName != "" {
		fmt.Fprintf(out, " - %s", w.EmployeeName)
	}
	fmt.Fprintln(out)

	for _, d := range w.Days {
		marker := " "
		if d.Weekend {
			marker = "·"
		}
		fmt.Fprintf(out, "  %s %s  worked %-7s expected %-7s",
			marker, d.Date.Format("Mon 2006-01-02"), fmtDuration(d.Worked), fmtDuration(d.Expected))
		if len(d.BadgesIn) > 0 || len(d.BadgesOut) > 0 {
			fmt.Fprintf(out, "  in %v out %v", d.BadgesIn, d.BadgesOut)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "  total worked %s, expected %s, balance %s\n",
		fmtDuration(w.TotalWorked), fmtDuration(w.TotalExpected), fmtSignedDuration(w.Balance))
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	return fmt.Sprintf("%d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

func fmtSignedDuration(d time.Duration) string {
	if d < 0 {
		return "-" + fmtDuration(-d)
	}
	return "+" + fmtDuration(d)
}

func parseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
