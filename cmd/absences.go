package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newAbsencesCmd() *cobra.Command {
	var (
		from string
		to   string
	)

	absencesCmd := &cobra.Command{
		Use:   "absences",
		Short: "Show the absence calendar with decoded categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			fromDay := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
			toDay := fromDay.AddDate(0, 1, -1)
			var err error
			if from != "" {
				if fromDay, err = parseDay(from); err != nil {
					return err
				}
			}
			if to != "" {
				if toDay, err = parseDay(to); err != nil {
					return err
				}
			}
			if toDay.Before(fromDay) {
				return fmt.Errorf("--to is before --from")
			}

			components, err := newComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer components.Shutdown()

			cal, err := components.Session.Absences(cmd.Context(), fromDay, toDay)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cal == nil || len(cal.Days) == 0 {
				fmt.Fprintln(out, "No absence data for the requested range.")
				return nil
			}

			for _, d := range cal.Days {
				switch {
				case d.HasAbsence:
					label := d.Kind.String()
					if name, ok := cal.Legend[d.Color]; ok {
						label = fmt.Sprintf("%s (%s)", label, name)
					}
					fmt.Fprintf(out, "  %s  %s\n", d.Date.Format("Mon 2006-01-02"), label)
				case d.Holiday:
					fmt.Fprintf(out, "  %s  holiday\n", d.Date.Format("Mon 2006-01-02"))
				case d.RestDay:
					fmt.Fprintf(out, "  %s  rest day\n", d.Date.Format("Mon 2006-01-02"))
				}
			}
			return nil
		},
	}

	absencesCmd.Flags().StringVar(&from, "from", "", "range start, YYYY-MM-DD (default: first of this month)")
	absencesCmd.Flags().StringVar(&to, "to", "", "range end, YYYY-MM-DD (default: last of this month)")
	return absencesCmd
}
