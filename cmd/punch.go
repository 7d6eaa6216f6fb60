package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newPunchCmd() *cobra.Command {
	var at string

	punchCmd := &cobra.Command{
		Use:   "punch",
		Short: "Record a badge event (clock in or out)",
		Long:  `Sends a badge signal for the current instant, exactly like pressing the terminal button in the web UI. The server decides the direction; the command reports back what the terminal answered.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			when := time.Now()
			if at != "" {
				t, err := time.Parse("2006-01-02 15:04", at)
				if err != nil {
					return fmt.Errorf("invalid --at %q, want \"YYYY-MM-DD HH:MM\"", at)
				}
				when = t
			}

			components, err := newComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer components.Shutdown()

			res, err := components.Session.Punch(cmd.Context(), when)
			if err != nil {
				return err
			}
			if res == nil {
				return fmt.Errorf("the portal rejected the badge event")
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s at %s", res.Type, res.Timestamp.Format("15:04"))
			if res.Label != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " (%s)", res.Label)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	punchCmd.Flags().StringVar(&at, "at", "", `badge instant, "YYYY-MM-DD HH:MM" (default: now)`)
	return punchCmd
}
