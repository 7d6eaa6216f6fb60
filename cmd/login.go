package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Verify credentials and the full portal bootstrap",
		Long:  `Runs the complete login choreography (CSRF, credential POST, session id, service handshakes) and reports who the portal thinks you are. Useful as a smoke test for config and credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			components, err := newComponents(cmd.Context())
			if err != nil {
				return err
			}
			defer components.Shutdown()

			s := components.Session.Session()
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in to %s\n", s.BaseURL)
			if s.EmployeeName != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Employee:    %s (id %d)\n", s.EmployeeName, s.EmployeeID)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "Employee:    unknown (handshake carried no id)")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Session id:  %s\n", s.SessionID)
			return nil
		},
	}
}
