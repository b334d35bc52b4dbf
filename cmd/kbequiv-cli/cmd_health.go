package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server liveness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := apiClient.Health(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			switch flagFmt {
			case formatQuietName:
				fmt.Fprintln(w, h.Status)
			case formatTableName:
				formatTable(w, []string{"STATUS", "VERSION", "BACKEND", "SCHEMA", "UPTIME"}, [][]string{{
					h.Status, h.Version, h.Backend,
					fmt.Sprintf("%d", h.SchemaVersion),
					fmt.Sprintf("%.0fs", h.UptimeSeconds),
				}})
			default:
				return formatJSON(w, h)
			}
			return nil
		},
	}
}
