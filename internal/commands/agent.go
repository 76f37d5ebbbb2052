package commands

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kassabok/kassabok/internal/agentlog"
	"github.com/kassabok/kassabok/internal/config"
)

func newAgentCommand(opts *globalOptions) *cobra.Command {
	agentCmd := &cobra.Command{
		Use:   "agent",
		Short: "Assistant operations",
	}
	agentCmd.AddCommand(newAgentLogCommand(opts))
	return agentCmd
}

func newAgentLogCommand(opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the assistant action log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCompany(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer c.Close()

			if c.cfg.Audit.Sink != config.AuditCSV {
				return errors.New("agent log reads the csv sink only; query the assistant_log collection instead")
			}
			entries, err := agentlog.NewCSVSink(c.dir).Tail(limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.Timestamp.Format("2006-01-02 15:04"), e.Agent, e.Action, e.VerificationID, e.Details)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "show the last n entries (0 for all)")
	return cmd
}
