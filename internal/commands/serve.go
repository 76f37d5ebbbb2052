package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kassabok/kassabok/internal/assistant"
	"github.com/kassabok/kassabok/internal/server"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := openCompany(ctx, opts)
			if err != nil {
				return err
			}
			defer c.Close()

			registry, err := assistant.NewRegistry(assistant.DefaultTools(assistant.Runtime{
				Ledger:      c.ledger,
				Accounts:    c.chart,
				FiscalMonth: c.fiscalMonth,
				FiscalDay:   c.fiscalDay,
			})...)
			if err != nil {
				return err
			}
			ac := c.cfg.Assistant
			orchOpts := []assistant.Option{assistant.WithAudit(c.audit)}
			if ac.Timeout > 0 {
				orchOpts = append(orchOpts, assistant.WithTimeout(ac.Timeout))
			}
			if ac.MaxHandoffs > 0 {
				orchOpts = append(orchOpts, assistant.WithMaxHandoffs(ac.MaxHandoffs))
			}
			if ac.ActionTTL > 0 {
				orchOpts = append(orchOpts, assistant.WithActionTTL(ac.ActionTTL))
			}
			// No completion service is wired in; chat turns answer with an E frame.
			orch := assistant.NewOrchestrator(assistant.Unavailable{}, registry, orchOpts...)

			srv := server.New(server.Deps{
				Ledger:      c.ledger,
				Accounts:    c.chart,
				Review:      c.review,
				Assistant:   orch,
				FiscalMonth: c.fiscalMonth,
				FiscalDay:   c.fiscalDay,
			},
				server.WithLogger(c.log),
				server.WithChunkDelay(ac.ChunkDelay, ac.ChunkSize),
			)

			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			return srv.ListenAndServe(c.context(ctx), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default server.addr from kassabok.yaml)")
	return cmd
}
