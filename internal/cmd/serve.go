package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/willfong/insurance-assistant/internal/server"
)

var servePort int

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Start the HTTP server that answers fulfillment webhooks.

Routes:
  GET  /             liveness banner
  POST /webhook      fulfillment request (session + queryResult.queryText)
  POST /api/v1/chat  plain JSON chat ({"session_id", "message"})
  GET  /healthz      dependency health
  GET  /metrics      Prometheus metrics

The server runs until interrupted (Ctrl+C) and then drains in-flight
requests and pending audit records.

Example:
  assistant serve
  PORT=8080 assistant serve
  assistant serve --config prod.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server.port and PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			fmt.Fprintln(os.Stderr, newUI().Error(err.Error()))
		}
	}()

	u := newUI()
	fmt.Println(u.Header("Insurance Assistant"))
	fmt.Println()
	fmt.Println(u.KeyValue("Listen", cfg.Server.Addr()))
	fmt.Println(u.KeyValue("Sessions", cfg.Session.Store))
	fmt.Println(u.KeyValue("Audit", cfg.Audit.Backend))
	fmt.Println(u.KeyValue("Reference", cfg.Reference.Source))
	fmt.Println(u.KeyValue("Feedback End", cfg.Session.FeedbackCompletion))
	fmt.Println()

	srv := server.New(cfg.Server, a.orch, a.serverOptions()...)
	return srv.Run(ctx)
}
