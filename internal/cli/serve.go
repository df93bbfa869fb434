package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"finmcp/internal/server"
)

func addServeCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newServeCmd(app))
}

func newServeCmd(app *App) *cobra.Command {
	var transport, addr string

	cmd := dataCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server",
		Long: `Run the MCP server.

With the stdio transport the server speaks MCP on stdin and stdout and logs
to stderr. With the http transport it serves streamable HTTP on /mcp along
with /healthz and /metrics.`,
		Example: `  finmcp serve
  finmcp serve --transport http --addr 127.0.0.1:8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config.Server
			if cmd.Flags().Changed("transport") {
				cfg.Transport = transport
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(app.Service, server.Options{
				Version: Version,
				Logger:  app.Logger,
				Metrics: app.Metrics,
				Breaker: app.Breaker,
			})

			app.Logger.Info().
				Str("transport", cfg.Transport).
				Str("provider", app.Service.Provider()).
				Str("backend", app.Service.Backend()).
				Msg("Starting MCP server")

			var err error
			switch cfg.Transport {
			case "stdio":
				err = srv.RunStdio(ctx)
			case "http":
				err = srv.ServeHTTP(ctx, cfg.Addr, cfg.ShutdownTimeout)
			default:
				return fmt.Errorf("unknown transport %q (use 'stdio' or 'http')", cfg.Transport)
			}
			if err != nil {
				return err
			}
			app.Logger.Info().Int("open_sessions", srv.Sessions().Len()).Msg("MCP server stopped")
			return nil
		},
	})

	cmd.Flags().StringVar(&transport, "transport", "", "transport: stdio or http (default from config)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address for the http transport")
	return cmd
}
