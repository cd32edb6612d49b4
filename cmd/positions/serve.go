package main

import (
	"github.com/spf13/cobra"

	positions "github.com/paulgrammer/positions"
)

func newServeCmd(c *cli) *cobra.Command {
	var (
		addr    string
		baseURL string
		name    string
		mcp     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local proxy route and the MCP bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if addr != "" {
				c.cfg.Proxy.Addr = addr
			}
			if cmd.Flags().Changed("mcp") {
				c.cfg.MCP.Enabled = mcp
			}

			// MCP tools call the backend directly with the stored token
			client := positions.NewFromConfig(c.cfg,
				positions.WithTokenStore(c.tokens),
				positions.WithLogger(c.logger),
			)

			opts := []positions.ServerOption{
				positions.WithServerLogger(c.logger),
				positions.WithServerClient(client),
			}
			if baseURL != "" {
				opts = append(opts, positions.WithServerBaseURL(baseURL))
			}
			if name != "" {
				opts = append(opts, positions.WithServerName(name))
			}

			srv, err := positions.NewServerFromConfig(c.cfg, opts...)
			if err != nil {
				return err
			}

			if err := srv.Start(ctx); err != nil {
				return err
			}
			defer srv.Close()

			c.logger.Info("Server started successfully")

			<-ctx.Done()
			c.logger.Info("Shutting down proxy...")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", getEnvOrDefault("SERVER_ADDR", ""), "Listen address (default from config, :3000)")
	cmd.Flags().StringVar(&baseURL, "base-url", getEnvOrDefault("SERVER_BASE_URL", ""), "Public base URL advertised to MCP clients")
	cmd.Flags().StringVar(&name, "name", getEnvOrDefault("SERVER_NAME", ""), "Name reported to MCP clients (default from config)")
	cmd.Flags().BoolVar(&mcp, "mcp", false, "Serve the MCP bridge on /sse and /message")

	return cmd
}
