package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	positions "github.com/paulgrammer/positions"
)

// cli carries the persistent flags shared by all subcommands
type cli struct {
	configFile string
	pageURL    string
	tokenFile  string
	logLevel   string

	cfg    *positions.Config
	logger *slog.Logger
	tokens *positions.FileTokenStore
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "positions",
		Short: "Client and development proxy for the positions API",
		Long: `positions talks to the positions backend: it authenticates, manages job
positions, and serves a local proxy route with permissive CORS headers for
front-end development.

Configuration is read from --config (YAML). Values may reference environment
variables, and a .env file in the working directory is loaded first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", getEnvOrDefault("POSITIONS_CONFIG", ""), "Path to the YAML configuration file")
	root.PersistentFlags().StringVar(&c.pageURL, "page-url", getEnvOrDefault("POSITIONS_PAGE_URL", ""), "URL of the page the client runs behind; enables proxy mode detection")
	root.PersistentFlags().StringVar(&c.tokenFile, "token-file", getEnvOrDefault("POSITIONS_TOKEN_FILE", "~/.positions/token"), "File holding the bearer token")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", getEnvOrDefault("LOG_LEVEL", ""), "Log level: debug, info, warn, error")

	root.AddCommand(
		newServeCmd(c),
		newLoginCmd(c),
		newRegisterCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newPositionsCmd(c),
	)

	return root
}

func (c *cli) init(stderr io.Writer) error {
	cfg := positions.DefaultConfig()
	if c.configFile != "" {
		parsed, err := positions.ParseConfig(c.configFile)
		if err != nil {
			return err
		}
		cfg = parsed
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}

	c.cfg = cfg
	c.logger = positions.NewLogger(*cfg.Logging, stderr)
	slog.SetDefault(c.logger)
	c.tokens = positions.NewFileTokenStore(c.tokenFile)

	return nil
}

func (c *cli) client() (*positions.Client, error) {
	opts := []positions.Option{
		positions.WithTokenStore(c.tokens),
		positions.WithLogger(c.logger),
	}

	if c.pageURL != "" {
		env, err := positions.EnvironmentFromURL(c.pageURL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, positions.WithEnvironment(env))
	}

	return positions.NewFromConfig(c.cfg, opts...), nil
}

// check turns an API failure into a CLI error, dropping the stored token
// when the backend rejects it.
func (c *cli) check(err error) error {
	if !errors.Is(err, positions.ErrAuthenticationRequired) {
		return err
	}

	if clearErr := c.tokens.Clear(); clearErr != nil {
		c.logger.Warn("Failed to clear stored token", "error", clearErr)
	}
	return fmt.Errorf("%w: run 'positions login'", err)
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
