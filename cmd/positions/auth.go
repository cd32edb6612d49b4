package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	positions "github.com/paulgrammer/positions"
)

type credentialFlags struct {
	username string
	password string
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.username, "username", "u", getEnvOrDefault("POSITIONS_USERNAME", ""), "Account username")
	cmd.Flags().StringVarP(&f.password, "password", "p", getEnvOrDefault("POSITIONS_PASSWORD", ""), "Account password (or POSITIONS_PASSWORD)")
}

func (f *credentialFlags) validate() error {
	if f.username == "" || f.password == "" {
		return errors.New("username and password are required")
	}
	return nil
}

func newLoginCmd(c *cli) *cobra.Command {
	var creds credentialFlags

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := creds.validate(); err != nil {
				return err
			}

			client, err := c.client()
			if err != nil {
				return err
			}

			resp, err := client.Login(cmd.Context(), creds.username, creds.password)
			if err != nil {
				return c.check(err)
			}

			token, ok := positions.TokenFromResponse(resp)
			if !ok {
				return errors.New("login response did not contain a token")
			}
			if err := c.tokens.Save(token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", creds.username)
			return nil
		},
	}
	creds.register(cmd)

	return cmd
}

func newRegisterCmd(c *cli) *cobra.Command {
	var creds credentialFlags

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := creds.validate(); err != nil {
				return err
			}

			client, err := c.client()
			if err != nil {
				return err
			}

			resp, err := client.Register(cmd.Context(), creds.username, creds.password)
			if err != nil {
				return c.check(err)
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	creds.register(cmd)

	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.tokens.Clear()
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the claims of the stored bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, ok := c.tokens.Token()
			if !ok {
				return errors.New("not logged in: run 'positions login'")
			}

			info, err := positions.InspectToken(token)
			if err != nil {
				return err
			}
			if info.Expired(time.Now()) {
				c.logger.Warn("Stored token has expired", "expires_at", info.ExpiresAt)
			}
			return printJSON(cmd.OutOrStdout(), info)
		},
	}
}
