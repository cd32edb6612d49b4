package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	positions "github.com/paulgrammer/positions"
)

func newPositionsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "positions",
		Aliases: []string{"pos"},
		Short:   "Manage job positions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List positions",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := c.client()
				if err != nil {
					return err
				}
				resp, err := client.GetPositions(cmd.Context())
				if err != nil {
					return c.check(err)
				}
				return printJSON(cmd.OutOrStdout(), resp)
			},
		},
		&cobra.Command{
			Use:   "create <code> <name>",
			Short: "Create a position",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				client, err := c.client()
				if err != nil {
					return err
				}
				resp, err := client.CreatePosition(cmd.Context(), positions.PositionInput{
					PositionCode: args[0],
					PositionName: args[1],
				})
				if err != nil {
					return c.check(err)
				}
				return printJSON(cmd.OutOrStdout(), resp)
			},
		},
		&cobra.Command{
			Use:   "update <id> <code> <name>",
			Short: "Replace a position's code and name",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				client, err := c.client()
				if err != nil {
					return err
				}
				resp, err := client.UpdatePosition(cmd.Context(), id, positions.PositionInput{
					PositionCode: args[1],
					PositionName: args[2],
				})
				if err != nil {
					return c.check(err)
				}
				return printJSON(cmd.OutOrStdout(), resp)
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a position",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				client, err := c.client()
				if err != nil {
					return err
				}
				resp, err := client.DeletePosition(cmd.Context(), id)
				if err != nil {
					return c.check(err)
				}
				return printJSON(cmd.OutOrStdout(), resp)
			},
		},
	)

	return cmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid position id '%s'", s)
	}
	return id, nil
}
