package positions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// positionTools exposes the positions operations of client as MCP tools
func positionTools(client *Client) []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_positions",
				mcp.WithDescription("Lists all job positions with their codes and names"),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return toolResult(client.GetPositions(ctx))
			},
		},
		{
			Tool: mcp.NewTool("create_position",
				mcp.WithDescription("Creates a job position"),
				mcp.WithString("position_code", mcp.Required(), mcp.Description("Short unique code, e.g. A1")),
				mcp.WithString("position_name", mcp.Required(), mcp.Description("Human readable name, e.g. Clerk")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				in, err := positionInput(req.GetArguments())
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return toolResult(client.CreatePosition(ctx, in))
			},
		},
		{
			Tool: mcp.NewTool("update_position",
				mcp.WithDescription("Replaces the code and name of an existing job position"),
				mcp.WithNumber("id", mcp.Required(), mcp.Description("Position identifier")),
				mcp.WithString("position_code", mcp.Required(), mcp.Description("New position code")),
				mcp.WithString("position_name", mcp.Required(), mcp.Description("New position name")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				args := req.GetArguments()
				id, err := intArgument(args, "id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				in, err := positionInput(args)
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return toolResult(client.UpdatePosition(ctx, id, in))
			},
		},
		{
			Tool: mcp.NewTool("delete_position",
				mcp.WithDescription("Deletes a job position"),
				mcp.WithNumber("id", mcp.Required(), mcp.Description("Position identifier")),
			),
			Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				id, err := intArgument(req.GetArguments(), "id")
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				return toolResult(client.DeletePosition(ctx, id))
			},
		},
	}
}

// toolResult converts an API outcome into a tool result. API failures are
// reported to the model as error results rather than protocol errors.
func toolResult(v any, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		if errors.Is(err, ErrAuthenticationRequired) {
			return mcp.NewToolResultError("authentication required: log in with `positions login` and retry"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool response: %w", err)
	}

	return mcp.NewToolResultText(string(result)), nil
}

func positionInput(args map[string]any) (PositionInput, error) {
	code, err := stringArgument(args, "position_code")
	if err != nil {
		return PositionInput{}, err
	}
	name, err := stringArgument(args, "position_name")
	if err != nil {
		return PositionInput{}, err
	}
	return PositionInput{PositionCode: code, PositionName: name}, nil
}

func stringArgument(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("required argument '%s' not provided", key)
	}
	return v, nil
}

func intArgument(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("argument '%s' must be an integer", key)
		}
		return int(v), nil
	case int:
		return v, nil
	case nil:
		return 0, fmt.Errorf("required argument '%s' not provided", key)
	default:
		return 0, fmt.Errorf("argument '%s' must be a number, got %T", key, v)
	}
}
