package positions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const positionsResourceURI = "positions://all"

// positionResources exposes the position list as a readable MCP resource
func positionResources(client *Client) []server.ServerResource {
	resource := mcp.NewResource(positionsResourceURI, "positions",
		mcp.WithResourceDescription("All job positions as returned by the backend"),
		mcp.WithMIMEType("application/json"),
	)

	handler := func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		v, err := client.GetPositions(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list positions: %w", err)
		}

		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal positions: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      positionsResourceURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	}

	return []server.ServerResource{{Resource: resource, Handler: handler}}
}
