package positions

import (
	"context"
	"encoding/json"
	"fmt"
)

// Credentials is the body of login and register
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// PositionInput is the body of create and update
type PositionInput struct {
	PositionCode string `json:"position_code"`
	PositionName string `json:"position_name"`
}

// Login authenticates against POST /auth/login.
func (c *Client) Login(ctx context.Context, username, password string) (any, error) {
	return c.send(ctx, POST, "/auth/login", Credentials{Username: username, Password: password})
}

// Register creates an account with POST /auth/register.
func (c *Client) Register(ctx context.Context, username, password string) (any, error) {
	return c.send(ctx, POST, "/auth/register", Credentials{Username: username, Password: password})
}

// GetPositions lists positions with GET /positions.
func (c *Client) GetPositions(ctx context.Context) (any, error) {
	return c.Request(ctx, "/positions", nil)
}

// CreatePosition creates a position with POST /positions.
func (c *Client) CreatePosition(ctx context.Context, in PositionInput) (any, error) {
	return c.send(ctx, POST, "/positions", in)
}

// UpdatePosition replaces position id with PUT /positions/{id}.
func (c *Client) UpdatePosition(ctx context.Context, id int, in PositionInput) (any, error) {
	return c.send(ctx, PUT, positionPath(id), in)
}

// DeletePosition removes position id with DELETE /positions/{id}.
func (c *Client) DeletePosition(ctx context.Context, id int) (any, error) {
	return c.Request(ctx, positionPath(id), &RequestOptions{Method: DELETE})
}

func (c *Client) send(ctx context.Context, method Method, endpoint string, payload any) (any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return c.Request(ctx, endpoint, &RequestOptions{Method: method, Body: body})
}

func positionPath(id int) string {
	return fmt.Sprintf("/positions/%d", id)
}

// TokenFromResponse extracts the bearer token from a login response.
func TokenFromResponse(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	for _, key := range []string{"access_token", "accessToken", "token"} {
		if token, ok := m[key].(string); ok && token != "" {
			return token, true
		}
	}
	return "", false
}
