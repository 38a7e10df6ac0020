// Package engine is the HTTP client for the delegation engine that
// actually runs the responder team.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"conexao-server/services/chat-gateway/internal/domain/team"
	"conexao-server/services/chat-gateway/internal/infrastructure/observability"
)

// Client implements the team.Engine interface.
type Client struct {
	httpClient *resty.Client
}

// NewClient creates a Resty-backed client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
	}
}

// Run calls the engine /v1/run endpoint and returns the raw reply. The
// per-turn deadline comes from ctx; the client timeout is a backstop.
func (c *Client) Run(ctx context.Context, req team.RunRequest) (*team.RunResult, error) {
	ctx, span := observability.StartEngineSpan(ctx, req.Model)
	defer span.End()

	var result team.RunResult
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/v1/run")
	if err != nil {
		err = fmt.Errorf("engine request: %w", err)
		observability.RecordError(span, err)
		return nil, err
	}

	if resp.IsError() {
		err = fmt.Errorf("engine error: %s %s", resp.Status(), resp.String())
		observability.RecordError(span, err)
		return nil, err
	}
	return &result, nil
}

// Ensure interface compliance.
var _ team.Engine = (*Client)(nil)
