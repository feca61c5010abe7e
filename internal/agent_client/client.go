// Package agent_client talks to the conversation runtime that serves
// trained models. Deployment pushes the bot's latest model to it.
package agent_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client for the model runtime agent.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new runtime agent client.
func NewClient(logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type deployRequest struct {
	Bot string `json:"bot"`
}

type deployResponse struct {
	Message string `json:"message"`
}

// Deploy asks the agent at url to load the bot's latest trained model.
// The returned string is the agent's human-readable outcome.
func (c *Client) Deploy(ctx context.Context, url, token, bot string) (string, error) {
	body, err := json.Marshal(deployRequest{Bot: bot})
	if err != nil {
		return "", fmt.Errorf("failed to encode deploy request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to create deploy request", zap.Error(err))
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to reach runtime agent", zap.Error(err))
		return "", fmt.Errorf("failed to reach runtime agent: %w", err)
	}
	defer resp.Body.Close()

	var decoded deployResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.logger.Error("Failed to decode agent response", zap.Error(err))
		return "", fmt.Errorf("failed to decode agent response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Runtime agent rejected deployment",
			zap.Int("status", resp.StatusCode), zap.String("message", decoded.Message))
		if decoded.Message != "" {
			return "", fmt.Errorf("%s", decoded.Message)
		}
		return "", fmt.Errorf("runtime agent returned status: %d", resp.StatusCode)
	}
	return decoded.Message, nil
}
