// Package event_client posts pipeline workloads to an external event
// worker. The worker pulls the uploaded files and runs the heavy part of
// the pipeline out of process.
package event_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// EnvVar is one entry of the workload environment the worker receives.
// Order matters: the worker reads the vector positionally.
type EnvVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Client for dispatching workloads to an event worker endpoint.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new event worker client.
func NewClient(logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// TriggerImport posts the import workload for the bot. The flag entries
// carry literal command-line switches so the worker can splice them into
// its invocation unchanged.
func (c *Client) TriggerImport(ctx context.Context, url, bot, user string, importData, overwrite bool) error {
	importFlag := ""
	if importData {
		importFlag = "--import-data"
	}
	overwriteFlag := ""
	if overwrite {
		overwriteFlag = "--overwrite"
	}
	env := []EnvVar{
		{Name: "BOT", Value: bot},
		{Name: "USER", Value: user},
		{Name: "IMPORT_DATA", Value: importFlag},
		{Name: "OVERWRITE", Value: overwriteFlag},
	}
	return c.post(ctx, url, env)
}

// TriggerModelEvent posts a training or testing workload for the bot.
func (c *Client) TriggerModelEvent(ctx context.Context, url, bot, user string) error {
	env := []EnvVar{
		{Name: "BOT", Value: bot},
		{Name: "USER", Value: user},
	}
	return c.post(ctx, url, env)
}

func (c *Client) post(ctx context.Context, url string, env []EnvVar) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode workload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		c.logger.Error("Failed to create request to event worker", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to reach event worker", zap.Error(err))
		return fmt.Errorf("failed to reach event worker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("Event worker returned non-OK status",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", payload))
		return fmt.Errorf("event worker returned status: %d", resp.StatusCode)
	}
	return nil
}
