package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/auralab/aura/engine/core"
	"github.com/go-resty/resty/v2"
)

// Client is a thin typed wrapper over the aura HTTP surface.
type Client struct {
	http *resty.Client
}

// Envelope mirrors the server response envelope.
type Envelope struct {
	Success               bool            `json:"success"`
	Data                  json.RawMessage `json:"data"`
	Error                 *EnvelopeError  `json:"error"`
	ProcessingTimeSeconds float64         `json:"processing_time_seconds"`
	Timestamp             string          `json:"timestamp"`
	Engine                string          `json:"engine"`
}

// EnvelopeError is the wire form of a failed request.
type EnvelopeError struct {
	Kind          string `json:"kind"`
	Message       string `json:"message"`
	Engine        string `json:"engine"`
	Field         string `json:"field"`
	CorrelationID string `json:"correlation_id"`
	Retryable     bool   `json:"retryable"`
}

func (e *EnvelopeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: field %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(60 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

func (c *Client) get(ctx context.Context, path string) (*Envelope, error) {
	resp, err := c.http.R().SetContext(ctx).Get(path)
	return decodeEnvelope(resp, err)
}

func (c *Client) post(ctx context.Context, path string, body any) (*Envelope, error) {
	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post(path)
	return decodeEnvelope(resp, err)
}

func decodeEnvelope(resp *resty.Response, err error) (*Envelope, error) {
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("undecodable response (status %d): %w", resp.StatusCode(), err)
	}
	if !env.Success {
		if env.Error != nil {
			return &env, env.Error
		}
		return &env, fmt.Errorf("request failed with status %d", resp.StatusCode())
	}
	return &env, nil
}

// Health fetches /health.
func (c *Client) Health(ctx context.Context) (*Envelope, error) {
	return c.get(ctx, "/health")
}

// Engines fetches the engine roster with schemas.
func (c *Client) Engines(ctx context.Context) (*Envelope, error) {
	return c.get(ctx, "/engines")
}

// Calculate runs one engine.
func (c *Client) Calculate(ctx context.Context, engine string, input, options core.Input) (*Envelope, error) {
	body := map[string]any{"input": input}
	if len(options) > 0 {
		body["options"] = options
	}
	return c.post(ctx, "/engines/"+engine+"/calculate", body)
}

// RunWorkflow runs a named multi-engine workflow.
func (c *Client) RunWorkflow(ctx context.Context, name string, input core.Input) (*Envelope, error) {
	return c.post(ctx, "/workflows/"+name+"/run", map[string]any{"input": input})
}

// Workflows lists available workflow recipes.
func (c *Client) Workflows(ctx context.Context) (*Envelope, error) {
	return c.get(ctx, "/workflows")
}
