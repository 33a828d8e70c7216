// Package llm wraps an OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// ErrEmptyResponse is returned when the LLM answers without any content.
var ErrEmptyResponse = errors.New("failed to generate a valid LLM response")

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// Generator produces a completion for a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// Defaults applied by NewClient.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 3 * time.Second
)

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// MaxAttempts bounds the calls made per completion (default 3).
	MaxAttempts int
	// RetryDelay is the fixed pause between attempts (default 3s). A
	// negative delay retries without pausing.
	RetryDelay time.Duration
	HTTPClient *http.Client
}

// Client calls the chat completion API with a bounded retry loop. It is
// created once at startup and shared by every component that needs it.
type Client struct {
	client      openai.Client
	model       string
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// NewClient creates a client from cfg. The SDK's own retries are disabled so
// that MaxAttempts is the only retry policy.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	switch {
	case cfg.RetryDelay == 0:
		cfg.RetryDelay = DefaultRetryDelay
	case cfg.RetryDelay < 0:
		cfg.RetryDelay = 0
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		logger:      logger,
	}
}

// Generate returns the model's reply to messages at temperature 0.
func (c *Client) Generate(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    toParams(messages),
		Temperature: openai.Float(0),
	}
	return c.complete(ctx, params)
}

// CompleteWithStruct asks for a JSON reply that follows the schema of out and
// decodes it into out.
func (c *Client) CompleteWithStruct(ctx context.Context, out any, systemPrompt, userPrompt string) error {
	schema, err := GenerateSchemaFromType(out)
	if err != nil {
		return err
	}
	schemaStr, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: toParams([]Message{
			{Role: RoleSystem, Content: fmt.Sprintf("%s Here's the json schema you need to adhere to: <schema>%s</schema>", systemPrompt, schemaStr)},
			{Role: RoleUser, Content: userPrompt},
		}),
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				Type: "json_schema",
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "response",
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		},
	}

	content, err := c.complete(ctx, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to decode structured response: %w", err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		content, err := c.completeOnce(ctx, params)
		if err == nil {
			return content, nil
		}
		lastErr = err
		c.logger.Error("chat completion attempt failed", "attempt", attempt, "maxAttempts", c.maxAttempts, "error", err)

		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.retryDelay):
		}
	}
	return "", fmt.Errorf("chat completion failed after %d attempts: %w", c.maxAttempts, lastErr)
}

func (c *Client) completeOnce(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func toParams(messages []Message) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			params = append(params, openai.SystemMessage(m.Content))
		case RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Content))
		default:
			params = append(params, openai.UserMessage(m.Content))
		}
	}
	return params
}

// GenerateSchemaFromType generates a strict JSON schema for the struct (or
// pointer to struct) v. Every field without omitempty is required.
func GenerateSchemaFromType(v any) (map[string]any, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, errors.New("cannot generate a schema for nil")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	r := jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	schemaBytes, err := json.Marshal(r.ReflectFromType(t))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generated schema: %w", err)
	}

	var schema map[string]any
	if err := json.Unmarshal(schemaBytes, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	return schema, nil
}
