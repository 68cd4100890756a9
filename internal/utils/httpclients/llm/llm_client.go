package llm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"chat-server/internal/domain/chat"
	"chat-server/internal/domain/conversation"
	"chat-server/internal/utils/platformerrors"

	openai "github.com/sashabaranov/go-openai"
	"resty.dev/v3"
)

// Config carries the upstream provider settings. The client is constructed
// explicitly from it so tests can inject fakes without touching process
// environment.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string
	Title   string
}

// Client issues chat-completion requests (streaming and non-streaming)
// against an OpenAI-compatible provider.
type Client struct {
	client *resty.Client
	cfg    Config
}

func NewClient(client *resty.Client, cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	return &Client{client: client, cfg: cfg}
}

// Complete performs a non-streaming completion with the persona's system
// prompt prepended. The provider payload omitting the expected message field
// yields empty text, not an error.
func (c *Client) Complete(ctx context.Context, persona chat.Persona, messages []conversation.Message) (string, chat.TokenUsage, error) {
	if err := c.checkCredential(ctx); err != nil {
		return "", chat.TokenUsage{}, err
	}

	var respBody openai.ChatCompletionResponse
	resp, err := c.prepareRequest(ctx).
		SetBody(c.buildRequest(persona, messages, false)).
		SetResult(&respBody).
		Post(c.endpoint("/chat/completions"))
	if err != nil {
		return "", chat.TokenUsage{}, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "completion request failed")
	}
	if resp.IsError() {
		return "", chat.TokenUsage{}, c.errorFromResponse(ctx, resp, "completion request failed")
	}

	text := ""
	if len(respBody.Choices) > 0 {
		text = respBody.Choices[0].Message.Content
	}
	return text, chat.UsageFromProvider(respBody.Usage), nil
}

// Stream performs the same request shape with the streaming flag set and
// returns the raw response body for the relay to consume. All failure modes
// surface before any bytes are returned.
func (c *Client) Stream(ctx context.Context, persona chat.Persona, messages []conversation.Message) (io.ReadCloser, error) {
	if err := c.checkCredential(ctx); err != nil {
		return nil, err
	}

	req := c.prepareRequest(ctx).
		SetBody(c.buildRequest(persona, messages, true)).
		SetDoNotParseResponse(true)
	if req.Header.Get("Accept-Encoding") == "" {
		req.SetHeader("Accept-Encoding", "identity")
	}

	resp, err := req.Post(c.endpoint("/chat/completions"))
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerInfrastructure, err, "streaming request failed")
	}
	if resp.IsError() {
		return nil, c.errorFromResponse(ctx, resp, "streaming request failed")
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, "streaming request failed: empty response body", nil, "f7d7a2dc-1f51-4f2e-9f59-6a2fd6cb21f3")
	}

	return resp.RawResponse.Body, nil
}

// Model returns the configured upstream model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

func (c *Client) checkCredential(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeConfig, "OpenRouter API key is not configured", nil, "9ec1b1af-30a0-4dd8-8f03-8a3f2d24f89e")
	}
	return nil
}

func (c *Client) buildRequest(persona chat.Persona, messages []conversation.Message, stream bool) openai.ChatCompletionRequest {
	formatted := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	formatted = append(formatted, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: persona.SystemPrompt(),
	})
	for _, msg := range messages {
		role := openai.ChatMessageRoleAssistant
		if msg.Role == conversation.RoleUser {
			role = openai.ChatMessageRoleUser
		}
		formatted = append(formatted, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}
	return openai.ChatCompletionRequest{
		Model:    c.cfg.Model,
		Messages: formatted,
		Stream:   stream,
	}
}

func (c *Client) prepareRequest(ctx context.Context) *resty.Request {
	req := c.client.R().SetContext(ctx)
	req.SetHeader("Content-Type", "application/json")
	req.SetHeader("Authorization", fmt.Sprintf("Bearer %s", c.cfg.APIKey))
	if c.cfg.Referer != "" {
		req.SetHeader("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.SetHeader("X-Title", c.cfg.Title)
	}
	return req
}

func (c *Client) endpoint(path string) string {
	if c.cfg.BaseURL == "" {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return c.cfg.BaseURL + path
	}
	return c.cfg.BaseURL + "/" + path
}

func (c *Client) errorFromResponse(ctx context.Context, resp *resty.Response, message string) error {
	if resp == nil {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "1d0a6f2b-59cd-4f4b-8ff0-12c8e21b6a44")
	}

	// When the response was auto-parsed the buffered body is available via
	// String(); on DoNotParseResponse it must be drained from the raw body.
	trimmed := strings.TrimSpace(resp.String())
	if trimmed == "" && resp.RawResponse != nil && resp.RawResponse.Body != nil {
		defer resp.RawResponse.Body.Close()
		if body, err := io.ReadAll(resp.RawResponse.Body); err == nil {
			trimmed = strings.TrimSpace(string(body))
		}
	}
	if trimmed == "" {
		return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, message, nil, "a4a2cf0e-4a86-4f3e-9f0a-0f1d33c2706d")
	}
	return platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal, fmt.Sprintf("%s: %s", message, trimmed), nil, "5b7c3c64-f2da-4a6b-9be5-54a7b77c2b6e")
}
