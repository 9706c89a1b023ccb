// Package assist turns a free-text description into a button configuration
// with a chat completion model.
package assist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/deemkeen/deckhand/domain"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
)

const DefaultModel = "gpt-4o-mini"

var (
	ErrMissingCredential = errors.New("no API key configured for button suggestions")
	ErrMalformedResponse = errors.New("model returned an unusable suggestion")
)

// Suggestion is a proposed button. It carries no id; the caller decides
// whether it becomes a new button or edits an existing one.
type Suggestion struct {
	Label   string `json:"label"`
	Icon    string `json:"icon"`
	Color   string `json:"color"`
	Payload string `json:"payload"`
}

// Apply copies the suggestion onto b, keeping its id.
func (s Suggestion) Apply(b domain.ButtonConfig) domain.ButtonConfig {
	b.Label = s.Label
	b.Icon = s.Icon
	b.Color = s.Color
	b.Payload = s.Payload
	return b
}

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	enabled bool
	model   string
	api     openai.Client
}

func NewClient(cfg Config) *Client {
	c := &Client{
		enabled: strings.TrimSpace(cfg.APIKey) != "",
		model:   cfg.Model,
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if !c.enabled {
		return c
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	opts = append(opts, option.WithHTTPClient(hc))

	c.api = openai.NewClient(opts...)
	return c
}

// Enabled reports whether a credential is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

func systemPrompt() string {
	return fmt.Sprintf(`You configure buttons for a stream deck. Reply with one JSON object and nothing else:
{"label": string (max 20 chars), "icon": string, "color": string, "payload": string}
icon must be one of: %s.
color must be one of: %s.
payload is the command text sent to paired devices, usually a small JSON object encoded as a string.`,
		strings.Join(domain.Icons, ", "), strings.Join(domain.Colors, ", "))
}

// Generate asks the model for a button matching description.
func (c *Client) Generate(ctx context.Context, description string) (Suggestion, error) {
	if !c.Enabled() {
		return Suggestion{}, ErrMissingCredential
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return Suggestion{}, fmt.Errorf("describe the button first")
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt()),
			openai.UserMessage(description),
		},
		Temperature: openai.Float(0.4),
	})
	if err != nil {
		return Suggestion{}, fmt.Errorf("suggestion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Suggestion{}, ErrMalformedResponse
	}
	return ParseSuggestion(resp.Choices[0].Message.Content)
}

// ParseSuggestion reads a model reply, tolerating Markdown code fences and an
// object payload. The icon and color are coerced onto the known sets.
func ParseSuggestion(content string) (Suggestion, error) {
	content = stripFences(content)
	if !gjson.Valid(content) {
		return Suggestion{}, fmt.Errorf("%w: not JSON", ErrMalformedResponse)
	}

	doc := gjson.Parse(content)
	if !doc.IsObject() {
		return Suggestion{}, fmt.Errorf("%w: not an object", ErrMalformedResponse)
	}

	label := strings.TrimSpace(doc.Get("label").String())
	if label == "" {
		return Suggestion{}, fmt.Errorf("%w: missing label", ErrMalformedResponse)
	}

	payload := doc.Get("payload")
	raw := payload.String()
	if payload.IsObject() || payload.IsArray() {
		raw = payload.Raw
	}

	return Suggestion{
		Label:   label,
		Icon:    domain.NormalizeIcon(doc.Get("icon").String()),
		Color:   domain.NormalizeColor(doc.Get("color").String()),
		Payload: raw,
	}, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
