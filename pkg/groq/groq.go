// Package groq wraps the OpenAI-compatible Groq chat-completions API.
package groq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

type Config struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.groq.com/openai/v1"`
	APIKey      string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true" default:"llama-3.3-70b-versatile"`
	FastModel   string        `envconfig:"FAST_MODEL" split_words:"true" default:"llama-3.1-8b-instant"`
	Temperature float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

type Client struct {
	api       openaisdk.Client
	model     string
	fastModel string
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// Request is one chat-completion call. Model is optional; empty means
// the configured default, Fast selects the cheaper model instead.
type Request struct {
	Model       string
	Fast        bool
	Messages    []Message
	Temperature float64
	MaxTokens   int64
	JSONMode    bool
}

func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("groq api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		return nil, errors.New("groq model is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}

	fastModel := strings.TrimSpace(cfg.FastModel)
	if fastModel == "" {
		fastModel = model
	}

	return &Client{
		api:       openaisdk.NewClient(opts...),
		model:     model,
		fastModel: fastModel,
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

// Complete runs one chat completion and returns the first choice's text.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Messages) == 0 {
		return "", errors.New("at least one message is required")
	}

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openaisdk.SystemMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, openaisdk.AssistantMessage(m.Content))
		default:
			messages = append(messages, openaisdk.UserMessage(m.Content))
		}
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(c.resolveModel(req)),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openaisdk.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(req.MaxTokens)
	}
	if req.JSONMode {
		params.ResponseFormat = openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("groq: chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("groq: empty completion")
	}
	return completion.Choices[0].Message.Content, nil
}

func (c *Client) resolveModel(req Request) string {
	if m := strings.TrimSpace(req.Model); m != "" {
		return m
	}
	if req.Fast {
		return c.fastModel
	}
	return c.model
}
