package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/docvault/internal/core/domain"
	"github.com/kirillkom/docvault/internal/infrastructure/resilience"
)

const chatCompletionOperation = "llm.chat_completion"

type Options struct {
	APIKey   string
	BaseURL  string
	Model    string
	Timeout  time.Duration
	Executor *resilience.Executor
}

// Client talks to an OpenAI-compatible chat-completion endpoint.
type Client struct {
	api      *openai.Client
	model    string
	timeout  time.Duration
	executor *resilience.Executor
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"); base != "" {
		cfg.BaseURL = base
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: errorBodyTransport{base: http.DefaultTransport},
	}

	return &Client{
		api:      openai.NewClientWithConfig(cfg),
		model:    opts.Model,
		timeout:  timeout,
		executor: opts.Executor,
	}
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	call := func(callCtx context.Context) (string, error) {
		return c.complete(callCtx, systemPrompt, userPrompt)
	}
	content, err := resilience.Call(ctx, c.executor, chatCompletionOperation, call, classifyCompletionError)
	if err != nil {
		return "", wrapTemporaryIfNeeded(err)
	}
	return content, nil
}

func (c *Client) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	capture := &errorBody{}
	resp, err := c.api.CreateChatCompletion(withErrorBody(ctx, capture), openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		if ctx.Err() == nil && isTimeout(err) {
			return "", domain.WrapError(domain.ErrUpstream, "chat completion",
				fmt.Errorf("%w after %s", errUpstreamTimeout, c.timeout))
		}
		return "", toUpstreamError(err, capture.text())
	}
	if len(resp.Choices) == 0 {
		return "", domain.WrapError(domain.ErrUpstream, "chat completion", errors.New("response has no choices"))
	}
	return resp.Choices[0].Message.Content, nil
}

// toUpstreamError turns go-openai HTTP failures into *domain.UpstreamStatusError.
// rawBody is the error response as received, preferred over go-openai's parsed message.
func toUpstreamError(err error, rawBody string) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		body := rawBody
		if body == "" {
			body = apiErr.Message
		}
		return &domain.UpstreamStatusError{StatusCode: apiErr.HTTPStatusCode, Body: body}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		body := rawBody
		if body == "" {
			body = strings.TrimSpace(string(reqErr.Body))
		}
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &domain.UpstreamStatusError{StatusCode: reqErr.HTTPStatusCode, Body: body}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return domain.WrapError(domain.ErrUpstream, "decode chat completion", err)
	}
	return fmt.Errorf("chat completion request: %w", err)
}
