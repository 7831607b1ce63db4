package enrich

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// anthropicClient implements Client using the official anthropic-sdk-go.
type anthropicClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewAnthropic creates an enrichment client backed by the Anthropic API.
func NewAnthropic(apiKey, model string) Client {
	return &anthropicClient{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: 512,
	}
}

func (c *anthropicClient) Classify(ctx context.Context, text string) (*Result, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(c.model),
		MaxTokens:   c.maxTokens,
		Temperature: sdk.Float(0.2),
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(buildUserPrompt(text))),
		},
	})
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	var reply string
	for _, block := range msg.Content {
		if block.Type == "text" {
			reply += block.Text
		}
	}
	return parseResult(reply)
}

func classifyAnthropicError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 503, 529:
			return &Error{Kind: KindRateLimited, Err: err}
		case 408, 504:
			return &Error{Kind: KindTimeout, Err: err}
		default:
			return &Error{Kind: KindInvalidResponse, Err: err}
		}
	}

	return &Error{Kind: KindInvalidResponse, Err: eris.Wrap(err, "anthropic message")}
}
