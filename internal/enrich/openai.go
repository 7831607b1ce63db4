package enrich

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	openai "github.com/sashabaranov/go-openai"
)

// openaiClient implements Client using the OpenAI chat completions API.
type openaiClient struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an enrichment client backed by the OpenAI API.
func NewOpenAI(apiKey, model string) Client {
	return &openaiClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (c *openaiClient) Classify(ctx context.Context, text string) (*Result, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   512,
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(text)},
		},
	})
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &Error{Kind: KindInvalidResponse, Err: eris.New("no completion choices")}
	}
	return parseResult(resp.Choices[0].Message.Content)
}

func classifyOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Err: err}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429, 503:
			return &Error{Kind: KindRateLimited, Err: err}
		case 408, 504:
			return &Error{Kind: KindTimeout, Err: err}
		default:
			return &Error{Kind: KindInvalidResponse, Err: err}
		}
	}

	return &Error{Kind: KindInvalidResponse, Err: eris.Wrap(err, "openai chat completion")}
}
