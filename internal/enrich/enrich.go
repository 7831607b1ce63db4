// Package enrich classifies post text via an external language model,
// producing a sentiment label and alert candidates.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scopelens/intel-cli/internal/model"
)

// ErrorKind classifies enrichment failures.
type ErrorKind string

const (
	KindRateLimited     ErrorKind = "rate_limited"
	KindTimeout         ErrorKind = "timeout"
	KindInvalidResponse ErrorKind = "invalid_response"
)

// Error is the enrichment error taxonomy surface.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("enrich: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the enrichment error kind from an error chain.
func KindOf(err error) (ErrorKind, bool) {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return "", false
}

// AlertCandidate is one potential competitive signal detected in a post.
// Candidates below the configured confidence threshold are dropped by the
// alert synthesizer, not here.
type AlertCandidate struct {
	Category   string  `json:"category"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
	Severity   string  `json:"severity,omitempty"`
}

// Result is the classification outcome for a single post's text.
type Result struct {
	Sentiment  model.Sentiment  `json:"sentiment"`
	Candidates []AlertCandidate `json:"alerts"`
}

// Client classifies one post's text. Calls are independent and idempotent
// modulo provider nondeterminism, which callers must tolerate.
type Client interface {
	Classify(ctx context.Context, text string) (*Result, error)
}

const systemPrompt = `You are a competitive-intelligence analyst reviewing a competitor's social media post.

Respond ONLY with a valid JSON object, no prose, in this exact shape:
{
  "sentiment": "positive" | "neutral" | "negative",
  "alerts": [
    {
      "category": "product_launch" | "hiring" | "funding" | "press_negative" | "other",
      "summary": "what happened, 15 words or less",
      "confidence": 0.0-1.0,
      "severity": "low" | "medium" | "high"
    }
  ]
}

Include an alert only when the post contains news a competitor should act on.
An empty "alerts" array is the correct answer for routine posts.`

// buildUserPrompt wraps the post text for classification.
func buildUserPrompt(text string) string {
	return fmt.Sprintf("Post:\n%q", text)
}

// wireResult is the strict decode target for the model's reply.
type wireResult struct {
	Sentiment string           `json:"sentiment"`
	Alerts    []AlertCandidate `json:"alerts"`
}

// parseResult validates and decodes the model's reply. Anything that does
// not decode to the expected shape fails closed with KindInvalidResponse.
func parseResult(raw string) (*Result, error) {
	cleaned := cleanJSON(raw)
	if cleaned == "" {
		return nil, &Error{Kind: KindInvalidResponse, Err: eris.New("empty model reply")}
	}

	var wire wireResult
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(&wire); err != nil {
		return nil, &Error{Kind: KindInvalidResponse, Err: eris.Wrap(err, "decode model reply")}
	}

	res := &Result{
		Sentiment:  parseSentiment(wire.Sentiment),
		Candidates: wire.Alerts,
	}
	for _, c := range res.Candidates {
		if c.Confidence < 0 || c.Confidence > 1 {
			return nil, &Error{Kind: KindInvalidResponse, Err: eris.Errorf("confidence out of range: %f", c.Confidence)}
		}
	}
	return res, nil
}

func parseSentiment(label string) model.Sentiment {
	switch model.Sentiment(strings.ToLower(strings.TrimSpace(label))) {
	case model.SentimentPositive:
		return model.SentimentPositive
	case model.SentimentNegative:
		return model.SentimentNegative
	case model.SentimentNeutral:
		return model.SentimentNeutral
	default:
		return model.SentimentUnknown
	}
}

// cleanJSON strips markdown fences and extracts the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
