package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopelens/intel-cli/internal/model"
)

func TestParseResult_PlainJSON(t *testing.T) {
	raw := `{"sentiment":"positive","alerts":[{"category":"funding","summary":"Closed Series B","confidence":0.92,"severity":"high"}]}`

	res, err := parseResult(raw)
	require.NoError(t, err)
	assert.Equal(t, model.SentimentPositive, res.Sentiment)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "funding", res.Candidates[0].Category)
	assert.Equal(t, 0.92, res.Candidates[0].Confidence)
	assert.Equal(t, "high", res.Candidates[0].Severity)
}

func TestParseResult_FencedJSON(t *testing.T) {
	raw := "```json\n{\"sentiment\":\"negative\",\"alerts\":[]}\n```"

	res, err := parseResult(raw)
	require.NoError(t, err)
	assert.Equal(t, model.SentimentNegative, res.Sentiment)
	assert.Empty(t, res.Candidates)
}

func TestParseResult_ProseAroundJSON(t *testing.T) {
	raw := "Here is the classification:\n{\"sentiment\":\"neutral\",\"alerts\":[]}\nLet me know if you need more."

	res, err := parseResult(raw)
	require.NoError(t, err)
	assert.Equal(t, model.SentimentNeutral, res.Sentiment)
}

func TestParseResult_InvalidFailsClosed(t *testing.T) {
	for _, raw := range []string{
		"",
		"the post seems positive",
		`{"sentiment":"positive","alerts":[{"category":"funding","confidence":1.5}]}`,
	} {
		_, err := parseResult(raw)
		require.Error(t, err, "raw %q", raw)
		kind, ok := KindOf(err)
		require.True(t, ok)
		assert.Equal(t, KindInvalidResponse, kind)
	}
}

func TestParseSentiment_UnknownLabels(t *testing.T) {
	assert.Equal(t, model.SentimentPositive, parseSentiment(" Positive "))
	assert.Equal(t, model.SentimentUnknown, parseSentiment("mixed"))
	assert.Equal(t, model.SentimentUnknown, parseSentiment(""))
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, cleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, cleanJSON(`prefix {"a":1} suffix`))
	assert.Equal(t, "", cleanJSON("   "))
}

func TestKindOf_NonEnrichmentError(t *testing.T) {
	_, ok := KindOf(assert.AnError)
	assert.False(t, ok)
}
