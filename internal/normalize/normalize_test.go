package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scopelens/intel-cli/internal/model"
	"github.com/scopelens/intel-cli/pkg/apify"
)

var profile = model.Profile{ID: "prof-1", CompanyID: "co-1", Platform: "linkedin", Handle: "acme"}

func TestNormalize_Deterministic(t *testing.T) {
	raw := apify.RawPost{
		UID:       "urn:li:activity:123",
		URL:       "https://linkedin.com/posts/123",
		Text:      "Shipping our new API today #launch #DevTools",
		PostedAt:  "2026-08-20T09:30:00Z",
		Reactions: 42,
		Comments:  7,
		Reposts:   3,
	}

	first, err := Normalize(raw, profile)
	require.NoError(t, err)
	second, err := Normalize(raw, profile)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	assert.Equal(t, "prof-1", first.ProfileID)
	assert.Equal(t, model.PostStatusPending, first.Status)
	assert.Equal(t, model.SentimentUnknown, first.Sentiment)
	assert.Equal(t, time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC), first.PublishedAt)
	assert.Equal(t, 42, first.Likes)
	assert.Equal(t, []string{"launch", "devtools"}, first.Hashtags)
}

func TestNormalize_IdentityKeyVariesByProfile(t *testing.T) {
	raw := apify.RawPost{UID: "urn:li:activity:123", Text: "hello", PostedAt: "2026-08-20T09:30:00Z"}

	a, err := Normalize(raw, profile)
	require.NoError(t, err)
	b, err := Normalize(raw, model.Profile{ID: "prof-2"})
	require.NoError(t, err)
	assert.NotEqual(t, a.IdentityKey, b.IdentityKey)
}

func TestNormalize_ContentHashFallbackWithoutUID(t *testing.T) {
	raw := apify.RawPost{Text: "no uid here", PostedAt: "2026-08-20T09:30:00Z"}

	a, err := Normalize(raw, profile)
	require.NoError(t, err)
	b, err := Normalize(raw, profile)
	require.NoError(t, err)
	assert.Equal(t, a.IdentityKey, b.IdentityKey)

	other := raw
	other.Text = "different text"
	c, err := Normalize(other, profile)
	require.NoError(t, err)
	assert.NotEqual(t, a.IdentityKey, c.IdentityKey)
}

func TestNormalize_MissingCountersDefaultToZero(t *testing.T) {
	raw := apify.RawPost{UID: "urn:x", Text: "quiet post", PostedAt: "2026-08-20T09:30:00Z", Reactions: -1}

	post, err := Normalize(raw, profile)
	require.NoError(t, err)
	assert.Zero(t, post.Likes)
	assert.Zero(t, post.Comments)
	assert.Zero(t, post.Shares)
}

func TestNormalize_MalformedTimestampFailsRecord(t *testing.T) {
	for _, ts := range []string{"", "not a date", "soon"} {
		raw := apify.RawPost{UID: "urn:bad", Text: "x", PostedAt: ts}
		_, err := Normalize(raw, profile)
		require.Error(t, err, "timestamp %q", ts)

		var ne *Error
		require.ErrorAs(t, err, &ne)
		assert.Equal(t, "urn:bad", ne.UID)
	}
}

func TestParsePostedAt_RelativeForms(t *testing.T) {
	now := time.Now().UTC()
	cases := map[string]time.Duration{
		"2h":         2 * time.Hour,
		"3 days ago": 3 * 24 * time.Hour,
		"1w":         7 * 24 * time.Hour,
		"45 minutes": 45 * time.Minute,
	}
	for in, offset := range cases {
		got, err := parsePostedAt(in)
		require.NoError(t, err, in)
		assert.WithinDuration(t, now.Add(-offset), got, time.Minute, in)
	}

	// Months go through calendar arithmetic rather than a fixed duration.
	got, err := parsePostedAt("2mo")
	require.NoError(t, err)
	assert.WithinDuration(t, now.AddDate(0, -2, 0), got, time.Minute)
}

func TestExtractHashtags_DedupedAndOrdered(t *testing.T) {
	tags := extractHashtags("#AI is eating #ai and #ML too #AI")
	assert.Equal(t, []string{"ai", "ml"}, tags)
	assert.Nil(t, extractHashtags("no tags here"))
}
