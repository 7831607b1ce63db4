// Package normalize converts raw provider records into canonical posts.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/scopelens/intel-cli/internal/model"
	"github.com/scopelens/intel-cli/pkg/apify"
)

// Error reports a single record that failed normalization. The batch is
// never aborted for one bad record; the orchestrator counts these.
type Error struct {
	UID    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("normalize: record %q: %s", e.UID, e.Reason)
}

var (
	hashtagRe  = regexp.MustCompile(`#(\w+)`)
	relativeRe = regexp.MustCompile(`(?i)^(\d+)\s*(mo|months?|w|weeks?|d|days?|h|hours?|m|minutes?)(\s+ago)?$`)
)

// Normalize converts one raw provider record into a pending Post owned by
// profile. It is pure and deterministic: identical input yields a
// byte-identical post, which dedup correctness depends on. The returned
// post has no storage ID; the store assigns one on first insert.
func Normalize(raw apify.RawPost, profile model.Profile) (model.Post, error) {
	publishedAt, err := parsePostedAt(raw.PostedAt)
	if err != nil {
		var ne *Error
		if errors.As(err, &ne) {
			ne.UID = raw.UID
		}
		return model.Post{}, err
	}

	return model.Post{
		ProfileID:   profile.ID,
		IdentityKey: identityKey(profile.ID, raw),
		URL:         raw.URL,
		Content:     raw.Text,
		PublishedAt: publishedAt,
		Likes:       max(raw.Reactions, 0),
		Comments:    max(raw.Comments, 0),
		Shares:      max(raw.Reposts, 0),
		Hashtags:    extractHashtags(raw.Text),
		Sentiment:   model.SentimentUnknown,
		Status:      model.PostStatusPending,
	}, nil
}

// identityKey fingerprints a post within its profile. The provider-native
// uid is preferred; records without one fall back to hashing content plus
// the raw timestamp string, so repeated fetches of the same post always
// produce the same key.
func identityKey(profileID string, raw apify.RawPost) string {
	h := sha256.New()
	h.Write([]byte(profileID))
	h.Write([]byte{0})
	if raw.UID != "" {
		h.Write([]byte(raw.UID))
	} else {
		h.Write([]byte(raw.Text))
		h.Write([]byte{0})
		h.Write([]byte(raw.PostedAt))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// parsePostedAt accepts RFC 3339 timestamps and the relative forms the
// actor emits for recent posts ("3d", "2 hours ago"). Anything else fails
// the record.
func parsePostedAt(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &Error{Reason: "missing timestamp"}
	}

	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC(), nil
	}

	if m := relativeRe.FindStringSubmatch(s); m != nil {
		qty, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, &Error{Reason: fmt.Sprintf("bad relative quantity %q", s)}
		}
		now := time.Now().UTC()
		switch strings.ToLower(m[2])[0] {
		case 'w':
			return now.AddDate(0, 0, -7*qty), nil
		case 'd':
			return now.AddDate(0, 0, -qty), nil
		case 'h':
			return now.Add(-time.Duration(qty) * time.Hour), nil
		default: // "m" is minutes, "mo" months
			if strings.HasPrefix(strings.ToLower(m[2]), "mo") {
				return now.AddDate(0, -qty, 0), nil
			}
			return now.Add(-time.Duration(qty) * time.Minute), nil
		}
	}

	return time.Time{}, &Error{Reason: fmt.Sprintf("unparseable timestamp %q", s)}
}

// extractHashtags returns lowercased hashtags in order of first appearance.
func extractHashtags(text string) []string {
	matches := hashtagRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var tags []string
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	return tags
}
