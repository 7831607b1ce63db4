package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/scopelens/intel-cli/internal/model"
	"github.com/scopelens/intel-cli/internal/store"
)

// dedupe returns the posts whose identity keys are not yet stored for the
// profile, preserving input order. One storage round trip per batch.
// Duplicates inside the batch itself collapse to their first occurrence.
// A stale answer here only causes re-processing; the store's unique
// constraint on (profile_id, identity_key) is what prevents duplicate rows.
func dedupe(ctx context.Context, st store.Store, profileID string, posts []model.Post) ([]model.Post, error) {
	if len(posts) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(posts))
	for i := range posts {
		keys = append(keys, posts[i].IdentityKey)
	}
	existing, err := st.ExistingIdentityKeys(ctx, profileID, keys)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: dedupe lookup")
	}

	seen := make(map[string]bool, len(posts))
	fresh := make([]model.Post, 0, len(posts))
	for i := range posts {
		key := posts[i].IdentityKey
		if existing[key] || seen[key] {
			continue
		}
		seen[key] = true
		fresh = append(fresh, posts[i])
	}
	return fresh, nil
}
