// Package store persists conversations as ordered turn lists keyed by
// conversation id and owning user.
package store

import (
	"context"
	"errors"

	"impact-rag/internal/models"
)

// ErrNotFound covers both an absent conversation and one owned by another
// user, so existence of other users' conversations never leaks.
var ErrNotFound = errors.New("conversation not found")

// Store loads and appends conversation turns. Upsert with an empty
// conversationID creates a new conversation and returns its id; with a
// non-empty id it appends to the existing turn list.
type Store interface {
	Load(ctx context.Context, conversationID, userID string) ([]models.Turn, error)
	Upsert(ctx context.Context, userID string, turns []models.Turn, conversationID string) (string, error)
}

// conversationTitle derives the stored title from the first user turn,
// truncated to 80 runes.
func conversationTitle(turns []models.Turn) string {
	for _, t := range turns {
		if t.Role == models.RoleUser {
			r := []rune(t.Content)
			if len(r) > 80 {
				r = r[:80]
			}
			return string(r)
		}
	}
	return ""
}
