// Package notify creates and de-duplicates the notifications produced
// by date-condition scans, subject to per-user preferences.
package notify

import (
	"context"
	"fmt"

	"github.com/nhle/taskwatch/internal/store"
)

// Filter decides whether a notification of a given category may be
// created for a user, based on the user's persisted preference bag.
type Filter struct {
	store store.Store
}

// NewFilter creates a Filter backed by the given store.
func NewFilter(s store.Store) *Filter {
	return &Filter{store: s}
}

// Allows reports whether a notification may be created for userID.
// The category flag must be enabled and, when checkType is non-empty
// and a per-check override exists, the override must be enabled too.
// Absent flags default to enabled, so legacy or partially-populated
// preference bags never suppress notifications.
func (f *Filter) Allows(ctx context.Context, userID, category, checkType string) (bool, error) {
	prefs, err := f.store.GetPreferences(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("loading preferences: %w", err)
	}
	return prefs.Allows(category, checkType), nil
}
