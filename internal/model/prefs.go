package model

// Preferences is a user's persisted notification preference bag.
// Both maps are sparse: an absent key means the flag is enabled, so a
// partially-populated or legacy bag is always safe to consult.
type Preferences struct {
	// UserID identifies the owning user.
	UserID string `json:"user_id"`

	// Categories holds category-level flags keyed by the Category*
	// constants.
	Categories map[string]bool `json:"categories,omitempty"`

	// Checks holds per-condition overrides keyed by the Check*
	// constants.
	Checks map[string]bool `json:"checks,omitempty"`
}

// Allows reports whether a notification of the given category and
// check type may be created for this user. The category flag must be
// enabled, and when a per-check override is present it must be enabled
// too. checkType may be empty for non-date-check notifications.
func (p Preferences) Allows(category, checkType string) bool {
	if v, ok := p.Categories[category]; ok && !v {
		return false
	}
	if checkType != "" {
		if v, ok := p.Checks[checkType]; ok && !v {
			return false
		}
	}
	return true
}
