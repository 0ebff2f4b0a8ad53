// internal/models/user.go
package models

import "time"

// User is a registered explorer of the world.
type User struct {
	ID         string       `json:"id"`
	Username   string       `json:"username,omitempty"`
	FirstName  string       `json:"first_name,omitempty"`
	LastName   string       `json:"last_name,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	LastActive time.Time    `json:"last_active"`
	Settings   UserSettings `json:"settings"`
}

// UserSettings are per-user preferences, stored as a JSON blob.
type UserSettings struct {
	NotificationLevel string `json:"notification_level"` // all, important, none
	SpoilerFilter     bool   `json:"spoiler_filter"`     // hide undiscovered lore in search results
}

// DefaultSettings returns the settings assigned to new users.
func DefaultSettings() UserSettings {
	return UserSettings{
		NotificationLevel: "important",
		SpoilerFilter:     false,
	}
}

// ProgressEntry records one discovered lore entry for a user.
type ProgressEntry struct {
	UserID       string    `json:"user_id"`
	Category     string    `json:"category"`
	Name         string    `json:"name"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// CategoryStat is a per-category discovery count against the corpus total.
type CategoryStat struct {
	Category   string `json:"category"`
	Discovered int    `json:"discovered"`
	Total      int    `json:"total"`
}
