package model

import "time"

// Location is a user-curated place in the location library.
//
// UsageCount tracks how many photos currently reference the location. It is
// advisory bookkeeping: increments and decrements are best effort, the
// decrement floors at zero, and concurrent updates are last-write-wins.
type Location struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Address    string     `json:"address,omitempty"`
	PlaceID    string     `json:"placeId,omitempty"`
	Category   string     `json:"category,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	UsageCount int        `json:"usageCount"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	IsPublic   bool       `json:"isPublic"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// LocationIndex is the reduced projection returned by list queries. It
// omits notes and the external place ID, which only the detail view needs.
type LocationIndex struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	Name       string     `json:"name"`
	Latitude   float64    `json:"latitude"`
	Longitude  float64    `json:"longitude"`
	Address    string     `json:"address,omitempty"`
	Category   string     `json:"category,omitempty"`
	UsageCount int        `json:"usageCount"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	IsPublic   bool       `json:"isPublic"`
	CreatedAt  time.Time  `json:"createdAt"`
}
