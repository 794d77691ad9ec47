package model

import "time"

// PhotoCategory classifies a photo by which EXIF facts it carries.
type PhotoCategory string

const (
	CategoryTimeLocation PhotoCategory = "time-location" // capture time and GPS
	CategoryTimeOnly     PhotoCategory = "time-only"
	CategoryLocationOnly PhotoCategory = "location-only"
	CategoryNeither      PhotoCategory = "neither"
)

// Categorize derives the photo category from the presence of a capture time
// and a GPS coordinate. The category is always recomputed when either fact
// changes; it is never stored stale.
func Categorize(hasTime, hasGPS bool) PhotoCategory {
	switch {
	case hasTime && hasGPS:
		return CategoryTimeLocation
	case hasTime:
		return CategoryTimeOnly
	case hasGPS:
		return CategoryLocationOnly
	default:
		return CategoryNeither
	}
}

// ValidCategory reports whether s is one of the four photo categories.
func ValidCategory(s string) bool {
	switch PhotoCategory(s) {
	case CategoryTimeLocation, CategoryTimeOnly, CategoryLocationOnly, CategoryNeither:
		return true
	}
	return false
}

// Photo is an uploaded image plus its extracted metadata.
//
// The photo keeps its own copy of coordinate data: deleting a Location a
// photo references does not cascade here, and LocationID may dangle.
type Photo struct {
	ID           string  `json:"id"`
	UserID       string  `json:"userId"`
	FileName     string  `json:"fileName"` // object key in the blob store
	OriginalName string  `json:"originalName"`
	URL          string  `json:"url"`
	LocationID   *string `json:"locationId,omitempty"`

	TakenAt     *time.Time `json:"takenAt,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	GPSSource   string     `json:"gpsSource,omitempty"` // "exif" or "manual"
	CameraMake  string     `json:"cameraMake,omitempty"`
	CameraModel string     `json:"cameraModel,omitempty"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	SizeBytes   int64      `json:"sizeBytes"`
	MimeType    string     `json:"mimeType"`

	Category    PhotoCategory `json:"category"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	IsPublic    bool          `json:"isPublic"`

	Trashed   bool       `json:"trashed"`
	TrashedAt *time.Time `json:"trashedAt,omitempty"`

	Edited          bool       `json:"edited"`
	EditedAt        *time.Time `json:"editedAt,omitempty"`
	OriginalFileURL string     `json:"originalFileUrl,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasGPS reports whether the photo carries a coordinate.
func (p *Photo) HasGPS() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Recategorize recomputes Category from the current metadata.
func (p *Photo) Recategorize() {
	p.Category = Categorize(p.TakenAt != nil, p.HasGPS())
}

// PhotoStats is the per-user aggregate view over photo metadata.
type PhotoStats struct {
	Total      int                   `json:"total"`
	ByCategory map[PhotoCategory]int `json:"byCategory"`
	Trashed    int                   `json:"trashed"`
	Public     int                   `json:"public"`
	TotalBytes int64                 `json:"totalBytes"`
}
