package model

import "time"

// CanvasProject is a journal document: an ordered sequence of pages, each
// holding positioned text and image elements.
//
// Version is the optimistic-concurrency counter. Every successful save
// increments it by exactly one; a save carrying a stale expected version is
// rejected with both version numbers and the stored project is untouched.
type CanvasProject struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	Title        string       `json:"title"`
	CurrentPage  int          `json:"currentPage"`
	Pages        []CanvasPage `json:"pages"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
	Version      int          `json:"version"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// CanvasPage is one page of a project. The element list is ordered;
// rendering order is list order.
type CanvasPage struct {
	ID         string          `json:"id"`
	Background string          `json:"background,omitempty"`
	Elements   []CanvasElement `json:"elements"`
}

// CanvasElement is a positioned element on a page. Kind selects which of
// the payload fields are meaningful; the storage layer treats the whole
// page document as opaque JSON.
type CanvasElement struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"` // "text" or "image"
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
	ZIndex   int     `json:"zIndex,omitempty"`

	// text
	Content  string  `json:"content,omitempty"`
	FontFace string  `json:"fontFace,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Color    string  `json:"color,omitempty"`

	// image
	PhotoURL string `json:"photoUrl,omitempty"`
}

// CanvasIndex is the list projection of a project: everything except the
// page content, which can be large.
type CanvasIndex struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	PageCount    int       `json:"pageCount"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CanvasSave is a partial update to a project. Nil fields are left
// unchanged; ExpectedVersion must match the stored version for the save to
// be applied.
type CanvasSave struct {
	Title           *string      `json:"title,omitempty"`
	CurrentPage     *int         `json:"currentPage,omitempty"`
	Pages           []CanvasPage `json:"pages,omitempty"`
	ThumbnailURL    *string      `json:"thumbnailUrl,omitempty"`
	ExpectedVersion int          `json:"expectedVersion"`
}
