// Package exif extracts capture metadata from uploaded images.
//
// Extraction is best effort: a photo without EXIF (screenshots, stripped
// exports, formats the decoder does not know) still uploads fine, it just
// lands in the "neither" category. Errors from the decoders are therefore
// swallowed, not propagated.
package exif

import (
	"bytes"
	"image"
	"time"

	// Dimension probing via image.DecodeConfig needs the formats
	// registered.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	goexif "github.com/rwcarlsen/goexif/exif"
)

// Metadata is what Extract could recover from the image bytes. Pointer
// fields are nil when the corresponding EXIF tag is absent or unreadable.
type Metadata struct {
	TakenAt     *time.Time
	Latitude    *float64
	Longitude   *float64
	CameraMake  string
	CameraModel string
	Width       int
	Height      int
}

// HasGPS reports whether a usable coordinate was recovered.
func (m *Metadata) HasGPS() bool {
	return m.Latitude != nil && m.Longitude != nil
}

// Extract pulls EXIF tags and pixel dimensions out of the image bytes.
// It never fails; missing or corrupt metadata yields zero fields.
func Extract(data []byte) *Metadata {
	meta := &Metadata{}

	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		meta.Width = cfg.Width
		meta.Height = cfg.Height
	}

	x, err := goexif.Decode(bytes.NewReader(data))
	if err != nil {
		return meta
	}

	if tm, err := x.DateTime(); err == nil {
		meta.TakenAt = &tm
	}

	if lat, lng, err := x.LatLong(); err == nil {
		// Some cameras write (0, 0) when the GPS fix was missing. Null
		// Island holds no photo worth plotting, so treat it as absent.
		if lat != 0 || lng != 0 {
			meta.Latitude = &lat
			meta.Longitude = &lng
		}
	}

	meta.CameraMake = stringTag(x, goexif.Make)
	meta.CameraModel = stringTag(x, goexif.Model)
	return meta
}

func stringTag(x *goexif.Exif, name goexif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return s
}
