// Package geo extracts coordinates and place names from shared map URLs.
package geo

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/szhou/travelog/internal/apperror"
)

// ParsedLocation is what could be recovered from a map URL. Name is best
// effort and may be empty; the coordinate is always present on success.
type ParsedLocation struct {
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Google Maps encodes the coordinate in several URL shapes depending on how
// the link was produced. Checked in priority order: the !3d/!4d data
// segment carries the pin itself, @lat,lng is only the viewport center.
var (
	dataPairRe = regexp.MustCompile(`!3d(-?\d+(?:\.\d+)?)!4d(-?\d+(?:\.\d+)?)`)
	atPairRe   = regexp.MustCompile(`@(-?\d+(?:\.\d+)?),(-?\d+(?:\.\d+)?)`)
	rawPairRe  = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)
)

// ParseMapsURL extracts a coordinate and, when present, a place name from a
// Google Maps URL. Returns apperror.ErrValidation when no coordinate can
// be found.
func ParseMapsURL(raw string) (*ParsedLocation, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperror.ValidationFailed("url", "url is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, apperror.ValidationFailed("url", "not a valid URL")
	}

	loc := &ParsedLocation{Name: placeName(u)}

	if m := dataPairRe.FindStringSubmatch(raw); m != nil {
		if fillCoordinate(loc, m[1], m[2]) {
			return loc, nil
		}
	}
	if m := atPairRe.FindStringSubmatch(raw); m != nil {
		if fillCoordinate(loc, m[1], m[2]) {
			return loc, nil
		}
	}
	// Search links put the coordinate in ?q=lat,lng (or ?query= on the
	// api variant).
	for _, param := range []string{"q", "query", "ll"} {
		if v := u.Query().Get(param); v != "" {
			if m := rawPairRe.FindStringSubmatch(v); m != nil && fillCoordinate(loc, m[1], m[2]) {
				return loc, nil
			}
			// A non-coordinate q= is the searched place name.
			if loc.Name == "" && param != "ll" {
				loc.Name = v
			}
		}
	}

	return nil, apperror.ValidationFailed("url", "no coordinates found in URL")
}

func fillCoordinate(loc *ParsedLocation, latStr, lngStr string) bool {
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	if err1 != nil || err2 != nil {
		return false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return false
	}
	loc.Latitude = lat
	loc.Longitude = lng
	return true
}

// placeName pulls the human-readable name out of a /maps/place/<name>/...
// path segment. Google percent-encodes spaces as '+' there.
func placeName(u *url.URL) string {
	parts := strings.Split(u.Path, "/")
	for i, part := range parts {
		if part == "place" && i+1 < len(parts) && parts[i+1] != "" {
			name := strings.ReplaceAll(parts[i+1], "+", " ")
			if decoded, err := url.PathUnescape(name); err == nil {
				name = decoded
			}
			return strings.TrimSpace(name)
		}
	}
	return ""
}
