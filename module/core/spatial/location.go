package spatial

import (
	"math"
	"strconv"
	"strings"

	"github.com/nandanugg/openrelief/module/core/domain"
)

// ParseLocationText parses the "<lat> <lng>" form used by emergency events.
// Latitude always comes first. Values are never swapped: an out-of-range
// latitude is an error even if the pair would be valid reversed.
func ParseLocationText(text string) (domain.GeoPoint, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return domain.GeoPoint{}, &domain.MalformedLocationError{Text: text, Reason: "expected two values"}
	}

	lat, err := parseCoordinate(fields[0])
	if err != nil {
		return domain.GeoPoint{}, &domain.MalformedLocationError{Text: text, Reason: "latitude: " + err.Error()}
	}
	lon, err := parseCoordinate(fields[1])
	if err != nil {
		return domain.GeoPoint{}, &domain.MalformedLocationError{Text: text, Reason: "longitude: " + err.Error()}
	}

	if lat < -90 || lat > 90 {
		return domain.GeoPoint{}, &domain.MalformedLocationError{Text: text, Reason: "latitude must be between -90 and 90"}
	}
	if lon < -180 || lon > 180 {
		return domain.GeoPoint{}, &domain.MalformedLocationError{Text: text, Reason: "longitude must be between -180 and 180"}
	}
	return domain.GeoPoint{Lat: lat, Lon: lon}, nil
}

// FormatLocationText is the inverse of ParseLocationText.
func FormatLocationText(p domain.GeoPoint) string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + " " + strconv.FormatFloat(p.Lon, 'f', -1, 64)
}

type invalidNumberError string

func (e invalidNumberError) Error() string { return string(e) }

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, invalidNumberError("not a number")
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalidNumberError("not a finite number")
	}
	return v, nil
}
