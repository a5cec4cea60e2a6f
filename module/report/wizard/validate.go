package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nandanugg/openrelief/module/core/domain"
	"github.com/nandanugg/openrelief/module/core/spatial"
)

// Errors maps a field name to a human-readable message. An empty map means
// the step is valid.
type Errors map[string]string

const (
	MsgRequired           = "required"
	MsgInvalidValue       = "invalid value"
	MsgInvalidCoordinates = "invalid coordinates"
	MsgMustConfirm        = "must be confirmed"
)

func validateFields(rules []FieldRule, payload map[string]any) Errors {
	errs := Errors{}
	for _, rule := range rules {
		if msg := validateField(rule, payload[rule.Name]); msg != "" {
			errs[rule.Name] = msg
		}
	}
	return errs
}

func validateField(rule FieldRule, v any) string {
	switch rule.Kind {
	case KindText:
		return validateText(rule, v)
	case KindChoice:
		return validateChoice(rule, v)
	case KindCoordinates:
		return validateCoordinates(rule, v)
	case KindList:
		return validateList(rule, v)
	case KindBoolean:
		return validateBoolean(rule, v)
	}
	return ""
}

func validateText(rule FieldRule, v any) string {
	if v == nil {
		return requiredMsg(rule)
	}
	s, ok := v.(string)
	if !ok {
		return MsgInvalidValue
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return requiredMsg(rule)
	}

	n := utf8.RuneCountInString(s)
	if rule.MinLength > 0 && n < rule.MinLength {
		return fmt.Sprintf("must be at least %d characters", rule.MinLength)
	}
	if rule.MaxLength > 0 && n > rule.MaxLength {
		return fmt.Sprintf("must be at most %d characters", rule.MaxLength)
	}
	return ""
}

func validateChoice(rule FieldRule, v any) string {
	s, ok := choiceValue(v)
	if !ok {
		if v == nil {
			return requiredMsg(rule)
		}
		return MsgInvalidValue
	}
	if s == "" {
		return requiredMsg(rule)
	}
	if len(rule.Choices) == 0 {
		return ""
	}
	for _, c := range rule.Choices {
		if c == s {
			return ""
		}
	}
	return "must be one of: " + strings.Join(rule.Choices, ", ")
}

func validateCoordinates(rule FieldRule, v any) string {
	if isEmpty(v) {
		return requiredMsg(rule)
	}
	if _, ok := coordinates(v); !ok {
		return MsgInvalidCoordinates
	}
	return ""
}

func validateList(rule FieldRule, v any) string {
	n, ok := listLen(v)
	if !ok {
		return MsgInvalidValue
	}
	if n == 0 {
		return requiredMsg(rule)
	}
	if rule.MaxItems > 0 && n > rule.MaxItems {
		return fmt.Sprintf("must contain at most %d items", rule.MaxItems)
	}
	return ""
}

func validateBoolean(rule FieldRule, v any) string {
	if v == nil {
		return requiredMsg(rule)
	}
	b, ok := v.(bool)
	if !ok {
		return MsgInvalidValue
	}
	if rule.Required && !b {
		return MsgMustConfirm
	}
	return ""
}

func requiredMsg(rule FieldRule) string {
	if rule.Required {
		return MsgRequired
	}
	return ""
}

func choiceValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	}
	return "", false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func listLen(v any) (int, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case []any:
		return len(t), true
	case []string:
		return len(t), true
	}
	return 0, false
}

// coordinates accepts a "<lat> <lng>" string, an object with
// latitude/longitude, or a domain.GeoPoint.
func coordinates(v any) (domain.GeoPoint, bool) {
	switch t := v.(type) {
	case string:
		p, err := spatial.ParseLocationText(t)
		return p, err == nil
	case domain.GeoPoint:
		return t, t.Validate() == nil
	case map[string]any:
		lat, okLat := number(t["latitude"])
		lon, okLon := number(t["longitude"])
		if !okLat || !okLon {
			return domain.GeoPoint{}, false
		}
		p := domain.GeoPoint{Lat: lat, Lon: lon}
		return p, p.Validate() == nil
	}
	return domain.GeoPoint{}, false
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	}
	return 0, false
}
