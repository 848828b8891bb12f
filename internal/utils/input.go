package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

func ValidEmail(email string) bool {
	return validate.Var(email, "required,email,max=150") == nil
}

// SplitList splits a comma separated value into trimmed, non-empty, de-duplicated items.
func SplitList(s string) []string {
	return CleanList(strings.Split(s, ","))
}

func CleanList(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" || seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
	}
	return out
}

// StringList decodes either a JSON array of strings or a comma separated string.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var arr []string
	if err := json.Unmarshal(b, &arr); err == nil {
		*l = CleanList(arr)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expected string or array of strings")
	}
	*l = SplitList(s)
	return nil
}

// FlexInt decodes a JSON number or a numeric string holding a whole number.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("expected number")
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
			return fmt.Errorf("expected number, got %q", s)
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return fmt.Errorf("expected whole number, got %v", f)
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("number %v out of range", f)
	}
	*n = FlexInt(f)
	return nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// ParseDate accepts RFC3339, HTML datetime-local and plain dates. Results are UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
