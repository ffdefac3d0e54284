package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is a catalogue entry offered by the agency.
type Service struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Title       string          `gorm:"size:200;not null" json:"title"`
	Slug        string          `gorm:"size:200;uniqueIndex;not null" json:"slug"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	BasePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"base_price"`

	// Technologies is always an ordered list of names; see NormalizeTechnologies.
	Technologies datatypes.JSONSlice[string] `json:"technologies"`
	IsActive     bool                        `gorm:"not null;default:true" json:"is_active"`
}

// NormalizeTechnologies converts the accepted legacy encodings of a
// technology list into an ordered, de-duplicated slice of names.
//
// Accepted shapes: a JSON list of strings, a JSON object whose keys are the
// names (order by key, only truthy values kept), a JSON string holding a
// comma separated list, or null.
func NormalizeTechnologies(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return []string{}, nil
	}

	var names []string
	switch trimmed[0] {
	case '[':
		var list []any
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("technologies: %w", err)
		}
		for _, v := range list {
			names = append(names, fmt.Sprint(v))
		}
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("technologies: %w", err)
		}
		for k, v := range obj {
			if truthy(v) {
				names = append(names, k)
			}
		}
		sort.Strings(names)
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("technologies: %w", err)
		}
		names = strings.Split(s, ",")
	default:
		return nil, fmt.Errorf("technologies: unsupported value %q", trimmed)
	}

	out := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[strings.ToLower(n)] {
			continue
		}
		seen[strings.ToLower(n)] = true
		out = append(out, n)
	}
	return out, nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
