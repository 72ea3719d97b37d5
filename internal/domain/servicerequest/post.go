package servicerequest

import (
	"encoding/json"
	"strings"
	"time"
)

// WeakSignalPost is a social-media post that may mention a location. Posts
// corroborate official records and never replace them.
type WeakSignalPost struct {
	ID            string     `json:"post_id"`
	Category      string     `json:"category,omitempty"`
	Title         string     `json:"title,omitempty"`
	Text          string     `json:"text,omitempty"`
	CreatedAt     *time.Time `json:"created_utc,omitempty"`
	LocationHints []string   `json:"location_hints"`
}

// ParseLocationHints decodes a JSON array of location strings. Empty, null,
// malformed or non-array payloads yield an empty list; non-string elements
// are skipped.
func ParseLocationHints(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var items []interface{}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	hints := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			hints = append(hints, s)
		}
	}
	return hints
}

//Personal.AI order the ending
