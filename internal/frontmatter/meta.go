package frontmatter

import (
	"fmt"
	"time"
)

// Meta is the typed view of the front matter fields the builder acts on.
// Unknown keys stay available to templates through the raw field map.
type Meta struct {
	Title   string
	Date    time.Time
	Draft   bool
	Weight  int
	Slug    string
	Summary string
	Tags    []string
}

// dateFormats are tried in order when the date field is a plain string.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Extract pulls the recognized fields out of a parsed front matter map.
// Missing fields keep their zero values; a present but unparsable date is an
// error so a typo does not silently resort a listing.
func Extract(fields map[string]any) (Meta, error) {
	var m Meta

	if v, ok := fields["title"].(string); ok {
		m.Title = v
	}
	if v, ok := fields["draft"].(bool); ok {
		m.Draft = v
	}
	if v, ok := fields["slug"].(string); ok {
		m.Slug = v
	}
	if v, ok := fields["summary"].(string); ok {
		m.Summary = v
	}

	switch v := fields["weight"].(type) {
	case int:
		m.Weight = v
	case int64:
		m.Weight = int(v)
	case float64:
		m.Weight = int(v)
	}

	if raw, ok := fields["date"]; ok {
		switch v := raw.(type) {
		case time.Time:
			m.Date = v
		case string:
			parsed := false
			for _, layout := range dateFormats {
				if d, err := time.Parse(layout, v); err == nil {
					m.Date = d
					parsed = true
					break
				}
			}
			if !parsed {
				return m, fmt.Errorf("unparsable date %q", v)
			}
		default:
			return m, fmt.Errorf("date has unexpected type %T", raw)
		}
	}

	if raw, ok := fields["tags"]; ok {
		switch v := raw.(type) {
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					m.Tags = append(m.Tags, s)
				}
			}
		case string:
			if v != "" {
				m.Tags = []string{v}
			}
		}
	}

	return m, nil
}
