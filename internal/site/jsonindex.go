package site

import (
	"encoding/json"
	"time"
)

// indexEntry is one record in the JSON site index, shaped for client-side
// search tooling.
type indexEntry struct {
	Title     string   `json:"title"`
	Permalink string   `json:"permalink"`
	Section   string   `json:"section,omitempty"`
	Date      string   `json:"date,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Summary   string   `json:"summary,omitempty"`
}

// renderJSONIndex produces the JSON index for a list page, in listing order.
func renderJSONIndex(site *Site, page *Page) ([]byte, error) {
	entries := make([]indexEntry, 0, len(page.Pages))
	for _, p := range page.Pages {
		e := indexEntry{
			Title:     p.Title,
			Permalink: site.AbsURL(p.Permalink),
			Section:   p.Section,
			Tags:      p.Tags,
			Summary:   p.Summary,
		}
		if !p.Date.IsZero() {
			e.Date = p.Date.Format(time.RFC3339)
		}
		entries = append(entries, e)
	}

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
