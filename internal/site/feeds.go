package site

import (
	"encoding/xml"
	"time"
)

// rssDateFormat is RFC 1123 with a numeric zone, the conventional RSS 2.0
// date shape.
const rssDateFormat = "Mon, 02 Jan 2006 15:04:05 -0700"

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate,omitempty"`
	GUID        string `xml:"guid"`
	Description string `xml:"description,omitempty"`
}

// renderRSS produces the RSS 2.0 feed for a list page. The feed is fully
// derived from content: lastBuildDate is the newest item date rather than
// the build's wall clock, keeping unchanged rebuilds byte-identical.
func renderRSS(site *Site, page *Page) ([]byte, error) {
	var newest time.Time
	items := make([]rssItem, 0, len(page.Pages))
	for _, p := range page.Pages {
		item := rssItem{
			Title:       p.Title,
			Link:        site.AbsURL(p.Permalink),
			GUID:        site.AbsURL(p.Permalink),
			Description: p.Summary,
		}
		if !p.Date.IsZero() {
			item.PubDate = p.Date.Format(rssDateFormat)
			if p.Date.After(newest) {
				newest = p.Date
			}
		}
		items = append(items, item)
	}

	channel := rssChannel{
		Title:       feedTitle(site, page),
		Link:        site.AbsURL(page.Permalink),
		Description: site.Description,
		Language:    site.LanguageCode,
		Items:       items,
	}
	if !newest.IsZero() {
		channel.LastBuildDate = newest.Format(rssDateFormat)
	}

	out, err := xml.MarshalIndent(rssFeed{Version: "2.0", Channel: channel}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func feedTitle(site *Site, page *Page) string {
	if page.Kind == KindHome {
		return site.Title
	}
	return page.Title + " | " + site.Title
}
