package site

import (
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
)

// Site is the immutable view of the site handed to templates.
type Site struct {
	Title        string
	Description  string
	BaseURL      string
	LanguageCode string
	Params       map[string]any
	Menu         []config.MenuEntry

	// Pages are the regular content pages, newest first.
	Pages []*Page
}

func newSite(cfg *config.Config) *Site {
	return &Site{
		Title:        cfg.Title,
		Description:  cfg.Description,
		BaseURL:      strings.TrimSuffix(cfg.BaseURL, "/") + "/",
		LanguageCode: cfg.LanguageCode,
		Params:       cfg.Params,
		Menu:         cfg.SortedMenu(),
	}
}

// AbsURL joins a site-relative permalink onto the base URL.
func (s *Site) AbsURL(rel string) string {
	return strings.TrimSuffix(s.BaseURL, "/") + rel
}
