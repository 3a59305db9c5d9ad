package config

import (
	"fmt"
	"strings"
)

// Kind names the classes of pages a site produces.
const (
	KindHome     = "home"
	KindPage     = "page"
	KindSection  = "section"
	KindTaxonomy = "taxonomy"
)

// Format names for rendered artifacts.
const (
	FormatHTML     = "HTML"
	FormatRSS      = "RSS"
	FormatJSON     = "JSON"
	FormatMarkdown = "Markdown"
)

// Outputs selects which formats each page kind renders to, in order.
type Outputs map[string][]string

// DefaultOutputs mirrors the conventional selection: everything gets HTML,
// the home page additionally aggregates RSS and a JSON index.
func DefaultOutputs() Outputs {
	return Outputs{
		KindHome:     {FormatHTML, FormatRSS, FormatJSON},
		KindPage:     {FormatHTML},
		KindSection:  {FormatHTML},
		KindTaxonomy: {FormatHTML},
	}
}

// For returns the format list for a kind, falling back to HTML only.
func (o Outputs) For(kind string) []string {
	if formats, ok := o[kind]; ok && len(formats) > 0 {
		return formats
	}
	return []string{FormatHTML}
}

// Has reports whether the kind includes the given format.
func (o Outputs) Has(kind, format string) bool {
	for _, f := range o.For(kind) {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

func (o Outputs) fillMissingKinds() {
	for kind, formats := range DefaultOutputs() {
		if _, ok := o[kind]; !ok {
			o[kind] = formats
		}
	}
}

func (o Outputs) validate(file string) error {
	knownKinds := map[string]bool{KindHome: true, KindPage: true, KindSection: true, KindTaxonomy: true}
	knownFormats := map[string]bool{}
	for _, f := range []string{FormatHTML, FormatRSS, FormatJSON, FormatMarkdown} {
		knownFormats[strings.ToLower(f)] = true
	}

	for kind, formats := range o {
		if !knownKinds[kind] {
			return NewConfigError(file, "outputs."+kind, "unknown page kind")
		}
		for _, f := range formats {
			if !knownFormats[strings.ToLower(f)] {
				return NewConfigError(file, "outputs."+kind, fmt.Sprintf("unknown output format %q", f))
			}
		}
	}
	return nil
}
