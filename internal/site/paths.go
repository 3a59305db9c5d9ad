package site

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// slugify turns a title or file name into a URL path element: lowercase,
// alphanumerics kept, everything else collapsed to single hyphens.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// fallbackTitle derives a human title from a file name like "my-first_post".
func fallbackTitle(name string) string {
	cleaned := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(cleaned)
}

// permalink computes the site-relative URL for a regular page.
// Section index documents collapse onto the section URL itself.
func permalink(section, slug string, isIndex bool) string {
	if isIndex {
		if section == "" {
			return "/"
		}
		return "/" + section + "/"
	}
	if section == "" {
		return "/" + slug + "/"
	}
	return "/" + section + "/" + slug + "/"
}

// outputPath maps a permalink to its HTML artifact path within the output
// directory ("/posts/hello/" -> "posts/hello/index.html").
func outputPath(permalink string) string {
	return path.Join(strings.TrimPrefix(permalink, "/"), "index.html")
}

// resolveCollisions rewrites duplicate permalinks with a deterministic
// numeric suffix. Documents arrive path-sorted, so the first claimant of a
// permalink is stable across builds.
func resolveCollisions(pages []*Page) {
	seen := map[string]int{}
	for _, p := range pages {
		n := seen[p.Permalink]
		seen[p.Permalink] = n + 1
		if n == 0 {
			continue
		}
		base := strings.TrimSuffix(p.Permalink, "/")
		unique := fmt.Sprintf("%s-%d/", base, n+1)
		for seen[unique] > 0 {
			n++
			unique = fmt.Sprintf("%s-%d/", base, n+1)
		}
		seen[unique] = 1
		p.Permalink = unique
	}
}
