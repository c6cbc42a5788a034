package content

import (
	"regexp"
	"strings"
)

// The slug algorithm is shared by the API, both sitemap variants, and the
// slug reverse lookup. Any change here changes every published article URL.

const slugTitleMax = 60

var (
	slugNonWord = regexp.MustCompile(`[^\w\s-]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugHyphens = regexp.MustCompile(`-+`)
	arxivIDLead = regexp.MustCompile(`^(\d{4}\.\d{4,5})`)
)

// Slugify lowercases, strips non-word characters, hyphenates whitespace and
// truncates to 60 characters without ever cutting mid-token.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugNonWord.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) <= slugTitleMax {
		return s
	}
	cut := s[:slugTitleMax]
	// A cut that lands mid-token backs up to the last complete token.
	if s[slugTitleMax] != '-' && !strings.HasSuffix(cut, "-") {
		if i := strings.LastIndexByte(cut, '-'); i > 0 {
			cut = cut[:i]
		}
	}
	return strings.TrimRight(cut, "-")
}

// Slug builds the canonical article URL segment. The arXiv id always leads
// so ArxivIDFromSlug can recover it.
func Slug(arxivID, title string) string {
	return arxivID + "-" + Slugify(title)
}

// ArxivIDFromSlug extracts the leading arXiv id from a slug produced by
// Slug, or "" when the slug does not start with one.
func ArxivIDFromSlug(slug string) string {
	return arxivIDLead.FindString(slug)
}
