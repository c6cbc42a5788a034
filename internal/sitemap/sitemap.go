package sitemap

import (
	"strings"
	"time"

	"pearadox/internal/models"
)

// Stats mirrors the JSON shape returned by the /api/sitemap trigger.
type Stats struct {
	TotalURLs   int       `json:"totalUrls"`
	ArticleURLs int       `json:"articleUrls"`
	BlogURLs    int       `json:"blogUrls"`
	StaticURLs  int       `json:"staticUrls"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Output bundles the three generated artifacts.
type Output struct {
	SitemapXML string
	NewsXML    string
	RobotsTxt  string
	Stats      Stats
	Fallback   bool
}

type Generator struct {
	baseURL string
	src     Sources
}

func NewGenerator(baseURL string, src Sources) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/"), src: src}
}

// ValidSlug guards article URLs against missing titles or ids. A slug that
// is empty, exactly "-", or carries the client's "undefined" prefix is never
// published.
func ValidSlug(slug string) bool {
	if slug == "" || slug == "-" {
		return false
	}
	return !strings.HasPrefix(slug, "undefined")
}

// Build renders the sitemap, the Google-News variant, and robots.txt from
// the static sources plus the given articles. Static pages and blog posts
// are unconditional; articles are filtered through ValidSlug.
func (g *Generator) Build(articles []models.Article, now time.Time) Output {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")

	lastmod := now.UTC().Format("2006-01-02")
	for _, p := range g.src.StaticPages {
		g.writeURL(&b, p.Path, lastmod, p.ChangeFreq, p.Priority)
	}
	for _, p := range g.src.BlogPosts {
		g.writeURL(&b, p.Path, lastmod, p.ChangeFreq, p.Priority)
	}
	included := 0
	for _, a := range articles {
		if !ValidSlug(a.Slug) {
			continue
		}
		g.writeURL(&b, "/articles/"+a.Slug, a.PublishedDate.UTC().Format("2006-01-02"), "weekly", "0.8")
		included++
	}
	b.WriteString("</urlset>\n")

	stats := Stats{
		TotalURLs:   len(g.src.StaticPages) + len(g.src.BlogPosts) + included,
		ArticleURLs: included,
		BlogURLs:    len(g.src.BlogPosts),
		StaticURLs:  len(g.src.StaticPages),
		GeneratedAt: now.UTC(),
	}
	return Output{
		SitemapXML: b.String(),
		NewsXML:    g.buildNews(articles),
		RobotsTxt:  g.buildRobots(),
		Stats:      stats,
	}
}

// BuildFallback is the degraded path for unrecoverable fetch errors: only
// the static and blog URLs, so a broken database never blocks a deploy.
func (g *Generator) BuildFallback(now time.Time) Output {
	out := g.Build(nil, now)
	out.Fallback = true
	return out
}

func (g *Generator) writeURL(b *strings.Builder, path, lastmod, changefreq, priority string) {
	b.WriteString("  <url>\n")
	b.WriteString("    <loc>" + xmlEscape(g.baseURL+path) + "</loc>\n")
	if lastmod != "" {
		b.WriteString("    <lastmod>" + lastmod + "</lastmod>\n")
	}
	if changefreq != "" {
		b.WriteString("    <changefreq>" + changefreq + "</changefreq>\n")
	}
	if priority != "" {
		b.WriteString("    <priority>" + priority + "</priority>\n")
	}
	b.WriteString("  </url>\n")
}

func (g *Generator) buildNews(articles []models.Article) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:news="http://www.google.com/schemas/sitemap-news/0.9">` + "\n")
	for _, a := range articles {
		if !ValidSlug(a.Slug) {
			continue
		}
		b.WriteString("  <url>\n")
		b.WriteString("    <loc>" + xmlEscape(g.baseURL+"/articles/"+a.Slug) + "</loc>\n")
		b.WriteString("    <news:news>\n")
		b.WriteString("      <news:publication>\n")
		b.WriteString("        <news:name>" + xmlEscape(g.src.Publication) + "</news:name>\n")
		b.WriteString("        <news:language>" + xmlEscape(g.src.Language) + "</news:language>\n")
		b.WriteString("      </news:publication>\n")
		b.WriteString("      <news:publication_date>" + a.PublishedDate.UTC().Format("2006-01-02") + "</news:publication_date>\n")
		b.WriteString("      <news:title>" + xmlEscape(a.Title) + "</news:title>\n")
		b.WriteString("    </news:news>\n")
		b.WriteString("  </url>\n")
	}
	b.WriteString("</urlset>\n")
	return b.String()
}

func (g *Generator) buildRobots() string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("\n")
	b.WriteString("Sitemap: " + g.baseURL + "/sitemap.xml\n")
	b.WriteString("Sitemap: " + g.baseURL + "/sitemap-news.xml\n")
	return b.String()
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}
