package sitemap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pearadox/internal/models"
)

func testArticle(slug, title string) models.Article {
	return models.Article{
		Slug:          slug,
		Title:         title,
		PublishedDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestValidSlug(t *testing.T) {
	require.True(t, ValidSlug("2401.00001-some-title"))
	require.False(t, ValidSlug(""))
	require.False(t, ValidSlug("-"))
	require.False(t, ValidSlug("undefined-some-title"))
	require.False(t, ValidSlug("undefined"))
}

func TestBuildIncludesStaticAndBlogAlways(t *testing.T) {
	g := NewGenerator("https://pearadox.app", DefaultSources())
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	out := g.Build(nil, now)
	require.Equal(t, 4, out.Stats.StaticURLs)
	require.Equal(t, 4, out.Stats.BlogURLs)
	require.Equal(t, 0, out.Stats.ArticleURLs)
	require.Equal(t, 8, out.Stats.TotalURLs)
	require.Contains(t, out.SitemapXML, "<loc>https://pearadox.app/</loc>")
	require.Contains(t, out.SitemapXML, "<loc>https://pearadox.app/blog/welcome-to-pearadox</loc>")
}

func TestBuildFiltersInvalidSlugs(t *testing.T) {
	g := NewGenerator("https://pearadox.app", DefaultSources())
	articles := []models.Article{
		testArticle("2401.00001-good-title", "Good Title"),
		testArticle("-", "Broken"),
		testArticle("undefined-missing-id", "Missing"),
		testArticle("", "Empty"),
	}
	out := g.Build(articles, time.Now())
	require.Equal(t, 1, out.Stats.ArticleURLs)
	require.Contains(t, out.SitemapXML, "/articles/2401.00001-good-title")
	require.NotContains(t, out.SitemapXML, "undefined")
	require.NotContains(t, out.SitemapXML, "<loc>https://pearadox.app/articles/-</loc>")
}

func TestBuildFallbackNeverFails(t *testing.T) {
	g := NewGenerator("https://pearadox.app", DefaultSources())
	out := g.BuildFallback(time.Now())
	require.True(t, out.Fallback)
	require.Equal(t, 8, out.Stats.TotalURLs)
	for _, p := range DefaultSources().StaticPages {
		require.Contains(t, out.SitemapXML, "<loc>https://pearadox.app"+p.Path+"</loc>")
	}
	for _, p := range DefaultSources().BlogPosts {
		require.Contains(t, out.SitemapXML, "<loc>https://pearadox.app"+p.Path+"</loc>")
	}
}

func TestBuildEscapesXML(t *testing.T) {
	g := NewGenerator("https://pearadox.app", DefaultSources())
	a := testArticle("2401.00001-q-a-attention", `Q&A: "Attention" <at scale>`)
	out := g.Build([]models.Article{a}, time.Now())
	require.Contains(t, out.NewsXML, "Q&amp;A: &quot;Attention&quot; &lt;at scale&gt;")
	require.NotContains(t, out.NewsXML, `Q&A:`)
}

func TestNewsSitemapMetadata(t *testing.T) {
	g := NewGenerator("https://pearadox.app", DefaultSources())
	out := g.Build([]models.Article{testArticle("2401.00001-title", "Title")}, time.Now())
	require.Contains(t, out.NewsXML, "<news:name>Pearadox</news:name>")
	require.Contains(t, out.NewsXML, "<news:language>en</news:language>")
	require.Contains(t, out.NewsXML, "<news:publication_date>2024-03-10</news:publication_date>")
}

func TestRobotsPointsAtSitemaps(t *testing.T) {
	g := NewGenerator("https://pearadox.app/", DefaultSources())
	out := g.Build(nil, time.Now())
	require.Contains(t, out.RobotsTxt, "User-agent: *")
	require.Contains(t, out.RobotsTxt, "Sitemap: https://pearadox.app/sitemap.xml")
	require.Contains(t, out.RobotsTxt, "Sitemap: https://pearadox.app/sitemap-news.xml")
}

func TestLoadSourcesMissingFileUsesDefaults(t *testing.T) {
	src, err := LoadSources("/nonexistent/sitemap.yaml")
	require.NoError(t, err)
	require.Len(t, src.StaticPages, 4)
	require.Len(t, src.BlogPosts, 4)
	require.Equal(t, "Pearadox", src.Publication)
}
