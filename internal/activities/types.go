package activities

import (
	"time"

	"pearadox/internal/models"
	"pearadox/internal/sitemap"
)

type LoadSitemapArticlesInput struct {
	SkillLevel string `json:"skill_level"`
}

type LoadSitemapArticlesOutput struct {
	Articles []models.Article `json:"articles"`
}

type RenderSitemapInput struct {
	Articles    []models.Article `json:"articles"`
	Fallback    bool             `json:"fallback"`
	GeneratedAt time.Time        `json:"generated_at"`
}

type RenderSitemapOutput struct {
	SitemapXML string        `json:"sitemap_xml"`
	NewsXML    string        `json:"news_xml"`
	RobotsTxt  string        `json:"robots_txt"`
	Stats      sitemap.Stats `json:"stats"`
	Fallback   bool          `json:"fallback"`
}

type WriteSitemapFilesInput struct {
	SitemapXML string `json:"sitemap_xml"`
	NewsXML    string `json:"news_xml"`
	RobotsTxt  string `json:"robots_txt"`
}

type WriteSitemapFilesOutput struct {
	Paths []string `json:"paths"`
}
