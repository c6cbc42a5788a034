package workflows

import "pearadox/internal/sitemap"

type SitemapRefreshInput struct {
	SkillLevel string `json:"skill_level"`
	Reason     string `json:"reason,omitempty"`
}

type SitemapRefreshProgress struct {
	CurrentStep string            `json:"current_step"`
	Steps       map[string]string `json:"steps"`
}

type SitemapRefreshResult struct {
	Fallback bool          `json:"fallback"`
	Stats    sitemap.Stats `json:"stats"`
	Paths    []string      `json:"paths"`
}
