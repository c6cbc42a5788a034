package sitemap

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Page is one always-included sitemap entry.
type Page struct {
	Path       string `yaml:"path"`
	ChangeFreq string `yaml:"changefreq"`
	Priority   string `yaml:"priority"`
}

// Sources lists the static pages and blog posts that appear in every
// generated sitemap regardless of database state.
type Sources struct {
	Publication string `yaml:"publication"`
	Language    string `yaml:"language"`
	StaticPages []Page `yaml:"static_pages"`
	BlogPosts   []Page `yaml:"blog_posts"`
}

func DefaultSources() Sources {
	return Sources{
		Publication: "Pearadox",
		Language:    "en",
		StaticPages: []Page{
			{Path: "/", ChangeFreq: "daily", Priority: "1.0"},
			{Path: "/about", ChangeFreq: "monthly", Priority: "0.7"},
			{Path: "/shop", ChangeFreq: "weekly", Priority: "0.6"},
			{Path: "/contact", ChangeFreq: "monthly", Priority: "0.5"},
		},
		BlogPosts: []Page{
			{Path: "/blog/welcome-to-pearadox", ChangeFreq: "yearly", Priority: "0.6"},
			{Path: "/blog/how-to-read-ai-papers", ChangeFreq: "yearly", Priority: "0.6"},
			{Path: "/blog/beginner-vs-intermediate-summaries", ChangeFreq: "yearly", Priority: "0.6"},
			{Path: "/blog/introducing-pear-tokens", ChangeFreq: "yearly", Priority: "0.6"},
		},
	}
}

// LoadSources overlays the YAML file at path onto the defaults. A missing or
// unreadable file falls back to the defaults; sitemap generation must never
// block on configuration.
func LoadSources(path string) (Sources, error) {
	src := DefaultSources()
	if path == "" {
		return src, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return src, nil
		}
		return src, fmt.Errorf("read sources file: %w", err)
	}
	if err := yaml.Unmarshal(data, &src); err != nil {
		return DefaultSources(), fmt.Errorf("parse sources file: %w", err)
	}
	return src, nil
}
