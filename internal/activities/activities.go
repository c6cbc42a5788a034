package activities

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"pearadox/internal/cache"
	"pearadox/internal/config"
	"pearadox/internal/content"
	"pearadox/internal/models"
	"pearadox/internal/sitemap"
	"pearadox/internal/storage"
	"pearadox/internal/util"
)

// sitemapWindow is how many of the most recent articles a sitemap covers.
const sitemapWindow = 1000

type Activities struct {
	cfg      config.Config
	resolver *content.Resolver
	gen      *sitemap.Generator
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	src, err := sitemap.LoadSources(cfg.SourcesFile)
	if err != nil {
		log.Printf("sitemap sources %s unreadable, using defaults: %v", cfg.SourcesFile, err)
	}
	c := cache.New(time.Duration(cfg.SitemapTTLMinutes)*time.Minute, nil)
	resolver := content.NewResolver(
		storage.NewPaperRepo(db),
		storage.NewSummaryRepo(db),
		c,
		sitemapWindow,
		cfg.SpotlightPool,
	)
	return &Activities{
		cfg:      cfg,
		resolver: resolver,
		gen:      sitemap.NewGenerator(cfg.SiteBaseURL, src),
	}, nil
}

func (a *Activities) LoadSitemapArticlesActivity(ctx context.Context, in LoadSitemapArticlesInput) (LoadSitemapArticlesOutput, error) {
	level, err := models.ParseSkillLevel(in.SkillLevel)
	if err != nil {
		level = models.SkillBeginner
	}
	articles, err := a.resolver.Resolve(ctx, level, 0)
	if err != nil {
		return LoadSitemapArticlesOutput{}, fmt.Errorf("load sitemap articles: %w", err)
	}
	return LoadSitemapArticlesOutput{Articles: articles}, nil
}

func (a *Activities) RenderSitemapActivity(ctx context.Context, in RenderSitemapInput) (RenderSitemapOutput, error) {
	_ = ctx
	var out sitemap.Output
	if in.Fallback {
		out = a.gen.BuildFallback(in.GeneratedAt)
	} else {
		out = a.gen.Build(in.Articles, in.GeneratedAt)
	}
	return RenderSitemapOutput{
		SitemapXML: out.SitemapXML,
		NewsXML:    out.NewsXML,
		RobotsTxt:  out.RobotsTxt,
		Stats:      out.Stats,
		Fallback:   out.Fallback,
	}, nil
}

func (a *Activities) WriteSitemapFilesActivity(ctx context.Context, in WriteSitemapFilesInput) (WriteSitemapFilesOutput, error) {
	_ = ctx
	files := map[string]string{
		"sitemap.xml":      in.SitemapXML,
		"sitemap-news.xml": in.NewsXML,
		"robots.txt":       in.RobotsTxt,
	}
	paths := make([]string, 0, len(files))
	for _, name := range []string{"sitemap.xml", "sitemap-news.xml", "robots.txt"} {
		p := filepath.Join(a.cfg.PublicDir, name)
		if err := util.WriteTextAtomic(p, files[name]); err != nil {
			return WriteSitemapFilesOutput{}, fmt.Errorf("write %s: %w", name, err)
		}
		paths = append(paths, p)
	}
	return WriteSitemapFilesOutput{Paths: paths}, nil
}
