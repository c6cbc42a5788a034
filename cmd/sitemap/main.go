package main

import (
	"context"
	"flag"
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

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// sitemapWindow is how many of the most recent articles a sitemap covers.
const sitemapWindow = 1000

// Standalone sitemap generator for deploy hooks. One-shot by default, loops
// on a schedule with -cron. Always exits 0: a broken database produces the
// fallback sitemap, never a failed deploy.
func main() {
	cronSpec := flag.String("cron", "", "cron schedule to regenerate on (empty = run once)")
	flag.Parse()

	_ = godotenv.Load(".env")
	cfg := config.Load()

	if *cronSpec == "" {
		generate(cfg)
		return
	}
	c := cron.New()
	if _, err := c.AddFunc(*cronSpec, func() { generate(cfg) }); err != nil {
		log.Printf("invalid cron spec %q: %v", *cronSpec, err)
		return
	}
	log.Printf("pearadox sitemap generator running cron=%q", *cronSpec)
	c.Run()
}

func generate(cfg config.Config) {
	src, err := sitemap.LoadSources(cfg.SourcesFile)
	if err != nil {
		log.Printf("sitemap sources %s unreadable, using defaults: %v", cfg.SourcesFile, err)
	}
	gen := sitemap.NewGenerator(cfg.SiteBaseURL, src)
	now := time.Now().UTC()

	out := gen.BuildFallback(now)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Printf("database unavailable, writing fallback sitemap: %v", err)
	} else {
		defer db.Close()
		resolver := content.NewResolver(
			storage.NewPaperRepo(db),
			storage.NewSummaryRepo(db),
			cache.New(time.Duration(cfg.SitemapTTLMinutes)*time.Minute, nil),
			sitemapWindow,
			cfg.SpotlightPool,
		)
		articles, err := resolver.Resolve(ctx, models.SkillBeginner, 0)
		if err != nil {
			log.Printf("article load failed, writing fallback sitemap: %v", err)
		} else {
			out = gen.Build(articles, now)
		}
	}

	files := map[string]string{
		"sitemap.xml":      out.SitemapXML,
		"sitemap-news.xml": out.NewsXML,
		"robots.txt":       out.RobotsTxt,
	}
	for _, name := range []string{"sitemap.xml", "sitemap-news.xml", "robots.txt"} {
		p := filepath.Join(cfg.PublicDir, name)
		if err := util.WriteTextAtomic(p, files[name]); err != nil {
			log.Printf("write %s: %v", p, err)
			return
		}
	}
	log.Printf("sitemap written dir=%s urls=%d articles=%d fallback=%v",
		cfg.PublicDir, out.Stats.TotalURLs, out.Stats.ArticleURLs, out.Fallback)
}
