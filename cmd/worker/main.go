package main

import (
	"context"
	"log"
	"time"

	"pearadox/internal/activities"
	"pearadox/internal/config"
	"pearadox/internal/models"
	"pearadox/internal/storage"
	"pearadox/internal/workflows"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()
	c, err := client.Dial(client.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		log.Fatal(err)
	}
	defer c.Close()

	w := worker.New(c, cfg.TemporalTaskQueue, worker.Options{})
	workflows.Register(w)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	a, err := activities.New(cfg, db)
	if err != nil {
		log.Fatal(err)
	}
	activities.Register(w, a)

	if cfg.SitemapCron != "" {
		_, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:           "sitemap-refresh-cron",
			TaskQueue:    cfg.TemporalTaskQueue,
			CronSchedule: cfg.SitemapCron,
		}, workflows.SitemapRefreshWorkflow, workflows.SitemapRefreshInput{
			SkillLevel: string(models.SkillBeginner),
			Reason:     "cron",
		})
		if err != nil {
			log.Printf("schedule sitemap cron %q: %v", cfg.SitemapCron, err)
		} else {
			log.Printf("sitemap refresh scheduled cron=%q", cfg.SitemapCron)
		}
	}

	log.Printf("pearadox worker listening on %s queue=%s", cfg.TemporalAddress, cfg.TemporalTaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal(err)
	}
}
