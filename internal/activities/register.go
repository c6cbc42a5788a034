package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.LoadSitemapArticlesActivity)
	w.RegisterActivity(a.RenderSitemapActivity)
	w.RegisterActivity(a.WriteSitemapFilesActivity)
}
