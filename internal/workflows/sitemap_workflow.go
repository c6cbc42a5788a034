package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"pearadox/internal/activities"
)

const QueryGetSitemapProgress = "GetSitemapProgress"

// SitemapRefreshWorkflow regenerates sitemap.xml, sitemap-news.xml and
// robots.txt. A failed article load degrades to the static fallback sitemap
// instead of failing the run; sitemap refresh must never block a deploy.
func SitemapRefreshWorkflow(ctx workflow.Context, input SitemapRefreshInput) (SitemapRefreshResult, error) {
	progress := SitemapRefreshProgress{Steps: map[string]string{}}
	if err := workflow.SetQueryHandler(ctx, QueryGetSitemapProgress, func() (SitemapRefreshProgress, error) {
		return progress, nil
	}); err != nil {
		return SitemapRefreshResult{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	progress.CurrentStep = "load_articles"
	progress.Steps[progress.CurrentStep] = "processing"
	fallback := false
	var loadOut activities.LoadSitemapArticlesOutput
	if err := workflow.ExecuteActivity(ctx, "LoadSitemapArticlesActivity", activities.LoadSitemapArticlesInput{
		SkillLevel: input.SkillLevel,
	}).Get(ctx, &loadOut); err != nil {
		fallback = true
		progress.Steps[progress.CurrentStep] = "failed"
	} else {
		progress.Steps[progress.CurrentStep] = "done"
	}

	progress.CurrentStep = "render"
	progress.Steps[progress.CurrentStep] = "processing"
	var renderOut activities.RenderSitemapOutput
	if err := workflow.ExecuteActivity(ctx, "RenderSitemapActivity", activities.RenderSitemapInput{
		Articles:    loadOut.Articles,
		Fallback:    fallback,
		GeneratedAt: workflow.Now(ctx),
	}).Get(ctx, &renderOut); err != nil {
		return SitemapRefreshResult{}, err
	}
	progress.Steps[progress.CurrentStep] = "done"

	progress.CurrentStep = "write_files"
	progress.Steps[progress.CurrentStep] = "processing"
	var writeOut activities.WriteSitemapFilesOutput
	if err := workflow.ExecuteActivity(ctx, "WriteSitemapFilesActivity", activities.WriteSitemapFilesInput{
		SitemapXML: renderOut.SitemapXML,
		NewsXML:    renderOut.NewsXML,
		RobotsTxt:  renderOut.RobotsTxt,
	}).Get(ctx, &writeOut); err != nil {
		return SitemapRefreshResult{}, err
	}
	progress.Steps[progress.CurrentStep] = "done"
	progress.CurrentStep = "done"

	return SitemapRefreshResult{
		Fallback: fallback,
		Stats:    renderOut.Stats,
		Paths:    writeOut.Paths,
	}, nil
}
