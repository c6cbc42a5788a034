package workflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"

	"pearadox/internal/activities"
	"pearadox/internal/models"
	"pearadox/internal/sitemap"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func registerSitemapActivities(env *testsuite.TestWorkflowEnvironment) {
	registerActivityName(env, "LoadSitemapArticlesActivity", func(context.Context, activities.LoadSitemapArticlesInput) (activities.LoadSitemapArticlesOutput, error) {
		return activities.LoadSitemapArticlesOutput{}, nil
	})
	registerActivityName(env, "RenderSitemapActivity", func(context.Context, activities.RenderSitemapInput) (activities.RenderSitemapOutput, error) {
		return activities.RenderSitemapOutput{}, nil
	})
	registerActivityName(env, "WriteSitemapFilesActivity", func(context.Context, activities.WriteSitemapFilesInput) (activities.WriteSitemapFilesOutput, error) {
		return activities.WriteSitemapFilesOutput{}, nil
	})
}

func TestSitemapRefreshWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(SitemapRefreshWorkflow)
	registerSitemapActivities(env)

	articles := []models.Article{{ID: "p1", ArxivID: "2301.00001", Slug: "2301.00001-attention"}}
	stats := sitemap.Stats{TotalURLs: 9, ArticleURLs: 1, BlogURLs: 4, StaticURLs: 4, GeneratedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}

	env.OnActivity("LoadSitemapArticlesActivity", mock.Anything, activities.LoadSitemapArticlesInput{SkillLevel: "Beginner"}).
		Return(activities.LoadSitemapArticlesOutput{Articles: articles}, nil)
	env.OnActivity("RenderSitemapActivity", mock.Anything, mock.MatchedBy(func(in activities.RenderSitemapInput) bool {
		return !in.Fallback && len(in.Articles) == 1
	})).Return(activities.RenderSitemapOutput{SitemapXML: "<urlset/>", NewsXML: "<urlset/>", RobotsTxt: "User-agent: *", Stats: stats}, nil)
	env.OnActivity("WriteSitemapFilesActivity", mock.Anything, mock.Anything).
		Return(activities.WriteSitemapFilesOutput{Paths: []string{"public/sitemap.xml", "public/sitemap-news.xml", "public/robots.txt"}}, nil)

	env.ExecuteWorkflow(SitemapRefreshWorkflow, SitemapRefreshInput{SkillLevel: "Beginner"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out SitemapRefreshResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.False(t, out.Fallback)
	require.Equal(t, stats, out.Stats)
	require.Len(t, out.Paths, 3)
}

func TestSitemapRefreshWorkflowDegradesToFallback(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(SitemapRefreshWorkflow)
	registerSitemapActivities(env)

	env.OnActivity("LoadSitemapArticlesActivity", mock.Anything, mock.Anything).
		Return(activities.LoadSitemapArticlesOutput{}, errors.New("connect postgres: connection refused"))
	env.OnActivity("RenderSitemapActivity", mock.Anything, mock.MatchedBy(func(in activities.RenderSitemapInput) bool {
		return in.Fallback && len(in.Articles) == 0
	})).Return(activities.RenderSitemapOutput{Fallback: true, Stats: sitemap.Stats{TotalURLs: 8, BlogURLs: 4, StaticURLs: 4}}, nil)
	env.OnActivity("WriteSitemapFilesActivity", mock.Anything, mock.Anything).
		Return(activities.WriteSitemapFilesOutput{Paths: []string{"public/sitemap.xml", "public/sitemap-news.xml", "public/robots.txt"}}, nil)

	env.ExecuteWorkflow(SitemapRefreshWorkflow, SitemapRefreshInput{SkillLevel: "Beginner", Reason: "deploy"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var out SitemapRefreshResult
	require.NoError(t, env.GetWorkflowResult(&out))
	require.True(t, out.Fallback)
	require.Equal(t, 8, out.Stats.TotalURLs)
}

func TestSitemapRefreshWorkflowFailsWhenWriteFails(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(SitemapRefreshWorkflow)
	registerSitemapActivities(env)

	env.OnActivity("LoadSitemapArticlesActivity", mock.Anything, mock.Anything).
		Return(activities.LoadSitemapArticlesOutput{}, nil)
	env.OnActivity("RenderSitemapActivity", mock.Anything, mock.Anything).
		Return(activities.RenderSitemapOutput{}, nil)
	env.OnActivity("WriteSitemapFilesActivity", mock.Anything, mock.Anything).
		Return(activities.WriteSitemapFilesOutput{}, errors.New("write sitemap.xml: permission denied"))

	env.ExecuteWorkflow(SitemapRefreshWorkflow, SitemapRefreshInput{SkillLevel: "Beginner"})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
}
