package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pearadox/internal/cache"
	"pearadox/internal/models"
	"pearadox/internal/util"
)

// PaperStore provides base paper rows. Implemented by storage.PaperRepo.
type PaperStore interface {
	List(ctx context.Context, limit, offset int) ([]models.Paper, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Paper, error)
	GetByArxivID(ctx context.Context, arxivID string) (models.Paper, error)
}

// SummaryStore provides completed skill-level summaries. Implemented by
// storage.SummaryRepo.
type SummaryStore interface {
	ListCompleted(ctx context.Context, level models.SkillLevel, limit, offset int) ([]models.Summary, error)
	ListCompletedByPaperIDs(ctx context.Context, level models.SkillLevel, paperIDs []string) ([]models.Summary, error)
}

// Resolver merges papers with their skill-level summaries into Article view
// models. Summaries are a non-critical enhancement: any failure while
// fetching them degrades to unsummarized papers instead of surfacing an
// error. Every consumer (API, sitemap generators, spotlight) goes through
// this type so slugs and merges cannot drift between call sites.
type Resolver struct {
	papers        PaperStore
	summaries     SummaryStore
	cache         *cache.Cache
	pageSize      int
	spotlightPool int
}

func NewResolver(papers PaperStore, summaries SummaryStore, c *cache.Cache, pageSize, spotlightPool int) *Resolver {
	if c == nil {
		c = cache.New(15*time.Minute, nil)
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if spotlightPool <= 0 {
		spotlightPool = 10
	}
	return &Resolver{
		papers:        papers,
		summaries:     summaries,
		cache:         c,
		pageSize:      pageSize,
		spotlightPool: spotlightPool,
	}
}

// Resolve returns one page of merged articles, most recent first.
func (r *Resolver) Resolve(ctx context.Context, level models.SkillLevel, page int) ([]models.Article, error) {
	if page < 0 {
		page = 0
	}
	key := fmt.Sprintf("articles:%s:page=%d:size=%d", level, page, r.pageSize)
	if v, ok := r.cache.Get(key); ok {
		return v.([]models.Article), nil
	}
	articles, err := r.resolveWindow(ctx, level, r.pageSize, page*r.pageSize)
	if err != nil {
		return nil, err
	}
	r.cache.Set(key, articles)
	return articles, nil
}

// ResolveByIDs resolves an explicit paper id list, e.g. a user's saved
// articles.
func (r *Resolver) ResolveByIDs(ctx context.Context, level models.SkillLevel, ids []string) ([]models.Article, error) {
	if len(ids) == 0 {
		return []models.Article{}, nil
	}
	key := fmt.Sprintf("articles:%s:ids=%s", level, strings.Join(ids, ","))
	if v, ok := r.cache.Get(key); ok {
		return v.([]models.Article), nil
	}
	papers, err := r.papers.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	articles := r.mergeWithSummaries(ctx, level, papers)
	r.cache.Set(key, articles)
	return articles, nil
}

// ResolveBySlug resolves a single article addressed by its URL slug. Only
// the leading arXiv id matters; the title tail can be stale or truncated.
func (r *Resolver) ResolveBySlug(ctx context.Context, level models.SkillLevel, slug string) (models.Article, error) {
	arxivID := ArxivIDFromSlug(slug)
	if arxivID == "" {
		return models.Article{}, util.ErrArticleNotFound
	}
	paper, err := r.papers.GetByArxivID(ctx, arxivID)
	if err != nil {
		return models.Article{}, util.ErrArticleNotFound
	}
	articles := r.mergeWithSummaries(ctx, level, []models.Paper{paper})
	if len(articles) == 0 {
		return models.Article{}, util.ErrArticleNotFound
	}
	return articles[0], nil
}

// Spotlight deterministically picks the article of the day from the most
// recent candidates. The candidate list is cached; the index is re-derived
// per call so repeated calls on the same UTC day agree.
func (r *Resolver) Spotlight(ctx context.Context, level models.SkillLevel, day time.Time) (models.Article, error) {
	key := fmt.Sprintf("spotlight:%s:pool=%d", level, r.spotlightPool)
	var candidates []models.Article
	if v, ok := r.cache.Get(key); ok {
		candidates = v.([]models.Article)
	} else {
		var err error
		candidates, err = r.resolveWindow(ctx, level, r.spotlightPool, 0)
		if err != nil {
			return models.Article{}, err
		}
		r.cache.Set(key, candidates)
	}
	if len(candidates) == 0 {
		return models.Article{}, util.ErrNoSpotlightPapers
	}
	return candidates[SpotlightIndex(day, len(candidates))], nil
}

// resolveWindow fetches summaries first and papers second, degrading to raw
// papers whenever the summary side fails or comes back empty.
func (r *Resolver) resolveWindow(ctx context.Context, level models.SkillLevel, limit, offset int) ([]models.Article, error) {
	sums, err := r.summaries.ListCompleted(ctx, level, limit, offset)
	if err != nil || len(sums) == 0 {
		papers, perr := r.papers.List(ctx, limit, offset)
		if perr != nil {
			return nil, fmt.Errorf("list papers: %w", perr)
		}
		return mergeArticles(papers, nil), nil
	}

	ids := make([]string, 0, len(sums))
	for _, s := range sums {
		ids = append(ids, s.PaperID)
	}
	papers, err := r.papers.ListByIDs(ctx, ids)
	if err != nil {
		papers, err = r.papers.List(ctx, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("list papers: %w", err)
		}
		return mergeArticles(papers, nil), nil
	}
	return mergeArticles(papers, indexSummaries(sums)), nil
}

// mergeWithSummaries attaches level summaries to already-fetched papers.
func (r *Resolver) mergeWithSummaries(ctx context.Context, level models.SkillLevel, papers []models.Paper) []models.Article {
	if len(papers) == 0 {
		return []models.Article{}
	}
	ids := make([]string, 0, len(papers))
	for _, p := range papers {
		ids = append(ids, p.ID)
	}
	sums, err := r.summaries.ListCompletedByPaperIDs(ctx, level, ids)
	if err != nil {
		sums = nil
	}
	return mergeArticles(papers, indexSummaries(sums))
}

func indexSummaries(sums []models.Summary) map[string]models.Summary {
	byID := make(map[string]models.Summary, len(sums))
	for _, s := range sums {
		byID[s.PaperID] = s
	}
	return byID
}

func mergeArticles(papers []models.Paper, sums map[string]models.Summary) []models.Article {
	out := make([]models.Article, 0, len(papers))
	for _, p := range papers {
		if s, ok := sums[p.ID]; ok {
			out = append(out, MergeArticle(p, &s))
		} else {
			out = append(out, MergeArticle(p, nil))
		}
	}
	return out
}

// MergeArticle builds the Article view model from one paper and the summary
// matching the caller's level, if any. Levels are independent: a Beginner
// summary never leaks into an Intermediate request.
func MergeArticle(p models.Paper, s *models.Summary) models.Article {
	a := models.Article{
		ID:              p.ID,
		ArxivID:         p.ArxivID,
		Title:           p.Title,
		Abstract:        p.Abstract,
		Authors:         p.Authors,
		Categories:      p.Categories,
		PrimaryCategory: PrimaryCategory(p.Categories),
		PublishedDate:   p.PublishedDate,
		CreatedAt:       p.CreatedAt,
		PDFURL:          p.PDFURL,
		AbstractURL:     p.AbstractURL,
	}
	if s != nil {
		a.SummaryTitle = s.Title
		a.SummaryOverview = s.Overview
		a.SummaryContent = s.Content
		a.HasSummary = !s.Empty()
	}
	if a.SummaryTitle != "" {
		a.Title = a.SummaryTitle
	}
	if a.SummaryOverview != "" {
		a.ShortDescription = a.SummaryOverview
	} else {
		a.ShortDescription = shortDescription(p.Abstract)
	}
	a.Slug = Slug(p.ArxivID, a.Title)
	return a
}

// shortDescription is the abstract-substring fallback: the first 200
// characters plus an ellipsis, unconditionally, mirroring the original
// client's substring call.
func shortDescription(abstract string) string {
	runes := []rune(abstract)
	if len(runes) > 200 {
		runes = runes[:200]
	}
	return string(runes) + "..."
}
