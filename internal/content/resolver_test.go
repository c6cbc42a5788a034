package content

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pearadox/internal/cache"
	"pearadox/internal/models"
	"pearadox/internal/util"
)

type fakePapers struct {
	papers  []models.Paper
	listErr error
	idsErr  error
}

func (f *fakePapers) List(_ context.Context, limit, offset int) ([]models.Paper, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if offset >= len(f.papers) {
		return []models.Paper{}, nil
	}
	end := offset + limit
	if end > len(f.papers) {
		end = len(f.papers)
	}
	return f.papers[offset:end], nil
}

func (f *fakePapers) ListByIDs(_ context.Context, ids []string) ([]models.Paper, error) {
	if f.idsErr != nil {
		return nil, f.idsErr
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []models.Paper{}
	for _, p := range f.papers {
		if want[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePapers) GetByArxivID(_ context.Context, arxivID string) (models.Paper, error) {
	for _, p := range f.papers {
		if p.ArxivID == arxivID {
			return p, nil
		}
	}
	return models.Paper{}, errors.New("no rows")
}

type fakeSummaries struct {
	byLevel map[models.SkillLevel][]models.Summary
	err     error
}

func (f *fakeSummaries) ListCompleted(_ context.Context, level models.SkillLevel, limit, offset int) ([]models.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	sums := f.byLevel[level]
	if offset >= len(sums) {
		return []models.Summary{}, nil
	}
	end := offset + limit
	if end > len(sums) {
		end = len(sums)
	}
	return sums[offset:end], nil
}

func (f *fakeSummaries) ListCompletedByPaperIDs(_ context.Context, level models.SkillLevel, ids []string) ([]models.Summary, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	out := []models.Summary{}
	for _, s := range f.byLevel[level] {
		if want[s.PaperID] {
			out = append(out, s)
		}
	}
	return out, nil
}

func testPaper(id, arxivID, title string) models.Paper {
	return models.Paper{
		ID:            id,
		ArxivID:       arxivID,
		Title:         title,
		Abstract:      strings.Repeat("x", 300),
		PublishedDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestResolveMergesSummaries(t *testing.T) {
	p := testPaper("p1", "2401.00001", "Raw Title")
	p.Categories = "cs.LG, cs.AI"
	papers := &fakePapers{papers: []models.Paper{p}}
	sums := &fakeSummaries{byLevel: map[models.SkillLevel][]models.Summary{
		models.SkillBeginner: {{PaperID: "p1", Title: "Friendly Title", Overview: "A plain overview.", Content: "Body"}},
	}}
	r := NewResolver(papers, sums, cache.New(time.Minute, nil), 20, 10)

	got, err := r.Resolve(context.Background(), models.SkillBeginner, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.True(t, got[0].HasSummary)
	require.Equal(t, "Friendly Title", got[0].Title)
	require.Equal(t, "A plain overview.", got[0].ShortDescription)
	require.Equal(t, "cs.LG", got[0].PrimaryCategory)
	require.Equal(t, Slug("2401.00001", "Friendly Title"), got[0].Slug)
}

func TestResolveFallsBackWithoutSummary(t *testing.T) {
	abstract := strings.Repeat("a", 250)
	p := testPaper("p1", "2401.00001", "Raw Title")
	p.Abstract = abstract
	papers := &fakePapers{papers: []models.Paper{p}}
	sums := &fakeSummaries{byLevel: map[models.SkillLevel][]models.Summary{}}
	r := NewResolver(papers, sums, cache.New(time.Minute, nil), 20, 10)

	got, err := r.Resolve(context.Background(), models.SkillBeginner, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.False(t, got[0].HasSummary)
	require.Equal(t, "Raw Title", got[0].Title)
	require.Equal(t, abstract[:200]+"...", got[0].ShortDescription)
}

func TestResolveLevelsAreIndependent(t *testing.T) {
	papers := &fakePapers{papers: []models.Paper{testPaper("p1", "2401.00001", "Raw Title")}}
	sums := &fakeSummaries{byLevel: map[models.SkillLevel][]models.Summary{
		models.SkillBeginner: {{PaperID: "p1", Title: "Friendly Title", Overview: "Easy words."}},
	}}
	r := NewResolver(papers, sums, cache.New(time.Minute, nil), 20, 10)

	// An Intermediate request must not inherit the Beginner summary.
	got, err := r.Resolve(context.Background(), models.SkillIntermediate, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.False(t, got[0].HasSummary)
	require.Equal(t, "Raw Title", got[0].Title)
}

func TestResolveDegradesOnSummaryError(t *testing.T) {
	papers := &fakePapers{papers: []models.Paper{testPaper("p1", "2401.00001", "Raw Title")}}
	sums := &fakeSummaries{err: errors.New("summary table offline")}
	r := NewResolver(papers, sums, cache.New(time.Minute, nil), 20, 10)

	got, err := r.Resolve(context.Background(), models.SkillBeginner, 0)
	require.NoError(t, err, "summary failures must not surface")
	require.Len(t, got, 1)
	require.False(t, got[0].HasSummary)
}

func TestResolveCachesPages(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	papers := &fakePapers{papers: []models.Paper{testPaper("p1", "2401.00001", "Raw Title")}}
	sums := &fakeSummaries{byLevel: map[models.SkillLevel][]models.Summary{}}
	r := NewResolver(papers, sums, cache.New(15*time.Minute, clock), 20, 10)

	first, err := r.Resolve(context.Background(), models.SkillBeginner, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Within the TTL the resolver serves the cached page even if the store
	// now fails outright.
	papers.listErr = errors.New("db gone")
	cached, err := r.Resolve(context.Background(), models.SkillBeginner, 0)
	require.NoError(t, err)
	require.Equal(t, first, cached)

	now = now.Add(16 * time.Minute)
	_, err = r.Resolve(context.Background(), models.SkillBeginner, 0)
	require.Error(t, err)
}

func TestResolveBySlug(t *testing.T) {
	papers := &fakePapers{papers: []models.Paper{testPaper("p1", "2401.00001", "Raw Title")}}
	sums := &fakeSummaries{byLevel: map[models.SkillLevel][]models.Summary{
		models.SkillBeginner: {{PaperID: "p1", Title: "Friendly Title"}},
	}}
	r := NewResolver(papers, sums, cache.New(time.Minute, nil), 20, 10)

	got, err := r.ResolveBySlug(context.Background(), models.SkillBeginner, "2401.00001-anything-goes-here")
	require.NoError(t, err)
	require.Equal(t, "p1", got.ID)
	require.True(t, got.HasSummary)

	_, err = r.ResolveBySlug(context.Background(), models.SkillBeginner, "not-a-slug")
	require.ErrorIs(t, err, util.ErrArticleNotFound)

	_, err = r.ResolveBySlug(context.Background(), models.SkillBeginner, "9999.99999-missing")
	require.ErrorIs(t, err, util.ErrArticleNotFound)
}

func TestSpotlightStableForFixedDay(t *testing.T) {
	var ps []models.Paper
	ps = append(ps,
		testPaper("p1", "2401.00001", "One"),
		testPaper("p2", "2401.00002", "Two"),
		testPaper("p3", "2401.00003", "Three"),
	)
	papers := &fakePapers{papers: ps}
	sums := &fakeSummaries{byLevel: map[models.SkillLevel][]models.Summary{}}
	r := NewResolver(papers, sums, cache.New(time.Hour, nil), 20, 10)

	day := time.Date(2024, time.July, 4, 8, 0, 0, 0, time.UTC)
	a, err := r.Spotlight(context.Background(), models.SkillBeginner, day)
	require.NoError(t, err)
	b, err := r.Spotlight(context.Background(), models.SkillBeginner, day.Add(10*time.Hour))
	require.NoError(t, err)
	require.Equal(t, a.ID, b.ID)
}

func TestSpotlightEmptyCandidates(t *testing.T) {
	papers := &fakePapers{}
	sums := &fakeSummaries{byLevel: map[models.SkillLevel][]models.Summary{}}
	r := NewResolver(papers, sums, cache.New(time.Hour, nil), 20, 10)

	_, err := r.Spotlight(context.Background(), models.SkillBeginner, time.Now())
	require.ErrorIs(t, err, util.ErrNoSpotlightPapers)
}
