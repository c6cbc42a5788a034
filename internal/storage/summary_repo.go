package storage

import (
	"context"
	"fmt"

	"pearadox/internal/models"
)

type SummaryRepo struct {
	db *DB
}

func NewSummaryRepo(db *DB) *SummaryRepo {
	return &SummaryRepo{db: db}
}

// levelColumns maps a skill level onto its summary_papers column triple.
// Only the requested level's columns are ever selected.
func levelColumns(level models.SkillLevel) (title, overview, content string) {
	if level == models.SkillIntermediate {
		return "intermediate_title", "intermediate_overview", "intermediate_summary"
	}
	return "beginner_title", "beginner_overview", "beginner_summary"
}

func (r *SummaryRepo) ListCompleted(ctx context.Context, level models.SkillLevel, limit, offset int) ([]models.Summary, error) {
	t, o, c := levelColumns(level)
	query := fmt.Sprintf(`
SELECT arxiv_paper_id::text, COALESCE(%s,''), COALESCE(%s,''), COALESCE(%s,'')
FROM summary_papers
WHERE processing_status=$1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`, t, o, c)
	rows, err := r.db.Pool.Query(ctx, query, models.SummaryStatusCompleted, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	out := make([]models.Summary, 0)
	for rows.Next() {
		var s models.Summary
		if err := rows.Scan(&s.PaperID, &s.Title, &s.Overview, &s.Content); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}

func (r *SummaryRepo) ListCompletedByPaperIDs(ctx context.Context, level models.SkillLevel, paperIDs []string) ([]models.Summary, error) {
	if len(paperIDs) == 0 {
		return []models.Summary{}, nil
	}
	t, o, c := levelColumns(level)
	query := fmt.Sprintf(`
SELECT arxiv_paper_id::text, COALESCE(%s,''), COALESCE(%s,''), COALESCE(%s,'')
FROM summary_papers
WHERE processing_status=$1 AND arxiv_paper_id = ANY($2)`, t, o, c)
	rows, err := r.db.Pool.Query(ctx, query, models.SummaryStatusCompleted, paperIDs)
	if err != nil {
		return nil, fmt.Errorf("list summaries by paper ids: %w", err)
	}
	defer rows.Close()

	out := make([]models.Summary, 0, len(paperIDs))
	for rows.Next() {
		var s models.Summary
		if err := rows.Scan(&s.PaperID, &s.Title, &s.Overview, &s.Content); err != nil {
			return nil, fmt.Errorf("scan summary by paper id: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
