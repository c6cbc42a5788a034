package storage

import (
	"context"
	"fmt"

	"pearadox/internal/models"
)

type AnalyticsRepo struct {
	db *DB
}

func NewAnalyticsRepo(db *DB) *AnalyticsRepo {
	return &AnalyticsRepo{db: db}
}

// InsertView records one article view. Callers go through the outbox, so a
// failure here is logged and dropped, never surfaced.
func (r *AnalyticsRepo) InsertView(ctx context.Context, ev models.ViewEvent) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO viewed_articles (id, paper_id, user_id, anonymous_id)
VALUES (COALESCE(NULLIF($1,'')::uuid, gen_random_uuid()), $2, NULLIF($3,''), NULLIF($4,''))`,
		ev.ID, ev.PaperID, ev.UserID, ev.AnonymousID)
	if err != nil {
		return fmt.Errorf("insert view: %w", err)
	}
	return nil
}

func (r *AnalyticsRepo) CountViewsByPaper(ctx context.Context, paperID string) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `
SELECT COUNT(*) FROM viewed_articles WHERE paper_id=$1`, paperID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return n, nil
}
