package storage

import (
	"context"
	"fmt"

	"pearadox/internal/models"
)

type SavedArticleRepo struct {
	db *DB
}

func NewSavedArticleRepo(db *DB) *SavedArticleRepo {
	return &SavedArticleRepo{db: db}
}

// Save is idempotent: re-favoriting an already saved paper is a no-op, which
// absorbs optimistic double toggles from the client.
func (r *SavedArticleRepo) Save(ctx context.Context, userID, paperID string) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO saved_articles (user_id, paper_id)
VALUES ($1, $2)
ON CONFLICT (user_id, paper_id) DO NOTHING`, userID, paperID)
	if err != nil {
		return fmt.Errorf("save article: %w", err)
	}
	return nil
}

func (r *SavedArticleRepo) Remove(ctx context.Context, userID, paperID string) error {
	_, err := r.db.Pool.Exec(ctx, `
DELETE FROM saved_articles WHERE user_id=$1 AND paper_id=$2`, userID, paperID)
	if err != nil {
		return fmt.Errorf("remove saved article: %w", err)
	}
	return nil
}

func (r *SavedArticleRepo) ListByUser(ctx context.Context, userID string) ([]models.SavedArticle, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT user_id::text, paper_id::text, created_at
FROM saved_articles
WHERE user_id=$1
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list saved articles: %w", err)
	}
	defer rows.Close()

	out := make([]models.SavedArticle, 0)
	for rows.Next() {
		var s models.SavedArticle
		if err := rows.Scan(&s.UserID, &s.PaperID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan saved article: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved articles: %w", err)
	}
	return out, nil
}
