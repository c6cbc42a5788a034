package storage

import (
	"context"
	"fmt"

	"pearadox/internal/models"
	"pearadox/internal/util"
)

type CommentRepo struct {
	db *DB
}

func NewCommentRepo(db *DB) *CommentRepo {
	return &CommentRepo{db: db}
}

func (r *CommentRepo) Create(ctx context.Context, c models.Comment) error {
	if len(c.Body) > models.MaxCommentLength {
		return util.ErrCommentTooLong
	}
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO article_comments (id, arxiv_paper_id, user_id, body)
VALUES ($1::uuid, $2, $3, $4)`, c.ID, c.PaperID, c.UserID, c.Body)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// ListByPaper reads the v_article_comments view, which joins author profile
// fields and filters soft-deleted rows.
func (r *CommentRepo) ListByPaper(ctx context.Context, paperID string) ([]models.Comment, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT id::text, arxiv_paper_id::text, user_id::text, body,
       COALESCE(author_name,''), is_edited, created_at, updated_at
FROM v_article_comments
WHERE arxiv_paper_id=$1
ORDER BY created_at DESC`, paperID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := make([]models.Comment, 0)
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.PaperID, &c.UserID, &c.Body, &c.AuthorName, &c.Edited, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}

func (r *CommentRepo) CountByPaper(ctx context.Context, paperID string) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `
SELECT COUNT(*) FROM v_article_comments WHERE arxiv_paper_id=$1`, paperID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count comments: %w", err)
	}
	return n, nil
}

// Update edits the body. The author check is part of the WHERE clause so a
// non-author edit and a missing comment look the same.
func (r *CommentRepo) Update(ctx context.Context, commentID, userID, body string) error {
	if len(body) > models.MaxCommentLength {
		return util.ErrCommentTooLong
	}
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE article_comments
SET body=$3, is_edited=TRUE, updated_at=NOW()
WHERE id=$1::uuid AND user_id=$2 AND NOT is_deleted`, commentID, userID, body)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return util.ErrNotCommentAuthor
	}
	return nil
}

// SoftDelete flags the row; comment rows are never removed.
func (r *CommentRepo) SoftDelete(ctx context.Context, commentID, userID string) error {
	tag, err := r.db.Pool.Exec(ctx, `
UPDATE article_comments
SET is_deleted=TRUE, updated_at=NOW()
WHERE id=$1::uuid AND user_id=$2 AND NOT is_deleted`, commentID, userID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return util.ErrNotCommentAuthor
	}
	return nil
}
