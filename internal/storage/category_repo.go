package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pearadox/internal/models"
)

type CategoryRepo struct {
	db *DB
}

func NewCategoryRepo(db *DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.Pool.Query(ctx, `
SELECT code, COALESCE(name,'') FROM arxiv_categories ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.Code, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DisplayName resolves a category code to its human name, falling back to
// the raw code when the lookup table has no entry.
func (r *CategoryRepo) DisplayName(ctx context.Context, code string) (string, error) {
	var name string
	err := r.db.Pool.QueryRow(ctx, `
SELECT COALESCE(name,'') FROM arxiv_categories WHERE code=$1`, code).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && name == "") {
		return code, nil
	}
	if err != nil {
		return "", fmt.Errorf("get category name: %w", err)
	}
	return name, nil
}
