package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"pearadox/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// paperColumns matches the v_arxiv_papers view exposed by the ingestion
// pipeline. Papers are read-only from this service's point of view.
var paperColumns = []string{
	"id::text",
	"COALESCE(arxiv_id,'')",
	"COALESCE(title,'')",
	"COALESCE(abstract,'')",
	"COALESCE(authors,'{}')",
	"COALESCE(categories_name,'')",
	"published_date",
	"created_at",
	"COALESCE(pdf_url,'')",
	"COALESCE(abstract_url,'')",
}

type PaperRepo struct {
	db *DB
}

func NewPaperRepo(db *DB) *PaperRepo {
	return &PaperRepo{db: db}
}

// PaperQuery carries the optional listing filters; zero values mean "no
// filter".
type PaperQuery struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

func (r *PaperRepo) ListPapers(ctx context.Context, q PaperQuery) ([]models.Paper, error) {
	b := psql.Select(paperColumns...).
		From("v_arxiv_papers").
		OrderBy("published_date DESC", "created_at DESC")
	if q.Category != "" {
		b = b.Where(sq.Eq{"categories_name": q.Category})
	}
	if q.Search != "" {
		b = b.Where(sq.ILike{"title": "%" + q.Search + "%"})
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		b = b.Offset(uint64(q.Offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build paper query: %w", err)
	}
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

func (r *PaperRepo) List(ctx context.Context, limit, offset int) ([]models.Paper, error) {
	return r.ListPapers(ctx, PaperQuery{Limit: limit, Offset: offset})
}

func (r *PaperRepo) ListByIDs(ctx context.Context, ids []string) ([]models.Paper, error) {
	if len(ids) == 0 {
		return []models.Paper{}, nil
	}
	rows, err := r.db.Pool.Query(ctx, `
SELECT id::text, COALESCE(arxiv_id,''), COALESCE(title,''), COALESCE(abstract,''),
       COALESCE(authors,'{}'), COALESCE(categories_name,''), published_date, created_at,
       COALESCE(pdf_url,''), COALESCE(abstract_url,'')
FROM v_arxiv_papers
WHERE id = ANY($1)
ORDER BY published_date DESC, created_at DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("list papers by ids: %w", err)
	}
	defer rows.Close()
	return scanPapers(rows)
}

func (r *PaperRepo) GetByArxivID(ctx context.Context, arxivID string) (models.Paper, error) {
	var p models.Paper
	err := r.db.Pool.QueryRow(ctx, `
SELECT id::text, COALESCE(arxiv_id,''), COALESCE(title,''), COALESCE(abstract,''),
       COALESCE(authors,'{}'), COALESCE(categories_name,''), published_date, created_at,
       COALESCE(pdf_url,''), COALESCE(abstract_url,'')
FROM v_arxiv_papers
WHERE arxiv_id=$1`, arxivID).
		Scan(&p.ID, &p.ArxivID, &p.Title, &p.Abstract, &p.Authors, &p.Categories, &p.PublishedDate, &p.CreatedAt, &p.PDFURL, &p.AbstractURL)
	if err != nil {
		return models.Paper{}, fmt.Errorf("get paper by arxiv id: %w", err)
	}
	return p, nil
}

func scanPapers(rows pgx.Rows) ([]models.Paper, error) {
	out := make([]models.Paper, 0)
	for rows.Next() {
		var p models.Paper
		if err := rows.Scan(&p.ID, &p.ArxivID, &p.Title, &p.Abstract, &p.Authors, &p.Categories, &p.PublishedDate, &p.CreatedAt, &p.PDFURL, &p.AbstractURL); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate papers: %w", err)
	}
	return out, nil
}
