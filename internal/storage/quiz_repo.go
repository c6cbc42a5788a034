package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"pearadox/internal/models"
)

const uniqueViolation = "23505"

type QuizRepo struct {
	db *DB
}

func NewQuizRepo(db *DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Record stores the one-shot quiz outcome. The unique (user_id, paper_id)
// constraint makes both outcomes terminal: a duplicate insert returns the
// previously stored submission with firstAttempt=false instead of an error,
// absorbing double-submission races.
func (r *QuizRepo) Record(ctx context.Context, userID, paperID string, correct bool) (models.QuizSubmission, bool, error) {
	var sub models.QuizSubmission
	err := r.db.Pool.QueryRow(ctx, `
INSERT INTO quiz_correct_answers (user_id, paper_id, is_correct)
VALUES ($1, $2, $3)
RETURNING user_id::text, paper_id::text, is_correct, answered_at`, userID, paperID, correct).
		Scan(&sub.UserID, &sub.PaperID, &sub.IsCorrect, &sub.AnsweredAt)
	return resolveRecordOutcome(ctx, sub, err, func(ctx context.Context) (models.QuizSubmission, error) {
		return r.Get(ctx, userID, paperID)
	})
}

// resolveRecordOutcome maps the insert result onto the one-shot contract: a
// unique-constraint conflict means the user already answered, so the stored
// submission comes back as a non-first attempt instead of an error.
func resolveRecordOutcome(ctx context.Context, sub models.QuizSubmission, err error, get func(context.Context) (models.QuizSubmission, error)) (models.QuizSubmission, bool, error) {
	if err == nil {
		return sub, true, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		existing, gerr := get(ctx)
		if gerr != nil {
			return models.QuizSubmission{}, false, gerr
		}
		return existing, false, nil
	}
	return models.QuizSubmission{}, false, fmt.Errorf("record quiz submission: %w", err)
}

func (r *QuizRepo) Get(ctx context.Context, userID, paperID string) (models.QuizSubmission, error) {
	var sub models.QuizSubmission
	err := r.db.Pool.QueryRow(ctx, `
SELECT user_id::text, paper_id::text, is_correct, answered_at
FROM quiz_correct_answers
WHERE user_id=$1 AND paper_id=$2`, userID, paperID).
		Scan(&sub.UserID, &sub.PaperID, &sub.IsCorrect, &sub.AnsweredAt)
	if err != nil {
		return models.QuizSubmission{}, fmt.Errorf("get quiz submission: %w", err)
	}
	return sub, nil
}

// CountCorrect is the user's PEAR token balance; there is no separate
// ledger.
func (r *QuizRepo) CountCorrect(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `
SELECT COUNT(*) FROM quiz_correct_answers WHERE user_id=$1 AND is_correct`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count correct answers: %w", err)
	}
	return n, nil
}

// ListPapersWithQuizzes reads the v_papers_with_quizzes view so the client
// can mark which articles carry a quiz.
func (r *QuizRepo) ListPapersWithQuizzes(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT paper_id::text FROM v_papers_with_quizzes`)
	if err != nil {
		return nil, fmt.Errorf("list papers with quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan quiz paper id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
