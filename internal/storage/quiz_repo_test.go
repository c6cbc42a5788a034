package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"pearadox/internal/models"
)

func TestRecordOutcomeFirstAttempt(t *testing.T) {
	inserted := models.QuizSubmission{
		UserID:     "u1",
		PaperID:    "p1",
		IsCorrect:  true,
		AnsweredAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	sub, first, err := resolveRecordOutcome(context.Background(), inserted, nil,
		func(context.Context) (models.QuizSubmission, error) {
			t.Fatal("must not re-fetch on a clean insert")
			return models.QuizSubmission{}, nil
		})
	require.NoError(t, err)
	require.True(t, first)
	require.Equal(t, inserted, sub)
}

func TestRecordOutcomeDuplicateReturnsStoredSubmission(t *testing.T) {
	stored := models.QuizSubmission{
		UserID:     "u1",
		PaperID:    "p1",
		IsCorrect:  false,
		AnsweredAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
	conflict := &pgconn.PgError{Code: "23505", ConstraintName: "quiz_correct_answers_user_id_paper_id_key"}

	// A second submission hits the unique constraint; the first outcome is
	// terminal and comes back as a success, not an error.
	sub, first, err := resolveRecordOutcome(context.Background(), models.QuizSubmission{}, conflict,
		func(context.Context) (models.QuizSubmission, error) {
			return stored, nil
		})
	require.NoError(t, err)
	require.False(t, first)
	require.Equal(t, stored, sub)
}

func TestRecordOutcomeDuplicateDetectedThroughWrapping(t *testing.T) {
	stored := models.QuizSubmission{UserID: "u1", PaperID: "p1", IsCorrect: true}
	wrapped := fmt.Errorf("exec insert: %w", &pgconn.PgError{Code: "23505"})

	sub, first, err := resolveRecordOutcome(context.Background(), models.QuizSubmission{}, wrapped,
		func(context.Context) (models.QuizSubmission, error) {
			return stored, nil
		})
	require.NoError(t, err)
	require.False(t, first)
	require.Equal(t, stored, sub)
}

func TestRecordOutcomeOtherErrorsSurface(t *testing.T) {
	boom := errors.New("connection refused")
	_, _, err := resolveRecordOutcome(context.Background(), models.QuizSubmission{}, boom,
		func(context.Context) (models.QuizSubmission, error) {
			t.Fatal("must not re-fetch on a non-conflict error")
			return models.QuizSubmission{}, nil
		})
	require.Error(t, err)
	require.ErrorIs(t, err, boom)
}

func TestRecordOutcomeDuplicateFetchFailure(t *testing.T) {
	conflict := &pgconn.PgError{Code: "23505"}
	fetchErr := errors.New("get quiz submission: connection reset")

	_, first, err := resolveRecordOutcome(context.Background(), models.QuizSubmission{}, conflict,
		func(context.Context) (models.QuizSubmission, error) {
			return models.QuizSubmission{}, fetchErr
		})
	require.False(t, first)
	require.ErrorIs(t, err, fetchErr)
}
