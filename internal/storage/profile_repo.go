package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"pearadox/internal/models"
	"pearadox/internal/util"
)

type ProfileRepo struct {
	db *DB
}

func NewProfileRepo(db *DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

func (r *ProfileRepo) Create(ctx context.Context, p models.Profile) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO profiles (user_id, name, title, institution, research_interests, skill_level)
VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), $6)`,
		p.UserID, p.Name, p.Title, p.Institution, p.ResearchInterests, string(p.SkillLevel))
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) Upsert(ctx context.Context, p models.Profile) error {
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO profiles (user_id, name, title, institution, research_interests, skill_level)
VALUES ($1, $2, NULLIF($3,''), NULLIF($4,''), NULLIF($5,''), $6)
ON CONFLICT (user_id)
DO UPDATE SET
  name = EXCLUDED.name,
  title = EXCLUDED.title,
  institution = EXCLUDED.institution,
  research_interests = EXCLUDED.research_interests,
  skill_level = EXCLUDED.skill_level,
  updated_at = NOW()`,
		p.UserID, p.Name, p.Title, p.Institution, p.ResearchInterests, string(p.SkillLevel))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func (r *ProfileRepo) Get(ctx context.Context, userID string) (models.Profile, error) {
	var p models.Profile
	var level string
	err := r.db.Pool.QueryRow(ctx, `
SELECT user_id::text, COALESCE(name,''), COALESCE(title,''), COALESCE(institution,''),
       COALESCE(research_interests,''), COALESCE(skill_level,'Beginner'), created_at, updated_at
FROM profiles
WHERE user_id=$1`, userID).
		Scan(&p.UserID, &p.Name, &p.Title, &p.Institution, &p.ResearchInterests, &level, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Profile{}, util.ErrProfileNotFound
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	p.SkillLevel = models.SkillLevel(level)
	return p, nil
}

// SavePending journals the intended profile when the initial insert fails
// right after signup (email-verification ordering). Best-effort only.
func (r *ProfileRepo) SavePending(ctx context.Context, p models.Profile) error {
	payload, _ := json.Marshal(p)
	_, err := r.db.Pool.Exec(ctx, `
INSERT INTO pending_profiles (user_id, payload)
VALUES ($1, $2::jsonb)
ON CONFLICT (user_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = NOW()`,
		p.UserID, string(payload))
	if err != nil {
		return fmt.Errorf("save pending profile: %w", err)
	}
	return nil
}

// TakePending removes and returns the journaled profile for a user.
func (r *ProfileRepo) TakePending(ctx context.Context, userID string) (models.Profile, error) {
	var payload []byte
	err := r.db.Pool.QueryRow(ctx, `
DELETE FROM pending_profiles WHERE user_id=$1 RETURNING payload`, userID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Profile{}, util.ErrNoPendingProfile
	}
	if err != nil {
		return models.Profile{}, fmt.Errorf("take pending profile: %w", err)
	}
	var p models.Profile
	if err := json.Unmarshal(payload, &p); err != nil {
		return models.Profile{}, fmt.Errorf("decode pending profile: %w", err)
	}
	return p, nil
}
