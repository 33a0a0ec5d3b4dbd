package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
)

// HoldMinutes is the reservation window. Extensions push expiry forward
// by the same amount.
const HoldMinutes = 30

type ReservationRepo struct {
	q Querier
}

func NewReservationRepo(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

// IsAvailable treats expired unconverted reservations as free.
func (r *ReservationRepo) IsAvailable(ctx context.Context, slug string) (bool, error) {
	var available bool
	query := `SELECT NOT EXISTS (
		SELECT 1 FROM websimple.slug_reservations
		WHERE slug = $1 AND (converted OR expires_at > now())
	)`
	if err := r.q.QueryRow(ctx, query, slug).Scan(&available); err != nil {
		return false, fmt.Errorf("can't check slug availability, %v", err)
	}
	return available, nil
}

// Reserve takes the slug if it is free or its previous hold has expired
// without conversion. The insert-or-take-over is one statement, so two
// concurrent reservers cannot both win: the unique constraint serializes
// them and the conditional DO UPDATE rejects the loser.
func (r *ReservationRepo) Reserve(ctx context.Context, slug string, email, sessionID *string) (bool, error) {
	query := `INSERT INTO websimple.slug_reservations (slug, email, session_id, expires_at)
		VALUES ($1, $2, $3, now() + make_interval(mins => $4))
		ON CONFLICT (slug) DO UPDATE
		SET email = EXCLUDED.email,
			session_id = EXCLUDED.session_id,
			expires_at = EXCLUDED.expires_at,
			template_id = NULL,
			intake_data = NULL,
			generated_content = NULL,
			created_at = now()
		WHERE websimple.slug_reservations.converted = FALSE
		  AND websimple.slug_reservations.expires_at < now()`
	tag, err := r.q.Exec(ctx, query, slug, email, sessionID, HoldMinutes)
	if err != nil {
		return false, fmt.Errorf("can't reserve slug, %v", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Extend pushes the hold forward, but only for the session that owns it.
func (r *ReservationRepo) Extend(ctx context.Context, slug, sessionID string) (bool, error) {
	query := `UPDATE websimple.slug_reservations
		SET expires_at = now() + make_interval(mins => $3)
		WHERE slug = $1 AND session_id = $2 AND converted = FALSE AND expires_at > now()`
	tag, err := r.q.Exec(ctx, query, slug, sessionID, HoldMinutes)
	if err != nil {
		return false, fmt.Errorf("can't extend reservation, %v", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Update fills the progressive payload; nil arguments keep existing values.
func (r *ReservationRepo) Update(ctx context.Context, slug string, templateID *string, intake, content json.RawMessage) (*db.SlugReservation, error) {
	query := `UPDATE websimple.slug_reservations
		SET template_id = COALESCE($2, template_id),
			intake_data = COALESCE($3, intake_data),
			generated_content = COALESCE($4, generated_content)
		WHERE slug = $1
		RETURNING ` + reservationColumns
	return r.scanOne(r.q.QueryRow(ctx, query, slug, templateID, intake, content))
}

func (r *ReservationRepo) Get(ctx context.Context, slug string) (*db.SlugReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM websimple.slug_reservations WHERE slug = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, slug))
}

// Convert is terminal: a converted reservation is excluded from the sweep
// forever. The single UPDATE cannot interleave with the sweep's DELETE.
func (r *ReservationRepo) Convert(ctx context.Context, slug string) (*db.SlugReservation, error) {
	query := `UPDATE websimple.slug_reservations
		SET converted = TRUE
		WHERE slug = $1
		RETURNING ` + reservationColumns
	return r.scanOne(r.q.QueryRow(ctx, query, slug))
}

// CleanupExpired removes lapsed holds and reports how many were deleted.
func (r *ReservationRepo) CleanupExpired(ctx context.Context) (int, error) {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM websimple.slug_reservations WHERE expires_at < now() AND converted = FALSE`)
	if err != nil {
		return 0, fmt.Errorf("can't clean up reservations, %v", err)
	}
	return int(tag.RowsAffected()), nil
}

const reservationColumns = `slug, email, session_id, template_id, intake_data, generated_content, converted, expires_at, created_at`

func (r *ReservationRepo) scanOne(row pgx.Row) (*db.SlugReservation, error) {
	var res db.SlugReservation
	err := row.Scan(&res.Slug, &res.Email, &res.SessionID, &res.TemplateID,
		&res.IntakeData, &res.GeneratedContent, &res.Converted, &res.ExpiresAt, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("can't read reservation, %v", err)
	}
	return &res, nil
}
