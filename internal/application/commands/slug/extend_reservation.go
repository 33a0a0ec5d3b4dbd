package slug

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/application/dto"
	"github.com/websimple-ai/websimple-backend/internal/application/errs"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
)

type ExtendReservation struct {
	reservations *repo.ReservationRepo
}

func NewExtendReservation(pool *pgxpool.Pool) *ExtendReservation {
	return &ExtendReservation{
		reservations: repo.NewReservationRepo(pool),
	}
}

// Execute pushes the hold forward while the user is still filling the
// intake form. Only the owning session may extend; an expired or converted
// reservation reports false rather than erroring.
func (c *ExtendReservation) Execute(ctx context.Context, req *dto.ExtendReservationRequest) (bool, error) {
	normalized := Sanitize(req.Slug)
	if normalized == "" || req.SessionID == "" {
		return false, errs.ValidationError{Msg: "missing slug or sessionId"}
	}

	return c.reservations.Extend(ctx, normalized, req.SessionID)
}
