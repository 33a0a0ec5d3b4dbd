package query

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/application/dto"
	"github.com/websimple-ai/websimple-backend/internal/application/errs"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
)

type PreviewContent struct {
	reservations *repo.ReservationRepo
}

func NewPreviewContent(pool *pgxpool.Pool) *PreviewContent {
	return &PreviewContent{
		reservations: repo.NewReservationRepo(pool),
	}
}

func (q *PreviewContent) Query(ctx context.Context, slug string) (*dto.PreviewContentResponse, error) {
	reservation, err := q.reservations.Get(ctx, slug)
	if err != nil {
		return nil, err
	}
	if reservation == nil {
		return nil, errs.ValidationError{Msg: "reservation not found"}
	}
	if len(reservation.GeneratedContent) == 0 {
		return nil, errs.ValidationError{Msg: "no content generated yet"}
	}

	resp := &dto.PreviewContentResponse{
		Success: true,
		Content: reservation.GeneratedContent,
	}
	if reservation.TemplateID != nil {
		resp.TemplateID = *reservation.TemplateID
	}
	resp.IntakeData = reservation.IntakeData

	return resp, nil
}
