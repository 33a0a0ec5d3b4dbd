package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/application/dto"
	"github.com/websimple-ai/websimple-backend/internal/application/errs"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
)

type EnhanceContent struct {
	aiClient     Completer
	reservations *repo.ReservationRepo
}

func NewEnhanceContent(pool *pgxpool.Pool, client Completer) *EnhanceContent {
	return &EnhanceContent{
		aiClient:     client,
		reservations: repo.NewReservationRepo(pool),
	}
}

// Execute folds post-purchase details (differentiator, promotion, hours,
// license) into already-generated content.
func (c *EnhanceContent) Execute(ctx context.Context, req *dto.EnhanceContentRequest) (json.RawMessage, error) {
	if req.Slug == "" {
		return nil, errs.ValidationError{Msg: "missing required fields: slug, additionalData"}
	}

	reservation, err := c.reservations.Get(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	if reservation == nil || len(reservation.GeneratedContent) == 0 {
		return nil, errs.ValidationError{Msg: "no existing content found for this slug"}
	}

	slog.Info("Enhancing content", "slug", req.Slug)
	start := time.Now()

	raw, err := c.aiClient.Complete(ctx, enhancementPrompt(reservation.GeneratedContent, req.Additional))
	if err != nil {
		return nil, fmt.Errorf("content enhancement failed, %v", err)
	}

	var enhanced map[string]any
	if err := json.Unmarshal([]byte(stripFences(raw)), &enhanced); err != nil {
		return nil, fmt.Errorf("model returned malformed JSON, %v", err)
	}

	// business facts and provenance survive enhancement untouched
	existing := db.RawMessageToMap(reservation.GeneratedContent)
	business, _ := existing["business"].(map[string]any)
	if business == nil {
		business = map[string]any{}
	}
	if req.Additional.Hours != "" {
		business["hours"] = req.Additional.Hours
	}
	if req.Additional.License != "" {
		business["license"] = req.Additional.License
	}
	enhanced["business"] = business
	enhanced["template"] = existing["template"]
	enhanced["generatedAt"] = existing["generatedAt"]
	enhanced["enhancedAt"] = time.Now().UTC().Format(time.RFC3339)
	if req.Additional.Promotion != "" {
		enhanced["promotion"] = req.Additional.Promotion
	}

	result := db.MapToRawMessage(enhanced)
	if _, err := c.reservations.Update(ctx, req.Slug, nil, nil, result); err != nil {
		return nil, err
	}
	slog.Info("Content enhanced", "slug", req.Slug, "took", time.Since(start))

	return result, nil
}

func enhancementPrompt(existing json.RawMessage, additional dto.AdditionalData) string {
	details := ""
	if additional.Differentiator != "" {
		details += fmt.Sprintf("- What makes them different: %s\n", additional.Differentiator)
	}
	if additional.Promotion != "" {
		details += fmt.Sprintf("- Current promotion: %s\n", additional.Promotion)
	}
	if additional.Hours != "" {
		details += fmt.Sprintf("- Hours of operation: %s\n", additional.Hours)
	}
	if additional.License != "" {
		details += fmt.Sprintf("- License number: %s\n", additional.License)
	}

	return fmt.Sprintf(`You are updating website content for an existing business. Here is the current content:

%s

NEW INFORMATION TO INCORPORATE:
%s
Update the content to incorporate this new information naturally. Keep the same JSON structure. Make the differentiator a key part of the about section and trust points. If there's a promotion, add it to the hero or CTA section.

Return ONLY valid JSON, no markdown formatting, no backticks.`, existing, details)
}
