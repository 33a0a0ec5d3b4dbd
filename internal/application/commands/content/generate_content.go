package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/websimple-ai/websimple-backend/internal/application/dto"
	"github.com/websimple-ai/websimple-backend/internal/application/errs"
	"github.com/websimple-ai/websimple-backend/internal/infra/db"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
)

// Completer is the LLM boundary; tests plug in a canned implementation.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type GenerateContent struct {
	aiClient     Completer
	reservations *repo.ReservationRepo
	validate     *validator.Validate
}

func NewGenerateContent(pool *pgxpool.Pool, client Completer) *GenerateContent {
	return &GenerateContent{
		aiClient:     client,
		reservations: repo.NewReservationRepo(pool),
		validate:     validator.New(),
	}
}

func (c *GenerateContent) Execute(ctx context.Context, req *dto.GenerateContentRequest) (json.RawMessage, error) {
	if req.Slug == "" || req.TemplateID == "" {
		return nil, errs.ValidationError{Msg: "missing required fields: slug, templateId, intakeData"}
	}
	if err := c.validate.Struct(req.Intake); err != nil {
		return nil, errs.ValidationError{Msg: fmt.Sprintf("missing intake fields: %v", err)}
	}

	slog.Info("Generating content", "business", req.Intake.BusinessName)
	start := time.Now()

	intake := req.Intake
	if intake.Industry == "" {
		intake.Industry = req.TemplateID
	}

	raw, err := c.aiClient.Complete(ctx, generationPrompt(intake))
	if err != nil {
		return nil, fmt.Errorf("content generation failed, %v", err)
	}

	generated, err := decorateContent(raw, intake, req.TemplateID)
	if err != nil {
		return nil, err
	}
	slog.Info("Content generated", "business", req.Intake.BusinessName, "took", time.Since(start))

	intakeJSON, err := json.Marshal(intake)
	if err != nil {
		return nil, fmt.Errorf("can't marshal intake, %v", err)
	}
	updated, err := c.reservations.Update(ctx, req.Slug, &req.TemplateID, intakeJSON, generated)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errs.ValidationError{Msg: "no reservation found for slug"}
	}

	return generated, nil
}

// decorateContent parses the model output and attaches the business facts
// the templates need verbatim, so a hallucinated phone number can never
// reach a rendered page.
func decorateContent(raw string, intake dto.IntakeData, templateID string) (json.RawMessage, error) {
	var content map[string]any
	if err := json.Unmarshal([]byte(stripFences(raw)), &content); err != nil {
		return nil, fmt.Errorf("model returned malformed JSON, %v", err)
	}

	content["business"] = map[string]any{
		"name":        intake.BusinessName,
		"phone":       intake.Phone,
		"email":       intake.Email,
		"serviceArea": intake.ServiceArea,
		"years":       intake.Years,
		"industry":    intake.Industry,
	}
	content["template"] = templateID
	content["generatedAt"] = time.Now().UTC().Format(time.RFC3339)

	return db.MapToRawMessage(content), nil
}

var industryContext = map[string]string{
	"electrician": "licensed electrical contractor specializing in residential and commercial work",
	"plumber":     "professional plumbing company serving homes and businesses",
	"hvac":        "heating, ventilation, and air conditioning specialist",
	"landscaping": "landscape design and maintenance professional",
	"contractor":  "general contracting and remodeling expert",
	"roofing":     "roofing installation and repair specialist",
	"cleaning":    "professional cleaning service",
}

func generationPrompt(intake dto.IntakeData) string {
	businessType, ok := industryContext[intake.Industry]
	if !ok {
		businessType = "professional service provider"
	}

	return fmt.Sprintf(`You are an expert copywriter creating website content for a %s. Write compelling, professional content that converts visitors into customers.

BUSINESS DETAILS:
- Business Name: %s
- Industry: %s
- Phone: %s
- Email: %s
- Service Area: %s
- What They Do: %s
- Years in Business: %s

CONTENT REQUIREMENTS:
1. Tone: confident, professional, trustworthy, but not corporate or stuffy
2. Service Area: naturally mention %s to establish local presence
3. Experience: emphasize %s years as proof of reliability and expertise
4. CTAs: action-oriented and benefit-focused, not just "Contact Us"

Generate a JSON object with this EXACT structure:

{
    "hero": {"headline": "...", "subheadline": "...", "cta_text": "..."},
    "about": {"headline": "...", "text": "3-4 sentences about the business story and what makes them different"},
    "services": [{"title": "...", "description": "2-3 sentences on benefits and what's included"}],
    "trust": {"headline": "...", "points": ["...", "...", "..."]},
    "cta": {"headline": "...", "text": "...", "button_text": "..."},
    "seo": {"title": "under 60 chars with business name, main service and location", "description": "under 155 chars"}
}

Parse the "What They Do" field carefully and create 3-6 individual services specific to what they actually do.

Return ONLY valid JSON, no markdown formatting, no backticks.`,
		businessType, intake.BusinessName, intake.Industry, intake.Phone, intake.Email,
		intake.ServiceArea, intake.Services, intake.Years, intake.ServiceArea, intake.Years)
}
