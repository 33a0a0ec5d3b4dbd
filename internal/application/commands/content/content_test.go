package content_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/websimple-ai/websimple-backend/internal/application/commands/content"
	"github.com/websimple-ai/websimple-backend/internal/application/dto"
	"github.com/websimple-ai/websimple-backend/internal/application/errs"
	"github.com/websimple-ai/websimple-backend/internal/infra/db/repo"
	"github.com/websimple-ai/websimple-backend/internal/testinfra"
)

// cannedCompleter stands in for the LLM and records the prompt it got.
type cannedCompleter struct {
	response string
	err      error
	prompt   string
}

func (c *cannedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.prompt = prompt
	if c.err != nil {
		return "", c.err
	}
	return c.response, nil
}

const modelOutput = `{
	"hero": {"headline": "Wired Right", "subheadline": "Done fast", "cta_text": "Call"},
	"about": {"headline": "About", "text": "We fix wires."},
	"services": [{"title": "Rewiring", "description": "Full rewires."}],
	"trust": {"headline": "Why Us", "points": ["Insured"]},
	"cta": {"headline": "Go", "text": "Now", "button_text": "Email"},
	"seo": {"title": "Wired Right | Dallas", "description": "Electricians in Dallas"}
}`

func validIntake() dto.IntakeData {
	return dto.IntakeData{
		BusinessName: "Wired Right",
		Phone:        "(214) 555-0101",
		Email:        "hello@wired.example",
		ServiceArea:  "Dallas, TX",
		Services:     "rewiring, panel work",
		Years:        "12",
	}
}

func reserveSlug(t *testing.T, slug string) {
	t.Helper()
	reservations := repo.NewReservationRepo(testinfra.Pool)
	sess := "sess-" + slug
	won, err := reservations.Reserve(context.Background(), slug, nil, &sess)
	require.NoError(t, err)
	require.True(t, won)
}

func TestGenerateContentAttachesVerbatimBusinessFacts(t *testing.T) {
	ctx := context.Background()
	reserveSlug(t, "gen-facts")

	ai := &cannedCompleter{response: modelOutput}
	generate := content.NewGenerateContent(testinfra.Pool, ai)

	generated, err := generate.Execute(ctx, &dto.GenerateContentRequest{
		Slug:       "gen-facts",
		TemplateID: "electrician",
		Intake:     validIntake(),
	})
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(generated, &parsed))

	business := parsed["business"].(map[string]any)
	require.Equal(t, "Wired Right", business["name"])
	require.Equal(t, "(214) 555-0101", business["phone"], "phone comes from intake, never the model")
	require.Equal(t, "electrician", parsed["template"])
	require.NotEmpty(t, parsed["generatedAt"])

	// the prompt carries the intake and the industry context
	require.Contains(t, ai.prompt, "Wired Right")
	require.Contains(t, ai.prompt, "licensed electrical contractor")

	// the reservation now holds the progressive payload
	res, err := repo.NewReservationRepo(testinfra.Pool).Get(ctx, "gen-facts")
	require.NoError(t, err)
	require.Equal(t, "electrician", *res.TemplateID)
	require.NotEmpty(t, res.GeneratedContent)
	require.NotEmpty(t, res.IntakeData)
}

func TestGenerateContentStripsMarkdownFences(t *testing.T) {
	ctx := context.Background()
	reserveSlug(t, "gen-fences")

	ai := &cannedCompleter{response: "```json\n" + modelOutput + "\n```"}
	generate := content.NewGenerateContent(testinfra.Pool, ai)

	generated, err := generate.Execute(ctx, &dto.GenerateContentRequest{
		Slug:       "gen-fences",
		TemplateID: "electrician",
		Intake:     validIntake(),
	})
	require.NoError(t, err)
	require.True(t, json.Valid(generated))
}

func TestGenerateContentValidatesIntake(t *testing.T) {
	ctx := context.Background()
	generate := content.NewGenerateContent(testinfra.Pool, &cannedCompleter{response: modelOutput})

	intake := validIntake()
	intake.Phone = ""
	_, err := generate.Execute(ctx, &dto.GenerateContentRequest{
		Slug:       "gen-invalid",
		TemplateID: "electrician",
		Intake:     intake,
	})
	var validation errs.ValidationError
	require.ErrorAs(t, err, &validation)

	_, err = generate.Execute(ctx, &dto.GenerateContentRequest{Intake: validIntake()})
	require.ErrorAs(t, err, &validation)
}

func TestGenerateContentFailsWithoutReservation(t *testing.T) {
	ctx := context.Background()
	generate := content.NewGenerateContent(testinfra.Pool, &cannedCompleter{response: modelOutput})

	_, err := generate.Execute(ctx, &dto.GenerateContentRequest{
		Slug:       "gen-unreserved",
		TemplateID: "electrician",
		Intake:     validIntake(),
	})
	var validation errs.ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestGenerateContentSurfacesModelFailure(t *testing.T) {
	ctx := context.Background()
	reserveSlug(t, "gen-down")

	generate := content.NewGenerateContent(testinfra.Pool, &cannedCompleter{err: errors.New("rate limited")})
	_, err := generate.Execute(ctx, &dto.GenerateContentRequest{
		Slug:       "gen-down",
		TemplateID: "electrician",
		Intake:     validIntake(),
	})
	require.ErrorContains(t, err, "content generation failed")
}

func TestEnhanceContentPreservesProvenance(t *testing.T) {
	ctx := context.Background()
	reserveSlug(t, "enh-keep")

	generate := content.NewGenerateContent(testinfra.Pool, &cannedCompleter{response: modelOutput})
	_, err := generate.Execute(ctx, &dto.GenerateContentRequest{
		Slug:       "enh-keep",
		TemplateID: "electrician",
		Intake:     validIntake(),
	})
	require.NoError(t, err)

	enhanceOutput := fmt.Sprintf(`{"hero": {"headline": "Better"}, "about": {"text": "Updated"}, "business": {"name": "Hallucinated Inc"}, "services": %s}`, `[]`)
	ai := &cannedCompleter{response: enhanceOutput}
	enhance := content.NewEnhanceContent(testinfra.Pool, ai)

	enhanced, err := enhance.Execute(ctx, &dto.EnhanceContentRequest{
		Slug: "enh-keep",
		Additional: dto.AdditionalData{
			Differentiator: "24/7 emergency line",
			Promotion:      "10% off first visit",
			Hours:          "Mon-Fri 8-6",
			License:        "TX-123",
		},
	})
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(enhanced, &parsed))

	business := parsed["business"].(map[string]any)
	require.Equal(t, "Wired Right", business["name"], "model cannot overwrite business facts")
	require.Equal(t, "Mon-Fri 8-6", business["hours"])
	require.Equal(t, "TX-123", business["license"])
	require.Equal(t, "electrician", parsed["template"])
	require.Equal(t, "10% off first visit", parsed["promotion"])
	require.NotEmpty(t, parsed["generatedAt"])
	require.NotEmpty(t, parsed["enhancedAt"])

	require.Contains(t, ai.prompt, "24/7 emergency line")
}

func TestEnhanceContentRequiresExistingContent(t *testing.T) {
	ctx := context.Background()
	reserveSlug(t, "enh-empty")

	enhance := content.NewEnhanceContent(testinfra.Pool, &cannedCompleter{response: "{}"})
	_, err := enhance.Execute(ctx, &dto.EnhanceContentRequest{Slug: "enh-empty"})
	var validation errs.ValidationError
	require.ErrorAs(t, err, &validation)
}
