package rest

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/websimple-ai/websimple-backend/internal/application"
	"github.com/websimple-ai/websimple-backend/internal/application/dto"
	"github.com/websimple-ai/websimple-backend/internal/application/errs"
)

type Server struct {
	handlers *application.Handlers
}

func NewServer(handlers *application.Handlers) *Server {
	return &Server{handlers: handlers}
}

func (s *Server) CheckSlug(c *fiber.Ctx) error {
	var req dto.CheckSlugRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	resp, err := s.handlers.CheckSlug.Execute(c.Context(), &req)
	if err != nil {
		return errorStatus(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) ExtendReservation(c *fiber.Ctx) error {
	var req dto.ExtendReservationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	extended, err := s.handlers.ExtendReservation.Execute(c.Context(), &req)
	if err != nil {
		return errorStatus(c, err)
	}

	resp := dto.ExtendReservationResponse{
		Success: extended,
		Slug:    req.Slug,
	}
	if extended {
		resp.Message = "Reservation extended"
	} else {
		resp.Message = "Reservation not found or expired"
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) SuggestSlugs(c *fiber.Ctx) error {
	resp, err := s.handlers.SuggestSlugs.Query(c.Context(), c.Params("name"))
	if err != nil {
		return errorStatus(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) GenerateContent(c *fiber.Ctx) error {
	var req dto.GenerateContentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	generated, err := s.handlers.GenerateContent.Execute(c.Context(), &req)
	if err != nil {
		return errorStatus(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.ContentResponse{
		Success: true,
		Content: generated,
	})
}

func (s *Server) EnhanceContent(c *fiber.Ctx) error {
	var req dto.EnhanceContentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	enhanced, err := s.handlers.EnhanceContent.Execute(c.Context(), &req)
	if err != nil {
		return errorStatus(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.ContentResponse{
		Success: true,
		Content: enhanced,
	})
}

func (s *Server) PreviewContent(c *fiber.Ctx) error {
	resp, err := s.handlers.PreviewContent.Query(c.Context(), c.Params("slug"))
	if err != nil {
		return errorStatus(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) CreateCheckout(c *fiber.Ctx) error {
	var req dto.CreateCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	url, err := s.handlers.Checkout.Execute(c.Context(), &req)
	if err != nil {
		return errorStatus(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.CreateCheckoutResponse{URL: url})
}

func (s *Server) VerifySession(c *fiber.Ctx) error {
	resp, err := s.handlers.VerifySession.Execute(c.Context(), c.Params("sessionId"))
	if err != nil {
		return errorStatus(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) StripeWebhook(c *fiber.Ctx) error {
	err := s.handlers.Webhook.Execute(c.Context(), c.Body(), c.Get("Stripe-Signature"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

func (s *Server) EnqueueDeploy(c *fiber.Ctx) error {
	job, err := s.handlers.EnqueueDeploy.Execute(c.Context(), c.Params("slug"))
	if err != nil {
		return errorStatus(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.EnqueueDeployResponse{
		Success: true,
		JobID:   job.ID,
	})
}

func (s *Server) RetryDeploys(c *fiber.Ctx) error {
	maxAttempts := c.QueryInt("maxAttempts", 3)
	jobs, err := s.handlers.RetryDeploys.Execute(c.Context(), maxAttempts)
	if err != nil {
		return errorStatus(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.SweepResponse{Count: len(jobs)})
}

func (s *Server) ReleaseStale(c *fiber.Ctx) error {
	olderThan := c.QueryInt("olderThanMinutes", 10)
	jobs, err := s.handlers.ReleaseStale.Execute(c.Context(), olderThan)
	if err != nil {
		return errorStatus(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.SweepResponse{Count: len(jobs)})
}

func (s *Server) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}

// errorStatus keeps the taxonomy: validation problems are the caller's,
// everything else is ours.
func errorStatus(c *fiber.Ctx, err error) error {
	var validation errs.ValidationError
	if errors.As(err, &validation) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: validation.Msg})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: err.Error()})
}

func RegisterHandlers(app *fiber.App, s *Server) {
	api := app.Group("/api")

	api.Get("/health", s.Health)
	api.Post("/check-slug", s.CheckSlug)
	api.Post("/extend-reservation", s.ExtendReservation)
	api.Get("/suggest-slugs/:name", s.SuggestSlugs)
	api.Post("/generate-content", s.GenerateContent)
	api.Post("/enhance-content", s.EnhanceContent)
	api.Get("/preview-content/:slug", s.PreviewContent)
	api.Post("/create-checkout", s.CreateCheckout)
	api.Get("/verify-session/:sessionId", s.VerifySession)
	api.Post("/webhook/stripe", s.StripeWebhook)
	api.Post("/deploy/:slug", s.EnqueueDeploy)
	api.Post("/admin/retry-deploys", s.RetryDeploys)
	api.Post("/admin/release-stale", s.ReleaseStale)
}
