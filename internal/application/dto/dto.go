package dto

import "encoding/json"

type ErrorResponse struct {
	Error string `json:"error"`
}

// IntakeData is the business intake form. Validated before any LLM call.
type IntakeData struct {
	BusinessName string `json:"businessName" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	Email        string `json:"email" validate:"required,email"`
	ServiceArea  string `json:"serviceArea" validate:"required"`
	Services     string `json:"services" validate:"required"`
	Years        string `json:"years" validate:"required"`
	Industry     string `json:"industry,omitempty"`
}

type CheckSlugRequest struct {
	Slug      string `json:"slug"`
	Reserve   bool   `json:"reserve"`
	Email     string `json:"email,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

type CheckSlugResponse struct {
	Available bool   `json:"available"`
	Slug      string `json:"slug"`
	URL       string `json:"url"`
	Reserved  bool   `json:"reserved"`
	ExpiresIn string `json:"expiresIn,omitempty"`
}

type ExtendReservationRequest struct {
	Slug      string `json:"slug"`
	SessionID string `json:"sessionId"`
}

type ExtendReservationResponse struct {
	Success bool   `json:"success"`
	Slug    string `json:"slug"`
	Message string `json:"message"`
}

type SlugSuggestion struct {
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

type SuggestSlugsResponse struct {
	Original          string           `json:"original"`
	OriginalAvailable bool             `json:"originalAvailable"`
	Suggestions       []SlugSuggestion `json:"suggestions"`
}

type GenerateContentRequest struct {
	Slug       string     `json:"slug"`
	TemplateID string     `json:"templateId"`
	Intake     IntakeData `json:"intakeData"`
}

type AdditionalData struct {
	Differentiator string `json:"differentiator,omitempty"`
	Promotion      string `json:"promotion,omitempty"`
	Hours          string `json:"hours,omitempty"`
	License        string `json:"license,omitempty"`
}

type EnhanceContentRequest struct {
	Slug       string         `json:"slug"`
	Additional AdditionalData `json:"additionalData"`
}

type ContentResponse struct {
	Success      bool            `json:"success"`
	Content      json.RawMessage `json:"content"`
	GenerationMs int64           `json:"generationTime,omitempty"`
}

type PreviewContentResponse struct {
	Success    bool            `json:"success"`
	Content    json.RawMessage `json:"content"`
	TemplateID string          `json:"templateId,omitempty"`
	IntakeData json.RawMessage `json:"intakeData,omitempty"`
}

type CreateCheckoutRequest struct {
	Slug       string          `json:"slug"`
	Email      string          `json:"email"`
	TemplateID string          `json:"templateId,omitempty"`
	Intake     json.RawMessage `json:"intakeData,omitempty"`
	Content    json.RawMessage `json:"generatedContent,omitempty"`
}

type CreateCheckoutResponse struct {
	URL string `json:"url"`
}

type VerifySessionResponse struct {
	Success        bool   `json:"success"`
	Status         string `json:"status,omitempty"`
	Email          string `json:"email,omitempty"`
	Slug           string `json:"slug,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
}

type EnqueueDeployResponse struct {
	Success bool   `json:"success"`
	JobID   uint64 `json:"jobId"`
}

type SweepResponse struct {
	Count int `json:"count"`
}
