package application

import (
	"github.com/websimple-ai/websimple-backend/internal/application/commands/content"
	"github.com/websimple-ai/websimple-backend/internal/application/commands/deploy"
	"github.com/websimple-ai/websimple-backend/internal/application/commands/payment"
	"github.com/websimple-ai/websimple-backend/internal/application/commands/slug"
	"github.com/websimple-ai/websimple-backend/internal/application/query"
)

type Handlers struct {
	CheckSlug         *slug.CheckSlug
	ExtendReservation *slug.ExtendReservation
	SuggestSlugs      *query.SuggestSlugs
	PreviewContent    *query.PreviewContent
	GenerateContent   *content.GenerateContent
	EnhanceContent    *content.EnhanceContent
	Checkout          *payment.Checkout
	VerifySession     *payment.VerifySession
	Webhook           *payment.Webhook
	EnqueueDeploy     *deploy.EnqueueDeploy
	RetryDeploys      *deploy.RetryDeploys
	ReleaseStale      *deploy.ReleaseStale
}
