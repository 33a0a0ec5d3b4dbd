package payment

import (
	"github.com/websimple-ai/websimple-backend/pkg/env"
)

type PaymentConfig struct {
	apiKey     string
	webhookKey string
	priceID    string
	clientURL  string
}

func NewPaymentConfig() *PaymentConfig {
	return &PaymentConfig{
		apiKey:     env.GetEnv("STRIPE_KEY", ""),
		webhookKey: env.GetEnv("STRIPE_WEBHOOK", ""),
		priceID:    env.GetEnv("STRIPE_PRICE_ID", ""),
		clientURL:  env.GetEnv("CLIENT_URL", "http://localhost:3000"),
	}
}
