package publish

import (
	"strconv"
	"time"

	"github.com/websimple-ai/websimple-backend/pkg/env"
)

type WranglerConfig struct {
	BaseDomain    string
	ProjectPrefix string
	Timeout       time.Duration
}

func NewWranglerConfig() *WranglerConfig {
	timeoutSecs, err := strconv.Atoi(env.GetEnv("PUBLISH_TIMEOUT_SECONDS", "120"))
	if err != nil {
		timeoutSecs = 120
	}
	return &WranglerConfig{
		BaseDomain:    env.GetEnv("BASE_DOMAIN", "llc-us.com"),
		ProjectPrefix: env.GetEnv("PUBLISH_PROJECT_PREFIX", "llc-"),
		Timeout:       time.Duration(timeoutSecs) * time.Second,
	}
}
