package di

import (
	"github.com/tdcjreform/community/internal/orchestrator"
	"github.com/tdcjreform/community/internal/server"
	"github.com/tdcjreform/community/internal/services"
	"github.com/tdcjreform/community/internal/webhook"
)

func ProvideOrchestrator(
	config *services.Config,
	fetcher *services.RepositoryFetcher,
	archiver *services.Archiver,
	uploader *services.Uploader,
	deployer *services.FunctionDeployer,
) *orchestrator.Orchestrator {
	return orchestrator.New(config, fetcher, archiver, uploader, deployer)
}

// ProvideRateLimiter returns nil when rate limiting is disabled
func ProvideRateLimiter(config *services.Config, disable DisableRateLimit) *webhook.RateLimiter {
	if disable || config.RateLimitPerMin <= 0 {
		return nil
	}
	return webhook.NewRateLimiter(config.RateLimitPerMin)
}

func ProvideHandler(o *orchestrator.Orchestrator, limiter *webhook.RateLimiter) *server.Handler {
	return server.NewHandler(o, limiter)
}
