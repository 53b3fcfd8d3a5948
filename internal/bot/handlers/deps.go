package handlers

import (
	"log/slog"

	"salesbot/internal/analyzer"
	"salesbot/internal/cache"
	"salesbot/internal/config"
	"salesbot/internal/database"
	"salesbot/internal/export"
	"salesbot/internal/metrics"
	"salesbot/internal/offer"
)

// HandlerDeps provides dependencies for Telegram command and callback handlers.
type HandlerDeps struct {
	Logger   *slog.Logger
	Config   *config.Config
	Store    database.Store
	Analyzer analyzer.Client
	Offers   *offer.Generator
	Exporter *export.Exporter
	Sessions *Sessions
	Metrics  *metrics.Metrics
	Cache    *cache.Redis // nil when caching is disabled
}
