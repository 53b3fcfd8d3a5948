package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"salesbot/internal/analyzer"
	"salesbot/internal/database"
)

// NewMessageHandler returns the default handler for plain text messages.
// It drives the region analysis conversation and falls back to the main menu
// for anything else.
func NewMessageHandler(deps HandlerDeps) bot.HandlerFunc {
	return messageHandler{deps}.Handle
}

type messageHandler struct {
	deps HandlerDeps
}

func (h messageHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "message")

	if update.Message == nil || update.Message.From == nil || update.Message.Text == "" {
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID
	text := update.Message.Text
	h.deps.Metrics.UpdatesTotal.WithLabelValues("message").Inc()

	// Storage failures abort the request; the user row and message log are
	// preconditions for everything that follows.
	if err := h.deps.Store.UpsertUser(ctx, from.ID, from.Username, from.FirstName, from.LastName); err != nil {
		log.ErrorContext(ctx, "Failed to upsert user, aborting request", "error", err, "user_id", from.ID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return
	}
	if err := h.deps.Store.SaveMessage(ctx, from.ID, text, database.MessageKindText); err != nil {
		log.ErrorContext(ctx, "Failed to log text message, aborting request", "error", err, "user_id", from.ID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return
	}

	if h.deps.Sessions.Get(from.ID) == StateAwaitingRegion {
		h.handleRegionInput(ctx, b, log, chatID, from.ID, text)
		return
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.deps.Config.Telegram.Messages.ChooseOption,
		ReplyMarkup: mainMenu(h.deps.Config.Telegram.IsAdmin(from.ID)),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send menu prompt", "error", err, "chat_id", chatID)
		h.deps.Metrics.Errors.WithLabelValues("telegram").Inc()
	}
}

// handleRegionInput treats the text as a region name: it stores the region on
// the user record, logs the interest, runs the analysis, and replies with the
// formatted market summary.
func (h messageHandler) handleRegionInput(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID, userID int64, text string) {
	m := h.deps.Config.Telegram.Messages
	region := strings.TrimSpace(text)

	h.deps.Sessions.Set(userID, StateIdle)

	// The region is recorded on the user before the analysis runs, so it is
	// kept even when the analysis later fails. Storage failures abort the
	// request before any reply goes out.
	if err := h.deps.Store.SetUserRegion(ctx, userID, region); err != nil {
		log.ErrorContext(ctx, "Failed to set user region, aborting request", "error", err, "user_id", userID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return
	}
	if err := h.deps.Store.SaveInterest(ctx, userID, "region_analysis", region); err != nil {
		log.ErrorContext(ctx, "Failed to save region interest, aborting request", "error", err, "user_id", userID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return
	}

	progress, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf(m.RegionAnalyzing, region),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send progress message", "error", err, "chat_id", chatID)
		h.deps.Metrics.Errors.WithLabelValues("telegram").Inc()
		return
	}

	report, fromCache, err := h.analyzeRegion(ctx, log, region)
	if err != nil {
		log.ErrorContext(ctx, "Region analysis failed", "error", err, "region", region, "user_id", userID)
		h.editProgress(ctx, b, log, chatID, progress.ID, fmt.Sprintf(m.RegionFailed, region), nil)
		return
	}

	// Cached results keep the stored row's timestamp; re-saving would
	// refresh updated_at and make the entry never expire.
	if !fromCache {
		saved := &database.RegionAnalysis{
			Region:           region,
			Channels:         strings.Join(report.Channels, "\n"),
			ChatGroups:       strings.Join(report.Groups, "\n"),
			PotentialClients: report.EstimatedClients,
			Analysis:         report.Recommendations,
		}
		if err := h.deps.Store.SaveRegionAnalysis(ctx, saved); err != nil {
			log.ErrorContext(ctx, "Failed to persist region analysis, aborting request", "error", err, "region", region)
			h.deps.Metrics.Errors.WithLabelValues("store").Inc()
			return
		}
	}

	summary := analyzer.FormatSummary(region, report)
	h.editProgress(ctx, b, log, chatID, progress.ID, summary, afterAnalysisMenu())
}

// analyzeRegion returns a cached report when available, otherwise calls the
// AI client and fills the cache. The Redis hot cache is consulted first, then
// the stored analysis row (fresh within the cache TTL), then the model.
func (h messageHandler) analyzeRegion(ctx context.Context, log *slog.Logger, region string) (*analyzer.Report, bool, error) {
	key := "region:" + strings.ToLower(region)

	if h.deps.Cache != nil {
		var cached analyzer.Report
		hit, err := h.deps.Cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.WarnContext(ctx, "Cache lookup failed", "error", err, "key", key)
			h.deps.Metrics.Errors.WithLabelValues("cache").Inc()
		} else if hit {
			log.DebugContext(ctx, "Region analysis cache hit", "region", region)
			h.deps.Metrics.AnalyzeRequests.WithLabelValues("cached").Inc()
			return &cached, true, nil
		}
	}

	stored, err := h.deps.Store.GetRegionAnalysis(ctx, region)
	if err != nil {
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return nil, false, err
	}
	if stored != nil && time.Since(stored.UpdatedAt) < h.deps.Config.Cache.TTL {
		log.DebugContext(ctx, "Serving stored region analysis", "region", region, "updated_at", stored.UpdatedAt)
		h.deps.Metrics.AnalyzeRequests.WithLabelValues("cached").Inc()
		return reportFromStored(stored), true, nil
	}

	start := time.Now()
	report, err := h.deps.Analyzer.Analyze(ctx, region)
	status := "success"
	if err != nil {
		status = "error"
	}
	h.deps.Metrics.AnalyzeRequests.WithLabelValues(status).Inc()
	h.deps.Metrics.AnalyzeLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, false, err
	}

	if h.deps.Cache != nil {
		if err := h.deps.Cache.SetJSON(ctx, key, report); err != nil {
			log.WarnContext(ctx, "Cache store failed", "error", err, "key", key)
			h.deps.Metrics.Errors.WithLabelValues("cache").Inc()
		}
	}
	return report, false, nil
}

// reportFromStored rebuilds a report from a persisted analysis row. The row
// does not keep the potential rating, so the summary falls back to its
// formatting default for that field.
func reportFromStored(stored *database.RegionAnalysis) *analyzer.Report {
	return &analyzer.Report{
		Channels:         splitLines(stored.Channels),
		Groups:           splitLines(stored.ChatGroups),
		EstimatedClients: stored.PotentialClients,
		Recommendations:  stored.Analysis,
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func (h messageHandler) editProgress(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, messageID int, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.EditMessageTextParams{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.EditMessageText(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to edit progress message", "error", err, "chat_id", chatID, "message_id", messageID)
		h.deps.Metrics.Errors.WithLabelValues("telegram").Inc()
	}
}
