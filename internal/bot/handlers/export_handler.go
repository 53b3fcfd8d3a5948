package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"salesbot/internal/database"
)

// NewExportHandler returns a handler for the /export admin command. It opens
// the same export menu as the main menu button.
func NewExportHandler(deps HandlerDeps) bot.HandlerFunc {
	return exportHandler{deps}.Handle
}

type exportHandler struct {
	deps HandlerDeps
}

func (h exportHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "export")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Export handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /export command", "chat_id", chatID, "user_id", from.ID)
	h.deps.Metrics.UpdatesTotal.WithLabelValues("command").Inc()

	if err := h.deps.Store.UpsertUser(ctx, from.ID, from.Username, from.FirstName, from.LastName); err != nil {
		log.ErrorContext(ctx, "Failed to upsert user, aborting request", "error", err, "user_id", from.ID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return
	}
	if err := h.deps.Store.SaveMessage(ctx, from.ID, "/export", database.MessageKindCommand); err != nil {
		log.ErrorContext(ctx, "Failed to log /export message, aborting request", "error", err, "user_id", from.ID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        h.deps.Config.Telegram.Messages.ExportMenu,
		ReplyMarkup: exportMenu(),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send export menu", "error", err, "chat_id", chatID)
		h.deps.Metrics.Errors.WithLabelValues("telegram").Inc()
	}
}
