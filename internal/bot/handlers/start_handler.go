package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"salesbot/internal/database"
)

// NewStartHandler returns a handler for the /start command.
func NewStartHandler(deps HandlerDeps) bot.HandlerFunc {
	return startHandler{deps}.Handle
}

// startHandler processes the /start command using injected dependencies.
type startHandler struct {
	deps HandlerDeps
}

func (h startHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "start")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Start handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	from := update.Message.From
	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /start command", "chat_id", chatID, "user_id", from.ID)
	h.deps.Metrics.UpdatesTotal.WithLabelValues("command").Inc()

	// Storage failures abort the request; the user row and message log are
	// preconditions for everything that follows.
	if err := h.deps.Store.UpsertUser(ctx, from.ID, from.Username, from.FirstName, from.LastName); err != nil {
		log.ErrorContext(ctx, "Failed to upsert user, aborting request", "error", err, "user_id", from.ID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return
	}
	if err := h.deps.Store.SaveMessage(ctx, from.ID, "/start", database.MessageKindCommand); err != nil {
		log.ErrorContext(ctx, "Failed to log /start message, aborting request", "error", err, "user_id", from.ID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return
	}

	h.deps.Sessions.Set(from.ID, StateIdle)

	name := from.FirstName
	if name == "" {
		name = from.Username
	}

	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        fmt.Sprintf(h.deps.Config.Telegram.Messages.Welcome, name),
		ReplyMarkup: mainMenu(h.deps.Config.Telegram.IsAdmin(from.ID)),
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to send welcome message", "error", err, "chat_id", chatID)
		h.deps.Metrics.Errors.WithLabelValues("telegram").Inc()
	}
}
