package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"salesbot/internal/database"
	"salesbot/internal/offer"
)

// NewCallbackHandler returns the handler for all inline keyboard callbacks.
func NewCallbackHandler(deps HandlerDeps) bot.HandlerFunc {
	return callbackHandler{deps}.Handle
}

// callbackHandler dispatches inline keyboard presses by callback data.
type callbackHandler struct {
	deps HandlerDeps
}

func (h callbackHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "callback")

	cq := update.CallbackQuery
	if cq == nil || cq.Message.Message == nil {
		log.WarnContext(ctx, "Callback handler received update without accessible message", "update_id", update.ID)
		return
	}

	from := cq.From
	msg := cq.Message.Message
	data := cq.Data
	log.InfoContext(ctx, "Handling callback", "user_id", from.ID, "data", data)
	h.deps.Metrics.UpdatesTotal.WithLabelValues("callback").Inc()

	// Acknowledge the press immediately so the client stops the spinner.
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: cq.ID}); err != nil {
		log.WarnContext(ctx, "Failed to answer callback query", "error", err)
	}

	// Storage failures abort the request; the user row and message log are
	// preconditions for everything that follows.
	if err := h.deps.Store.UpsertUser(ctx, from.ID, from.Username, from.FirstName, from.LastName); err != nil {
		log.ErrorContext(ctx, "Failed to upsert user, aborting request", "error", err, "user_id", from.ID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return
	}
	if err := h.deps.Store.SaveMessage(ctx, from.ID, "button: "+data, database.MessageKindCallback); err != nil {
		log.ErrorContext(ctx, "Failed to log callback message, aborting request", "error", err, "user_id", from.ID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return
	}

	m := h.deps.Config.Telegram.Messages

	switch data {
	case CallbackInterestCars:
		if err := h.deps.Store.SaveInterest(ctx, from.ID, "cars", "general"); err != nil {
			log.ErrorContext(ctx, "Failed to save interest, aborting request", "error", err, "user_id", from.ID)
			h.deps.Metrics.Errors.WithLabelValues("store").Inc()
			return
		}
		h.edit(ctx, b, log, msg, m.CarInterest, carInterestMenu())

	case CallbackInterestNew, CallbackInterestUsed, CallbackInterestElec:
		if err := h.deps.Store.SaveInterest(ctx, from.ID, "cars", interestDetails(data)); err != nil {
			log.ErrorContext(ctx, "Failed to save interest, aborting request", "error", err, "user_id", from.ID)
			h.deps.Metrics.Errors.WithLabelValues("store").Inc()
			return
		}
		h.edit(ctx, b, log, msg, m.InterestLogged, afterAnalysisMenu())

	case CallbackAnalyzeRegion:
		h.deps.Sessions.Set(from.ID, StateAwaitingRegion)
		h.edit(ctx, b, log, msg, m.RegionPrompt, nil)

	case CallbackGetOffer:
		h.handleGetOffer(ctx, b, log, msg, from.ID)

	case CallbackAdminExport:
		if !h.deps.Config.Telegram.IsAdmin(from.ID) {
			log.WarnContext(ctx, "Unauthorized export menu access", "user_id", from.ID)
			h.edit(ctx, b, log, msg, m.NotAuthorized, nil)
			return
		}
		h.edit(ctx, b, log, msg, m.ExportMenu, exportMenu())

	case CallbackExportSummary:
		h.handleExport(ctx, b, log, msg, from.ID, "summary")

	case CallbackExportDetailed:
		h.handleExport(ctx, b, log, msg, from.ID, "detailed")

	case CallbackBackToMain:
		h.deps.Sessions.Set(from.ID, StateIdle)
		h.edit(ctx, b, log, msg, m.ChooseOption, mainMenu(h.deps.Config.Telegram.IsAdmin(from.ID)))

	default:
		log.WarnContext(ctx, "Unknown callback data", "data", data, "user_id", from.ID)
		h.edit(ctx, b, log, msg, m.ChooseOption, mainMenu(h.deps.Config.Telegram.IsAdmin(from.ID)))
	}
}

// handleGetOffer generates and sends a personalized commercial offer PDF.
// A user receives at most one offer; repeated requests get a referral to the
// manager instead.
func (h callbackHandler) handleGetOffer(ctx context.Context, b *bot.Bot, log *slog.Logger, msg *models.Message, userID int64) {
	m := h.deps.Config.Telegram.Messages

	sent, err := h.deps.Store.HasSentOffer(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to check sent offers", "error", err, "user_id", userID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		h.edit(ctx, b, log, msg, m.OfferFailed, nil)
		return
	}
	if sent {
		h.edit(ctx, b, log, msg, m.OfferAlreadySent, nil)
		return
	}

	if err := h.deps.Store.SaveInterest(ctx, userID, "offer_request", offer.DefaultOfferType); err != nil {
		log.ErrorContext(ctx, "Failed to save offer interest", "error", err, "user_id", userID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		h.edit(ctx, b, log, msg, m.OfferFailed, nil)
		return
	}

	user, err := h.deps.Store.GetUser(ctx, userID)
	if err != nil || user == nil {
		log.ErrorContext(ctx, "Failed to load user for offer", "error", err, "user_id", userID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		h.edit(ctx, b, log, msg, m.OfferFailed, nil)
		return
	}

	messages, err := h.deps.Store.GetUserMessages(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load user messages", "error", err, "user_id", userID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		h.edit(ctx, b, log, msg, m.OfferFailed, nil)
		return
	}
	interests, err := h.deps.Store.GetUserInterests(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to load user interests", "error", err, "user_id", userID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		h.edit(ctx, b, log, msg, m.OfferFailed, nil)
		return
	}

	path, err := h.deps.Offers.Generate(user, messages, interests)
	if err != nil {
		log.ErrorContext(ctx, "Failed to generate offer", "error", err, "user_id", userID)
		h.deps.Metrics.Errors.WithLabelValues("offer").Inc()
		h.edit(ctx, b, log, msg, m.OfferFailed, nil)
		return
	}

	if err := h.sendDocument(ctx, b, msg.Chat.ID, path, m.OfferCaption); err != nil {
		log.ErrorContext(ctx, "Failed to send offer document", "error", err, "user_id", userID, "path", path)
		h.deps.Metrics.Errors.WithLabelValues("telegram").Inc()
		h.edit(ctx, b, log, msg, m.OfferFailed, nil)
		return
	}

	// The offer counts as sent only after the document actually went out.
	// A failed record aborts the request; without the row the single-offer
	// gate stays open, mirroring an aborted transaction.
	if err := h.deps.Store.SaveSentOffer(ctx, userID, offer.DefaultOfferType, path); err != nil {
		log.ErrorContext(ctx, "Failed to record sent offer, aborting request", "error", err, "user_id", userID)
		h.deps.Metrics.Errors.WithLabelValues("store").Inc()
		return
	}
	h.deps.Metrics.OffersGenerated.Inc()

	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: msg.Chat.ID, Text: m.OfferConfirmed}); err != nil {
		log.ErrorContext(ctx, "Failed to send offer confirmation", "error", err, "user_id", userID)
	}
}

// handleExport runs an analytics export and sends the workbook to the admin.
func (h callbackHandler) handleExport(ctx context.Context, b *bot.Bot, log *slog.Logger, msg *models.Message, userID int64, kind string) {
	m := h.deps.Config.Telegram.Messages

	if !h.deps.Config.Telegram.IsAdmin(userID) {
		log.WarnContext(ctx, "Unauthorized export attempt", "user_id", userID, "kind", kind)
		h.edit(ctx, b, log, msg, m.NotAuthorized, nil)
		return
	}

	h.edit(ctx, b, log, msg, m.ExportRunning, nil)

	var (
		path string
		err  error
	)
	switch kind {
	case "summary":
		path, err = h.deps.Exporter.ExportSummary(ctx)
	default:
		path, err = h.deps.Exporter.ExportDetailed(ctx)
	}
	if err != nil {
		log.ErrorContext(ctx, "Export failed", "error", err, "kind", kind)
		h.deps.Metrics.ExportsTotal.WithLabelValues(kind, "error").Inc()
		h.edit(ctx, b, log, msg, m.ExportFailed, nil)
		return
	}

	caption := fmt.Sprintf(m.ExportCaption, time.Now().Format("2006-01-02 15:04"))
	if err := h.sendDocument(ctx, b, msg.Chat.ID, path, caption); err != nil {
		log.ErrorContext(ctx, "Failed to send export document", "error", err, "kind", kind, "path", path)
		h.deps.Metrics.ExportsTotal.WithLabelValues(kind, "error").Inc()
		h.deps.Metrics.Errors.WithLabelValues("telegram").Inc()
		h.edit(ctx, b, log, msg, m.ExportFailed, nil)
		return
	}
	h.deps.Metrics.ExportsTotal.WithLabelValues(kind, "success").Inc()
}

// sendDocument uploads a local file to the chat.
func (h callbackHandler) sendDocument(ctx context.Context, b *bot.Bot, chatID int64, path, caption string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document %q: %w", path, err)
	}
	defer f.Close()

	_, err = b.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: filepath.Base(path), Data: f},
		Caption:  caption,
	})
	if err != nil {
		return fmt.Errorf("send document %q: %w", path, err)
	}
	return nil
}

// edit replaces the text and keyboard of the message the button belongs to.
func (h callbackHandler) edit(ctx context.Context, b *bot.Bot, log *slog.Logger, msg *models.Message, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.EditMessageTextParams{
		ChatID:    msg.Chat.ID,
		MessageID: msg.ID,
		Text:      text,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.EditMessageText(ctx, params); err != nil {
		log.ErrorContext(ctx, "Failed to edit message", "error", err, "chat_id", msg.Chat.ID, "message_id", msg.ID)
		h.deps.Metrics.Errors.WithLabelValues("telegram").Inc()
	}
}
