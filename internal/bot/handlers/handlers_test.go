package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/jmoiron/sqlx"

	"salesbot/internal/analyzer"
	"salesbot/internal/config"
	"salesbot/internal/database"
	"salesbot/internal/export"
	"salesbot/internal/metrics"
	"salesbot/internal/offer"
)

const testAdminID int64 = 500

// fakeTelegram records every Bot API call the handlers make and answers with
// minimal valid responses.
type fakeTelegram struct {
	mu    sync.Mutex
	calls []apiCall
}

type apiCall struct {
	method string
	body   string
}

func (f *fakeTelegram) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	method := path.Base(r.URL.Path)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, body: string(body)})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if method == "answerCallbackQuery" {
		_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":77,"chat":{"id":10,"type":"private"}}}`))
}

func (f *fakeTelegram) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.method == method {
			n++
		}
	}
	return n
}

func (f *fakeTelegram) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTelegram) sawText(text string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if strings.Contains(c.body, text) {
			return true
		}
	}
	return false
}

// stubAnalyzer returns a fixed report or error without any API calls.
type stubAnalyzer struct {
	report *analyzer.Report
	err    error
	calls  int
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ string) (*analyzer.Report, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

type handlerEnv struct {
	deps     HandlerDeps
	bot      *tgbot.Bot
	tg       *fakeTelegram
	store    database.Store
	db       *sqlx.DB
	analyzer *stubAnalyzer
}

// newHandlerEnv builds a full handler dependency set around an in-memory
// store, a stub analyzer, and a fake Telegram API server.
func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	db, err := database.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewStore(db, log)

	tg := &fakeTelegram{}
	srv := httptest.NewServer(http.HandlerFunc(tg.handle))
	t.Cleanup(srv.Close)

	b, err := tgbot.New("123:test", tgbot.WithSkipGetMe(), tgbot.WithServerURL(srv.URL))
	if err != nil {
		t.Fatalf("failed to create bot: %v", err)
	}

	stub := &stubAnalyzer{report: &analyzer.Report{
		Channels:         []string{"c1", "c2"},
		Groups:           []string{"g1"},
		Potential:        "high",
		EstimatedClients: 800,
		Recommendations:  "Focus on ads",
	}}

	cfg := &config.Config{
		Telegram: config.TelegramConfig{
			Token:    "123:test",
			AdminIDs: []int64{testAdminID},
			Messages: config.DefaultMessages,
		},
		Cache: config.CacheConfig{TTL: time.Hour},
	}

	deps := HandlerDeps{
		Logger:   log,
		Config:   cfg,
		Store:    store,
		Analyzer: stub,
		Offers:   offer.NewGenerator(t.TempDir(), log),
		Exporter: export.NewExporter(store, t.TempDir(), log),
		Sessions: NewSessions(),
		Metrics:  metrics.Registry("handlers_test"),
	}

	return &handlerEnv{deps: deps, bot: b, tg: tg, store: store, db: db, analyzer: stub}
}

func messageUpdate(userID int64, text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   5,
			From: &models.User{ID: userID, Username: "ivan", FirstName: "Ivan"},
			Chat: models.Chat{ID: userID},
			Text: text,
		},
	}
}

func callbackUpdate(userID int64, data string) *models.Update {
	return &models.Update{
		ID: 2,
		CallbackQuery: &models.CallbackQuery{
			ID:   "cq-1",
			From: models.User{ID: userID, Username: "ivan", FirstName: "Ivan"},
			Data: data,
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{ID: 6, Chat: models.Chat{ID: userID}},
			},
		},
	}
}

func TestOfferGateSingleSend(t *testing.T) {
	ctx := context.Background()
	env := newHandlerEnv(t)
	handle := NewCallbackHandler(env.deps)

	handle(ctx, env.bot, callbackUpdate(42, CallbackGetOffer))

	if n := env.tg.count("sendDocument"); n != 1 {
		t.Fatalf("sendDocument calls after first request = %d, want 1", n)
	}
	sent, err := env.store.HasSentOffer(ctx, 42)
	if err != nil || !sent {
		t.Fatalf("HasSentOffer after first request = %v, %v; want true", sent, err)
	}
	if !env.tg.sawText("Commercial offer sent") {
		t.Error("missing confirmation message after first offer")
	}

	// A second press must short-circuit without another document or row.
	handle(ctx, env.bot, callbackUpdate(42, CallbackGetOffer))

	if n := env.tg.count("sendDocument"); n != 1 {
		t.Errorf("sendDocument calls after second request = %d, want 1", n)
	}
	if !env.tg.sawText("already received our commercial offer") {
		t.Error("missing already-sent message on second request")
	}
	stats, err := env.store.GetOfferDailyStats(ctx, 30)
	if err != nil {
		t.Fatalf("GetOfferDailyStats failed: %v", err)
	}
	if len(stats) != 1 || stats[0].Count != 1 {
		t.Errorf("offer rows = %+v, want a single row with count 1", stats)
	}
}

func TestRegionAnalysisFailure(t *testing.T) {
	ctx := context.Background()
	env := newHandlerEnv(t)
	env.analyzer.err = errors.New("model unavailable")
	env.deps.Sessions.Set(42, StateAwaitingRegion)

	NewMessageHandler(env.deps)(ctx, env.bot, messageUpdate(42, "Moscow"))

	user, err := env.store.GetUser(ctx, 42)
	if err != nil || user == nil {
		t.Fatalf("GetUser failed: %v, %v", user, err)
	}
	if !user.Region.Valid || user.Region.String != "Moscow" {
		t.Errorf("region after failed analysis = %+v, want Moscow", user.Region)
	}

	stored, err := env.store.GetRegionAnalysis(ctx, "Moscow")
	if err != nil {
		t.Fatalf("GetRegionAnalysis failed: %v", err)
	}
	if stored != nil {
		t.Errorf("analysis row written despite failure: %+v", stored)
	}

	if !env.tg.sawText("Could not analyze region Moscow") {
		t.Error("missing failure message")
	}
	if got := env.deps.Sessions.Get(42); got != StateIdle {
		t.Errorf("session state after failure = %v, want StateIdle", got)
	}
}

func TestRegionAnalysisSuccess(t *testing.T) {
	ctx := context.Background()
	env := newHandlerEnv(t)
	env.deps.Sessions.Set(42, StateAwaitingRegion)

	NewMessageHandler(env.deps)(ctx, env.bot, messageUpdate(42, "Kazan"))

	// Exactly one message-log row for the inbound text, written before branching.
	msgs, err := env.store.GetUserMessages(ctx, 42)
	if err != nil {
		t.Fatalf("GetUserMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "Kazan" || msgs[0].Kind != database.MessageKindText {
		t.Errorf("message log = %+v, want one text row with content Kazan", msgs)
	}

	stored, err := env.store.GetRegionAnalysis(ctx, "Kazan")
	if err != nil || stored == nil {
		t.Fatalf("GetRegionAnalysis after success = %v, %v; want row", stored, err)
	}
	if stored.PotentialClients != 800 {
		t.Errorf("stored potential clients = %d, want 800", stored.PotentialClients)
	}

	if !env.tg.sawText("HIGH") {
		t.Error("summary edit missing uppercased potential")
	}
}

func TestRegionAnalysisStoredFallback(t *testing.T) {
	ctx := context.Background()
	env := newHandlerEnv(t)

	seed := &database.RegionAnalysis{
		Region:           "Kazan",
		Channels:         "c1\nc2",
		ChatGroups:       "g1",
		PotentialClients: 800,
		Analysis:         "Focus on ads",
	}
	if err := env.store.SaveRegionAnalysis(ctx, seed); err != nil {
		t.Fatalf("failed to seed analysis: %v", err)
	}

	// Even a broken model must not be reached while the stored row is fresh.
	env.analyzer.err = errors.New("model unavailable")
	env.deps.Sessions.Set(42, StateAwaitingRegion)

	NewMessageHandler(env.deps)(ctx, env.bot, messageUpdate(42, "Kazan"))

	if env.analyzer.calls != 0 {
		t.Errorf("analyzer called %d times with a fresh stored row, want 0", env.analyzer.calls)
	}
	if !env.tg.sawText("800") {
		t.Error("summary edit missing stored client estimate")
	}
	if !env.tg.sawText("Focus on ads") {
		t.Error("summary edit missing stored recommendations")
	}
}

func TestExportBranchRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	env := newHandlerEnv(t)
	handle := NewCallbackHandler(env.deps)

	handle(ctx, env.bot, callbackUpdate(42, CallbackAdminExport))
	handle(ctx, env.bot, callbackUpdate(42, CallbackExportSummary))

	if !env.tg.sawText("Access denied") {
		t.Error("missing access-denied message for non-admin")
	}
	if n := env.tg.count("sendDocument"); n != 0 {
		t.Fatalf("sendDocument calls for non-admin = %d, want 0", n)
	}

	handle(ctx, env.bot, callbackUpdate(testAdminID, CallbackExportSummary))

	if n := env.tg.count("sendDocument"); n != 1 {
		t.Errorf("sendDocument calls for admin = %d, want 1", n)
	}
}

func TestStorageFailureAbortsHandlers(t *testing.T) {
	ctx := context.Background()
	env := newHandlerEnv(t)
	database.CloseDB(env.db)

	NewMessageHandler(env.deps)(ctx, env.bot, messageUpdate(42, "hello"))
	if n := env.tg.total(); n != 0 {
		t.Errorf("telegram calls from message handler after storage failure = %d, want 0", n)
	}

	NewStartHandler(env.deps)(ctx, env.bot, messageUpdate(42, "/start"))
	if n := env.tg.total(); n != 0 {
		t.Errorf("telegram calls from start handler after storage failure = %d, want 0", n)
	}

	// The callback press is still acknowledged, but nothing else goes out.
	NewCallbackHandler(env.deps)(ctx, env.bot, callbackUpdate(42, CallbackInterestCars))
	if n := env.tg.count("answerCallbackQuery"); n != 1 {
		t.Errorf("answerCallbackQuery calls = %d, want 1", n)
	}
	if n := env.tg.total(); n != 1 {
		t.Errorf("telegram calls from callback handler after storage failure = %d, want 1 (ack only)", n)
	}
}

func TestExportCommandCreatesUserRow(t *testing.T) {
	ctx := context.Background()
	env := newHandlerEnv(t)

	NewExportHandler(env.deps)(ctx, env.bot, messageUpdate(testAdminID, "/export"))

	user, err := env.store.GetUser(ctx, testAdminID)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user == nil {
		t.Fatal("no user row after /export")
	}

	msgs, err := env.store.GetUserMessages(ctx, testAdminID)
	if err != nil {
		t.Fatalf("GetUserMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "/export" || msgs[0].Kind != database.MessageKindCommand {
		t.Errorf("message log = %+v, want one command row with content /export", msgs)
	}

	if !env.tg.sawText("Choose the export type") {
		t.Error("missing export menu message")
	}
}
