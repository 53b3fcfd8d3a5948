package database

import (
	"context"
	"testing"
)

// newTestStore opens an in-memory SQLite database with the real embedded
// migrations applied and returns a Store backed by it.
func newTestStore(t *testing.T) Store {
	t.Helper()

	db, err := NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { CloseDB(db) })

	return NewStore(db, nil)
}

func TestUpsertUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.UpsertUser(ctx, 42, "ivan", "Ivan", "Petrov"); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	user, err := store.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user == nil {
		t.Fatal("expected user row after upsert, got nil")
	}
	if user.Username != "ivan" || user.FirstName != "Ivan" {
		t.Errorf("unexpected user fields: %+v", user)
	}
	if !user.LastContact.Valid {
		t.Error("expected last_contact to be set on upsert")
	}

	// A second upsert must update identity fields but preserve the region.
	if err := store.SetUserRegion(ctx, 42, "Moscow"); err != nil {
		t.Fatalf("SetUserRegion failed: %v", err)
	}
	if err := store.UpsertUser(ctx, 42, "ivan_new", "Ivan", "Petrov"); err != nil {
		t.Fatalf("second UpsertUser failed: %v", err)
	}

	user, err = store.GetUser(ctx, 42)
	if err != nil {
		t.Fatalf("GetUser after re-upsert failed: %v", err)
	}
	if user.Username != "ivan_new" {
		t.Errorf("expected username updated to %q, got %q", "ivan_new", user.Username)
	}
	if !user.Region.Valid || user.Region.String != "Moscow" {
		t.Errorf("expected region preserved as Moscow, got %+v", user.Region)
	}
}

func TestGetUserNotFound(t *testing.T) {
	store := newTestStore(t)

	user, err := store.GetUser(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if user != nil {
		t.Errorf("expected nil for unknown user, got %+v", user)
	}
}

func TestSetUserRegionLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.UpsertUser(ctx, 7, "u", "U", ""); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	for _, region := range []string{"Moscow", "Kazan"} {
		if err := store.SetUserRegion(ctx, 7, region); err != nil {
			t.Fatalf("SetUserRegion(%q) failed: %v", region, err)
		}
	}

	user, err := store.GetUser(ctx, 7)
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if !user.Region.Valid || user.Region.String != "Kazan" {
		t.Errorf("expected region Kazan after two writes, got %+v", user.Region)
	}
}

func TestMessageLogOrdering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.UpsertUser(ctx, 1, "u", "U", ""); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	inputs := []struct {
		content string
		kind    string
	}{
		{"/start", MessageKindCommand},
		{"button: get_offer", MessageKindCallback},
		{"Siberia", MessageKindText},
	}
	for _, in := range inputs {
		if err := store.SaveMessage(ctx, 1, in.content, in.kind); err != nil {
			t.Fatalf("SaveMessage(%q) failed: %v", in.content, err)
		}
	}

	messages, err := store.GetUserMessages(ctx, 1)
	if err != nil {
		t.Fatalf("GetUserMessages failed: %v", err)
	}
	if len(messages) != len(inputs) {
		t.Fatalf("expected %d messages, got %d", len(inputs), len(messages))
	}
	for i, in := range inputs {
		if messages[i].Content != in.content || messages[i].Kind != in.kind {
			t.Errorf("message %d = %q/%q, want %q/%q", i, messages[i].Content, messages[i].Kind, in.content, in.kind)
		}
	}
}

func TestSaveMessageValidation(t *testing.T) {
	store := newTestStore(t)

	if err := store.SaveMessage(context.Background(), 0, "text", MessageKindText); err == nil {
		t.Error("expected error for zero user_id")
	}
	if err := store.SaveMessage(context.Background(), 1, "text", ""); err == nil {
		t.Error("expected error for empty kind")
	}
}

func TestInterestLog(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.UpsertUser(ctx, 3, "u", "U", ""); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if err := store.SaveInterest(ctx, 3, "car_interest", "general interest in cars"); err != nil {
		t.Fatalf("SaveInterest failed: %v", err)
	}
	if err := store.SaveInterest(ctx, 3, "region_analysis", "Siberia"); err != nil {
		t.Fatalf("SaveInterest failed: %v", err)
	}

	interests, err := store.GetUserInterests(ctx, 3)
	if err != nil {
		t.Fatalf("GetUserInterests failed: %v", err)
	}
	if len(interests) != 2 {
		t.Fatalf("expected 2 interests, got %d", len(interests))
	}
	if interests[0].Kind != "car_interest" || interests[1].Kind != "region_analysis" {
		t.Errorf("unexpected interest ordering: %+v", interests)
	}
}

func TestSentOfferGate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.UpsertUser(ctx, 5, "u", "U", ""); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}

	sent, err := store.HasSentOffer(ctx, 5)
	if err != nil {
		t.Fatalf("HasSentOffer failed: %v", err)
	}
	if sent {
		t.Error("expected no sent offer for fresh user")
	}

	if err := store.SaveSentOffer(ctx, 5, "car_offer", "offers/offer_5_20250101_1200.pdf"); err != nil {
		t.Fatalf("SaveSentOffer failed: %v", err)
	}

	// The gate must hold on repeated checks.
	for i := 0; i < 3; i++ {
		sent, err = store.HasSentOffer(ctx, 5)
		if err != nil {
			t.Fatalf("HasSentOffer check %d failed: %v", i, err)
		}
		if !sent {
			t.Fatalf("expected HasSentOffer true on check %d", i)
		}
	}
}

func TestRegionAnalysisUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	missing, err := store.GetRegionAnalysis(ctx, "Nowhere")
	if err != nil {
		t.Fatalf("GetRegionAnalysis failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown region, got %+v", missing)
	}

	first := &RegionAnalysis{
		Region:           "Siberia",
		Channels:         "chan1,chan2",
		ChatGroups:       "group1",
		PotentialClients: 500,
		Analysis:         `{"potential":"low"}`,
	}
	if err := store.SaveRegionAnalysis(ctx, first); err != nil {
		t.Fatalf("SaveRegionAnalysis failed: %v", err)
	}

	second := &RegionAnalysis{
		Region:           "Siberia",
		Channels:         "chan3",
		ChatGroups:       "group2,group3",
		PotentialClients: 2000,
		Analysis:         `{"potential":"high"}`,
	}
	if err := store.SaveRegionAnalysis(ctx, second); err != nil {
		t.Fatalf("second SaveRegionAnalysis failed: %v", err)
	}

	got, err := store.GetRegionAnalysis(ctx, "Siberia")
	if err != nil {
		t.Fatalf("GetRegionAnalysis failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected analysis row, got nil")
	}
	if got.PotentialClients != 2000 || got.Channels != "chan3" {
		t.Errorf("expected re-analysis to replace the row, got %+v", got)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for id, region := range map[int64]string{10: "Moscow", 11: "Moscow", 12: "Kazan"} {
		if err := store.UpsertUser(ctx, id, "u", "U", ""); err != nil {
			t.Fatalf("UpsertUser failed: %v", err)
		}
		if err := store.SetUserRegion(ctx, id, region); err != nil {
			t.Fatalf("SetUserRegion failed: %v", err)
		}
	}
	if err := store.SaveSentOffer(ctx, 10, "car_offer", ""); err != nil {
		t.Fatalf("SaveSentOffer failed: %v", err)
	}

	stats, err := store.GetRegionStats(ctx)
	if err != nil {
		t.Fatalf("GetRegionStats failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 region rows, got %d", len(stats))
	}
	if stats[0].Region != "Moscow" || stats[0].UserCount != 2 {
		t.Errorf("expected Moscow with 2 users first, got %+v", stats[0])
	}

	daily, err := store.GetOfferDailyStats(ctx, 7)
	if err != nil {
		t.Fatalf("GetOfferDailyStats failed: %v", err)
	}
	if len(daily) != 1 || daily[0].Count != 1 {
		t.Errorf("expected one day with one offer, got %+v", daily)
	}
}
