package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the interface for database operations. Each method opens a
// connection-scoped unit of work, executes one statement set, and returns;
// no transaction spans multiple calls. Storage errors always surface to the
// caller; there are no retries inside the store.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// UpsertUser inserts or updates a user by primary key and touches last_contact.
	// Region and created_at are preserved on update.
	UpsertUser(ctx context.Context, userID int64, username, firstName, lastName string) error

	// GetUser retrieves a user by id. Returns nil, nil if not found.
	GetUser(ctx context.Context, userID int64) (*User, error)

	// SaveMessage appends one entry to the inbound message log.
	SaveMessage(ctx context.Context, userID int64, content, kind string) error

	// SaveInterest appends one entry to the interest log.
	SaveInterest(ctx context.Context, userID int64, kind, details string) error

	// SaveSentOffer records a delivered offer with default status "sent".
	SaveSentOffer(ctx context.Context, userID int64, offerType, filePath string) error

	// HasSentOffer reports whether at least one offer was ever sent to the user.
	HasSentOffer(ctx context.Context, userID int64) (bool, error)

	// SetUserRegion updates the user's region and touches last_contact.
	SetUserRegion(ctx context.Context, userID int64, region string) error

	// GetUserMessages returns the user's full message history, timestamp ascending.
	GetUserMessages(ctx context.Context, userID int64) ([]Message, error)

	// GetUserInterests returns the user's full interest history, timestamp ascending.
	GetUserInterests(ctx context.Context, userID int64) ([]Interest, error)

	// SaveRegionAnalysis upserts the cached analysis for a region, last write wins.
	SaveRegionAnalysis(ctx context.Context, analysis *RegionAnalysis) error

	// GetRegionAnalysis retrieves the cached analysis for a region.
	// Returns nil, nil if the region has never been analyzed.
	GetRegionAnalysis(ctx context.Context, region string) (*RegionAnalysis, error)

	// GetAllUsers returns every known user, oldest first.
	GetAllUsers(ctx context.Context) ([]User, error)

	// GetRegionStats returns per-region user counts, most populated first.
	GetRegionStats(ctx context.Context) ([]RegionStat, error)

	// GetOfferDailyStats returns offers-sent-per-day counts, newest first.
	GetOfferDailyStats(ctx context.Context, days int) ([]OfferDailyStat, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) UpsertUser(ctx context.Context, userID int64, username, firstName, lastName string) error {
	if userID == 0 {
		return fmt.Errorf("user_id cannot be zero")
	}

	now := time.Now().UTC()
	query := `
        INSERT INTO users (user_id, username, first_name, last_name, last_contact, created_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT (user_id) DO UPDATE SET
            username = excluded.username,
            first_name = excluded.first_name,
            last_name = excluded.last_name,
            last_contact = excluded.last_contact;
    `

	if _, err := s.db.ExecContext(ctx, query, userID, username, firstName, lastName, now, now); err != nil {
		s.logger.ErrorContext(ctx, "Error upserting user", "user_id", userID, "error", err)
		return fmt.Errorf("failed to upsert user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "User upserted", "user_id", userID)
	return nil
}

func (s *sqlxStore) GetUser(ctx context.Context, userID int64) (*User, error) {
	var user User
	query := `SELECT user_id, username, first_name, last_name, region, interest_level, last_contact, created_at
	          FROM users WHERE user_id = ?`

	err := s.db.GetContext(ctx, &user, query, userID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting user", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get user %d: %w", userID, err)
	}

	return &user, nil
}

func (s *sqlxStore) SaveMessage(ctx context.Context, userID int64, content, kind string) error {
	if userID == 0 {
		return fmt.Errorf("message must have a non-zero user_id")
	}
	if kind == "" {
		return fmt.Errorf("message must have a kind tag")
	}

	query := `INSERT INTO messages (user_id, content, kind, timestamp) VALUES (?, ?, ?, ?);`

	if _, err := s.db.ExecContext(ctx, query, userID, content, kind, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error saving message", "user_id", userID, "kind", kind, "error", err)
		return fmt.Errorf("failed to save message for user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Message saved", "user_id", userID, "kind", kind)
	return nil
}

func (s *sqlxStore) SaveInterest(ctx context.Context, userID int64, kind, details string) error {
	if userID == 0 {
		return fmt.Errorf("interest must have a non-zero user_id")
	}
	if kind == "" {
		return fmt.Errorf("interest must have a kind tag")
	}

	query := `INSERT INTO interests (user_id, kind, details, timestamp) VALUES (?, ?, ?, ?);`

	if _, err := s.db.ExecContext(ctx, query, userID, kind, details, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error saving interest", "user_id", userID, "kind", kind, "error", err)
		return fmt.Errorf("failed to save interest for user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Interest saved", "user_id", userID, "kind", kind)
	return nil
}

func (s *sqlxStore) SaveSentOffer(ctx context.Context, userID int64, offerType, filePath string) error {
	if userID == 0 {
		return fmt.Errorf("sent offer must have a non-zero user_id")
	}

	query := `INSERT INTO sent_offers (user_id, offer_type, file_path, sent_at) VALUES (?, ?, ?, ?);`

	if _, err := s.db.ExecContext(ctx, query, userID, offerType, filePath, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error recording sent offer", "user_id", userID, "error", err)
		return fmt.Errorf("failed to record sent offer for user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "Sent offer recorded", "user_id", userID, "offer_type", offerType)
	return nil
}

func (s *sqlxStore) HasSentOffer(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM sent_offers WHERE user_id = ?);`

	if err := s.db.GetContext(ctx, &exists, query, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error checking sent offers", "user_id", userID, "error", err)
		return false, fmt.Errorf("failed to check sent offers for user %d: %w", userID, err)
	}

	return exists, nil
}

func (s *sqlxStore) SetUserRegion(ctx context.Context, userID int64, region string) error {
	query := `UPDATE users SET region = ?, last_contact = ? WHERE user_id = ?;`

	if _, err := s.db.ExecContext(ctx, query, region, time.Now().UTC(), userID); err != nil {
		s.logger.ErrorContext(ctx, "Error setting user region", "user_id", userID, "region", region, "error", err)
		return fmt.Errorf("failed to set region for user %d: %w", userID, err)
	}

	s.logger.DebugContext(ctx, "User region updated", "user_id", userID, "region", region)
	return nil
}

func (s *sqlxStore) GetUserMessages(ctx context.Context, userID int64) ([]Message, error) {
	var messages []Message
	query := `SELECT id, user_id, content, kind, timestamp
	          FROM messages WHERE user_id = ?
	          ORDER BY timestamp ASC, id ASC;`

	if err := s.db.SelectContext(ctx, &messages, query, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error getting user messages", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get messages for user %d: %w", userID, err)
	}

	return messages, nil
}

func (s *sqlxStore) GetUserInterests(ctx context.Context, userID int64) ([]Interest, error) {
	var interests []Interest
	query := `SELECT id, user_id, kind, details, timestamp
	          FROM interests WHERE user_id = ?
	          ORDER BY timestamp ASC, id ASC;`

	if err := s.db.SelectContext(ctx, &interests, query, userID); err != nil {
		s.logger.ErrorContext(ctx, "Error getting user interests", "user_id", userID, "error", err)
		return nil, fmt.Errorf("failed to get interests for user %d: %w", userID, err)
	}

	return interests, nil
}

func (s *sqlxStore) SaveRegionAnalysis(ctx context.Context, analysis *RegionAnalysis) error {
	if analysis == nil {
		return fmt.Errorf("cannot save nil region analysis")
	}
	if analysis.Region == "" {
		return fmt.Errorf("region analysis must have a region name")
	}

	analysis.UpdatedAt = time.Now().UTC()
	query := `
        INSERT INTO region_analyses (region, channels, chat_groups, potential_clients, analysis, updated_at)
        VALUES (:region, :channels, :chat_groups, :potential_clients, :analysis, :updated_at)
        ON CONFLICT (region) DO UPDATE SET
            channels = excluded.channels,
            chat_groups = excluded.chat_groups,
            potential_clients = excluded.potential_clients,
            analysis = excluded.analysis,
            updated_at = excluded.updated_at;
    `

	if _, err := s.db.NamedExecContext(ctx, query, analysis); err != nil {
		s.logger.ErrorContext(ctx, "Error saving region analysis", "region", analysis.Region, "error", err)
		return fmt.Errorf("failed to save analysis for region %q: %w", analysis.Region, err)
	}

	s.logger.DebugContext(ctx, "Region analysis saved", "region", analysis.Region)
	return nil
}

func (s *sqlxStore) GetRegionAnalysis(ctx context.Context, region string) (*RegionAnalysis, error) {
	var analysis RegionAnalysis
	query := `SELECT region, channels, chat_groups, potential_clients, analysis, updated_at
	          FROM region_analyses WHERE region = ?;`

	err := s.db.GetContext(ctx, &analysis, query, region)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting region analysis", "region", region, "error", err)
		return nil, fmt.Errorf("failed to get analysis for region %q: %w", region, err)
	}

	return &analysis, nil
}

func (s *sqlxStore) GetAllUsers(ctx context.Context) ([]User, error) {
	var users []User
	query := `SELECT user_id, username, first_name, last_name, region, interest_level, last_contact, created_at
	          FROM users ORDER BY created_at ASC, user_id ASC;`

	if err := s.db.SelectContext(ctx, &users, query); err != nil {
		s.logger.ErrorContext(ctx, "Error getting all users", "error", err)
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}

	return users, nil
}

func (s *sqlxStore) GetRegionStats(ctx context.Context) ([]RegionStat, error) {
	var stats []RegionStat
	query := `SELECT region, COUNT(*) AS user_count
	          FROM users WHERE region IS NOT NULL
	          GROUP BY region ORDER BY user_count DESC;`

	if err := s.db.SelectContext(ctx, &stats, query); err != nil {
		s.logger.ErrorContext(ctx, "Error getting region stats", "error", err)
		return nil, fmt.Errorf("failed to get region stats: %w", err)
	}

	return stats, nil
}

func (s *sqlxStore) GetOfferDailyStats(ctx context.Context, days int) ([]OfferDailyStat, error) {
	if days <= 0 {
		days = 7
	}

	var stats []OfferDailyStat
	query := `SELECT DATE(sent_at) AS day, COUNT(*) AS count
	          FROM sent_offers
	          GROUP BY DATE(sent_at) ORDER BY DATE(sent_at) DESC
	          LIMIT ?;`

	if err := s.db.SelectContext(ctx, &stats, query, days); err != nil {
		s.logger.ErrorContext(ctx, "Error getting offer stats", "error", err)
		return nil, fmt.Errorf("failed to get offer stats: %w", err)
	}

	return stats, nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	return nil
}
