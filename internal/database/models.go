package database

import (
	"database/sql"
	"time"
)

// Message kind tags distinguishing how an inbound event arrived.
const (
	MessageKindCommand  = "command"
	MessageKindCallback = "callback"
	MessageKindText     = "text"
)

// User represents a Telegram user known to the bot. A row is upserted on
// every inbound event from that user and is never deleted.
type User struct {
	UserID        int64          `db:"user_id"`
	Username      string         `db:"username"`
	FirstName     string         `db:"first_name"`
	LastName      string         `db:"last_name"`
	Region        sql.NullString `db:"region"`
	InterestLevel int            `db:"interest_level"`
	LastContact   sql.NullTime   `db:"last_contact"`
	CreatedAt     time.Time      `db:"created_at"`
}

// Message is one entry of the append-only inbound message log.
type Message struct {
	ID        uint      `db:"id"`
	UserID    int64     `db:"user_id"`
	Content   string    `db:"content"`
	Kind      string    `db:"kind"`
	Timestamp time.Time `db:"timestamp"`
}

// Interest is one entry of the append-only interest log, written whenever
// the controller classifies an event as interest-bearing.
type Interest struct {
	ID        uint      `db:"id"`
	UserID    int64     `db:"user_id"`
	Kind      string    `db:"kind"`
	Details   string    `db:"details"`
	Timestamp time.Time `db:"timestamp"`
}

// SentOffer records a commercial offer delivered to a user. Its existence is
// the sole gate preventing duplicate offer sends.
type SentOffer struct {
	ID               uint         `db:"id"`
	UserID           int64        `db:"user_id"`
	OfferType        string       `db:"offer_type"`
	FilePath         string       `db:"file_path"`
	Status           string       `db:"status"`
	OpenedAt         sql.NullTime `db:"opened_at"`
	ResponseReceived bool         `db:"response_received"`
	SentAt           time.Time    `db:"sent_at"`
}

// RegionAnalysis caches the latest AI market analysis for a region,
// keyed by region name. Re-analysis overwrites the row; no history is kept.
type RegionAnalysis struct {
	Region           string    `db:"region"`
	Channels         string    `db:"channels"`
	ChatGroups       string    `db:"chat_groups"`
	PotentialClients int       `db:"potential_clients"`
	Analysis         string    `db:"analysis"`
	UpdatedAt        time.Time `db:"updated_at"`
}

// RegionStat is one row of the per-region user count aggregation used by exports.
type RegionStat struct {
	Region    string `db:"region"`
	UserCount int    `db:"user_count"`
}

// OfferDailyStat is one row of the offers-per-day aggregation used by exports.
type OfferDailyStat struct {
	Day   string `db:"day"`
	Count int    `db:"count"`
}
