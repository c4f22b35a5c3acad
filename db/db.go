// Package db provides the Postgres connection, schema migration, and the
// transcript query that feeds chat stored by the VOD archiver into an analysis session.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'

	"github.com/onnwee/vod-moments/backend/chat"
	"github.com/onnwee/vod-moments/backend/timecode"
)

// ErrNoMessages is returned when a VOD has no stored chat.
var ErrNoMessages = errors.New("no chat messages for vod")

// Connect opens a Postgres connection for dsn.
func Connect(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("db: empty DSN")
	}
	return sql.Open("pgx", dsn)
}

// Migrate applies idempotent schema changes for the tables the transcript
// query reads. The layout matches the archiver's vods/chat_messages tables so
// both can share one database.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS vods (
			id SERIAL PRIMARY KEY,
			twitch_vod_id TEXT UNIQUE,
			title TEXT,
			date TIMESTAMPTZ,
			duration_seconds INTEGER,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id SERIAL PRIMARY KEY,
			vod_id TEXT NOT NULL REFERENCES vods(twitch_vod_id),
			username TEXT,
			message TEXT,
			abs_timestamp TIMESTAMPTZ,
			rel_timestamp DOUBLE PRECISION,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_vods_twitch_vod_id ON vods(twitch_vod_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chat_vod_rel ON chat_messages(vod_id, rel_timestamp)`,
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("postgres migrate step %d failed: %w", i, err)
		}
	}
	return nil
}

// LoadTranscript reads the chat of one VOD ordered by playback offset.
// rel_timestamp (seconds from VOD start) becomes an HH:MM:SS timecode.
func LoadTranscript(ctx context.Context, db *sql.DB, vodID string) (*chat.Transcript, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT username, message, rel_timestamp FROM chat_messages
		 WHERE vod_id = $1 ORDER BY rel_timestamp, id`, vodID)
	if err != nil {
		return nil, fmt.Errorf("query chat for %s: %w", vodID, err)
	}
	defer func() { _ = rows.Close() }()

	var events []chat.Event
	for rows.Next() {
		var user, msg sql.NullString
		var rel sql.NullFloat64
		if err := rows.Scan(&user, &msg, &rel); err != nil {
			return nil, fmt.Errorf("scan chat row: %w", err)
		}
		events = append(events, chat.Event{
			Timecode: relTimecode(rel.Float64),
			Sender:   user.String,
			Message:  msg.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read chat for %s: %w", vodID, err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w %s", ErrNoMessages, vodID)
	}
	return chat.NewTranscript(events), nil
}

// InsertMessages stores events for vodID, creating the vods row if needed.
// Timecodes are stored as rel_timestamp seconds.
func InsertMessages(ctx context.Context, db *sql.DB, vodID string, events []chat.Event) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO vods(twitch_vod_id) VALUES($1) ON CONFLICT (twitch_vod_id) DO NOTHING`, vodID); err != nil {
		return fmt.Errorf("insert vod %s: %w", vodID, err)
	}
	for _, e := range events {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages(vod_id, username, message, rel_timestamp) VALUES($1,$2,$3,$4)`,
			vodID, e.Sender, e.Message, float64(timecode.Parse(e.Timecode))); err != nil {
			return fmt.Errorf("insert chat message: %w", err)
		}
	}
	return tx.Commit()
}

// VOD is the metadata row for a stored transcript.
type VOD struct {
	ID              string
	Title           string
	Date            time.Time
	DurationSeconds int
}

// UpsertVOD creates or updates the vods row for v.ID. Empty fields leave
// existing values alone.
func UpsertVOD(ctx context.Context, db *sql.DB, v VOD) error {
	if v.ID == "" {
		return fmt.Errorf("upsert vod: empty id")
	}
	var date sql.NullTime
	if !v.Date.IsZero() {
		date = sql.NullTime{Time: v.Date, Valid: true}
	}
	var dur sql.NullInt64
	if v.DurationSeconds > 0 {
		dur = sql.NullInt64{Int64: int64(v.DurationSeconds), Valid: true}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO vods(twitch_vod_id, title, date, duration_seconds) VALUES($1, NULLIF($2, ''), $3, $4)
		 ON CONFLICT (twitch_vod_id) DO UPDATE SET
			title = COALESCE(EXCLUDED.title, vods.title),
			date = COALESCE(EXCLUDED.date, vods.date),
			duration_seconds = COALESCE(EXCLUDED.duration_seconds, vods.duration_seconds)`,
		v.ID, v.Title, date, dur)
	if err != nil {
		return fmt.Errorf("upsert vod %s: %w", v.ID, err)
	}
	return nil
}

func relTimecode(rel float64) string {
	if math.IsNaN(rel) || rel < 0 {
		rel = 0
	}
	return timecode.Format(int(math.Floor(rel)))
}
