package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MessageEntry is one row of the append-only message history ledger: a
// dispatched report body keyed by its content fingerprint. Rows are only ever
// inserted; the ledger is the sole dedup oracle.
type MessageEntry struct {
	Source          string
	Hash            string
	Body            string
	Title           string
	TitleTranslated string
	BodyTranslated  string
	MessageGroup    string
	TGMessageID     int64
}

// HasMessage reports whether a body with this fingerprint was ever
// dispatched for the source. There is no time bound: once seen, a
// fingerprint is permanently considered published.
func (db *DB) HasMessage(ctx context.Context, source, hash string) (bool, error) {
	var exists bool

	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM messages WHERE source = $1 AND hash = $2)`,
		source, hash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check message hash: %w", err)
	}

	return exists, nil
}

// InsertMessage appends a ledger row for a dispatched notification.
func (db *DB) InsertMessage(ctx context.Context, entry MessageEntry) error {
	if _, err := db.Pool.Exec(ctx,
		`INSERT INTO messages (id, source, hash, body, title, title_translated, body_translated, message_group, tg_message_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.NewString(),
		entry.Source,
		entry.Hash,
		entry.Body,
		nullText(entry.Title),
		nullText(entry.TitleTranslated),
		nullText(entry.BodyTranslated),
		nullText(entry.MessageGroup),
		entry.TGMessageID,
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return nil
}

// LatestGroupMessage returns the most recent ledger row for the given
// message group, or nil when the group has no rows yet.
func (db *DB) LatestGroupMessage(ctx context.Context, source, group string) (*MessageEntry, error) {
	entry := MessageEntry{Source: source, MessageGroup: group}

	err := db.Pool.QueryRow(ctx,
		`SELECT hash, body, tg_message_id FROM messages
		 WHERE source = $1 AND message_group = $2
		 ORDER BY create_time DESC
		 LIMIT 1`,
		source, group,
	).Scan(&entry.Hash, &entry.Body, &entry.TGMessageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("latest group message: %w", err)
	}

	return &entry, nil
}

// nullText maps the empty string to SQL NULL.
func nullText(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
