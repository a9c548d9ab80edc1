package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EmergencyRecord is a tracked unplanned outage with an open/closed lifecycle.
// FinishedTime is nil while the outage is believed ongoing. StartedMsgID and
// FinishedMsgID (0 = unset) record the notification that first included the
// record in the corresponding phase.
type EmergencyRecord struct {
	ID            string
	StartedTime   time.Time
	FinishedTime  *time.Time
	Title         string
	StartedMsgID  int64
	FinishedMsgID int64
}

// ObservedEmergency is one row of the source's current emergency table.
type ObservedEmergency struct {
	StartedTime time.Time
	Title       string
}

// NotifyPhase selects which notification id MarkEmergencyNotified sets.
type NotifyPhase string

const (
	PhaseStarted  NotifyPhase = "started"
	PhaseFinished NotifyPhase = "finished"
)

// ReconcileEmergencies runs one atomic reconciliation unit: every open record
// of the source is closed at the database clock, then every observed
// (started_time, title) pair is reopened, created when absent. Records
// present in this pass stay open; records absent stay closed from the reset.
// Safe to re-run from scratch on retry.
func (db *DB) ReconcileEmergencies(ctx context.Context, source string, observed []ObservedEmergency) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reconciliation: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx,
		`UPDATE emergencies SET finished_time = now() WHERE source = $1 AND finished_time IS NULL`,
		source,
	); err != nil {
		return fmt.Errorf("close open emergencies: %w", err)
	}

	for _, o := range observed {
		tag, err := tx.Exec(ctx,
			`UPDATE emergencies SET finished_time = NULL
			 WHERE source = $1 AND started_time = $2 AND title = $3`,
			source, o.StartedTime, o.Title,
		)
		if err != nil {
			return fmt.Errorf("reopen emergency %q: %w", o.Title, err)
		}

		if tag.RowsAffected() > 0 {
			continue
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO emergencies (id, source, started_time, title) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), source, o.StartedTime, o.Title,
		); err != nil {
			return fmt.Errorf("insert emergency %q: %w", o.Title, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reconciliation: %w", err)
	}

	return nil
}

// ListEmergencies returns open and finished emergency records of the source
// that started at or after since, ordered by (started_time, title).
func (db *DB) ListEmergencies(ctx context.Context, source string, since time.Time) ([]EmergencyRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, started_time, finished_time, title,
		        COALESCE(started_msg_id, 0), COALESCE(finished_msg_id, 0)
		 FROM emergencies
		 WHERE source = $1 AND started_time >= $2
		 ORDER BY started_time, title`,
		source, since,
	)
	if err != nil {
		return nil, fmt.Errorf("list emergencies: %w", err)
	}
	defer rows.Close()

	var records []EmergencyRecord

	for rows.Next() {
		var r EmergencyRecord
		if err := rows.Scan(&r.ID, &r.StartedTime, &r.FinishedTime, &r.Title, &r.StartedMsgID, &r.FinishedMsgID); err != nil {
			return nil, fmt.Errorf("scan emergency: %w", err)
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list emergencies: %w", err)
	}

	return records, nil
}

// MarkEmergencyNotified sets the phase's message id only if currently unset,
// so the first dispatched notification wins and repeats are no-ops.
func (db *DB) MarkEmergencyNotified(ctx context.Context, id string, msgID int64, phase NotifyPhase) error {
	query := `UPDATE emergencies SET started_msg_id = $2 WHERE id = $1 AND started_msg_id IS NULL`
	if phase == PhaseFinished {
		query = `UPDATE emergencies SET finished_msg_id = $2 WHERE id = $1 AND finished_msg_id IS NULL`
	}

	if _, err := db.Pool.Exec(ctx, query, id, msgID); err != nil {
		return fmt.Errorf("mark emergency notified (%s): %w", phase, err)
	}

	return nil
}
