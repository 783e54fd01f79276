package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stable_dashboard/internal/models"

	"github.com/google/uuid"
)

type HistorySQLite struct {
	db *sql.DB
}

func NewHistorySQLite(db *sql.DB) *HistorySQLite { return &HistorySQLite{db: db} }

var _ HistoryRepo = (*HistorySQLite)(nil)

const (
	insertHistorySQL = `
		INSERT INTO alert_history (id, alert_id, entity_id, state_value, triggered_at)
		VALUES (?, ?, ?, ?, ?)
	`
	selectHistorySQL = `
		SELECT h.id, h.alert_id, COALESCE(a.name, ''), h.entity_id, h.state_value, h.triggered_at
		FROM alert_history h LEFT JOIN alerts a ON a.id = h.alert_id
		ORDER BY h.triggered_at DESC, h.id ASC
		LIMIT ?
	`
)

// AppendBatch writes all records in one transaction: either every record of
// an evaluation pass is stored or none is.
func (r *HistorySQLite) AppendBatch(ctx context.Context, records []models.AlertHistoryRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, insertHistorySQL)
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		ts := rec.TriggeredAt
		if ts.IsZero() {
			ts = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.AlertID, rec.EntityID, rec.StateValue, ts.UTC()); err != nil {
			return fmt.Errorf("insert history for alert %q: %w", rec.AlertID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history transaction: %w", err)
	}
	return nil
}

// List returns the newest records first.
func (r *HistorySQLite) List(ctx context.Context, limit int) ([]models.AlertHistoryRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectHistorySQL, limit)
	if err != nil {
		return nil, fmt.Errorf("query alert history: %w", err)
	}
	defer rows.Close()

	out := make([]models.AlertHistoryRecord, 0, limit)
	for rows.Next() {
		var rec models.AlertHistoryRecord
		if err := rows.Scan(&rec.ID, &rec.AlertID, &rec.AlertName, &rec.EntityID, &rec.StateValue, &rec.TriggeredAt); err != nil {
			return nil, fmt.Errorf("scan alert history: %w", err)
		}
		rec.TriggeredAt = rec.TriggeredAt.UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert history: %w", err)
	}
	return out, nil
}
