package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"stable_dashboard/internal/models"
)

type AlertSQLite struct {
	db *sql.DB
}

func NewAlertSQLite(db *sql.DB) *AlertSQLite {
	return &AlertSQLite{db: db}
}

var _ AlertRepo = (*AlertSQLite)(nil)

const (
	alertColumns = `id, entity_id, name, condition, threshold, enabled, created_at, updated_at`

	selectAlertsSQL        = `SELECT ` + alertColumns + ` FROM alerts ORDER BY created_at ASC, id ASC`
	selectEnabledAlertsSQL = `SELECT ` + alertColumns + ` FROM alerts WHERE enabled = 1 ORDER BY created_at ASC, id ASC`
	selectAlertByIDSQL     = `SELECT ` + alertColumns + ` FROM alerts WHERE id = ?`

	insertAlertSQL = `
		INSERT INTO alerts (id, entity_id, name, condition, threshold, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	updateAlertSQL = `
		UPDATE alerts SET entity_id = ?, name = ?, condition = ?, threshold = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`
	deleteAlertSQL = `DELETE FROM alerts WHERE id = ?`
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(s rowScanner) (models.AlertRule, error) {
	var (
		r         models.AlertRule
		condition string
	)
	if err := s.Scan(&r.ID, &r.EntityID, &r.Name, &condition, &r.Threshold, &r.Enabled, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return models.AlertRule{}, err
	}
	r.Condition = models.AlertCondition(condition)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func (r *AlertSQLite) query(ctx context.Context, q string) ([]models.AlertRule, error) {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	out := make([]models.AlertRule, 0, 16)
	for rows.Next() {
		rule, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return out, nil
}

// List returns every rule in creation order.
func (r *AlertSQLite) List(ctx context.Context) ([]models.AlertRule, error) {
	return r.query(ctx, selectAlertsSQL)
}

// ListEnabled returns the enabled rules in creation order.
func (r *AlertSQLite) ListEnabled(ctx context.Context) ([]models.AlertRule, error) {
	return r.query(ctx, selectEnabledAlertsSQL)
}

// Get fetches one rule; ErrNotFound when absent.
func (r *AlertSQLite) Get(ctx context.Context, id string) (models.AlertRule, error) {
	rule, err := scanAlert(r.db.QueryRowContext(ctx, selectAlertByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.AlertRule{}, ErrNotFound
		}
		return models.AlertRule{}, fmt.Errorf("select alert %q: %w", id, err)
	}
	return rule, nil
}

// Create inserts a rule. ID and timestamps must already be set by the caller,
// except zero timestamps which default to now.
func (r *AlertSQLite) Create(ctx context.Context, rule models.AlertRule) error {
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	if rule.UpdatedAt.IsZero() {
		rule.UpdatedAt = rule.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, insertAlertSQL,
		rule.ID,
		rule.EntityID,
		rule.Name,
		string(rule.Condition),
		rule.Threshold,
		rule.Enabled,
		rule.CreatedAt.UTC(),
		rule.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert alert %q: %w", rule.ID, err)
	}
	return nil
}

// Update replaces the mutable fields of a rule; ErrNotFound when absent.
func (r *AlertSQLite) Update(ctx context.Context, rule models.AlertRule) error {
	updated := rule.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}
	res, err := r.db.ExecContext(ctx, updateAlertSQL,
		rule.EntityID,
		rule.Name,
		string(rule.Condition),
		rule.Threshold,
		rule.Enabled,
		updated.UTC(),
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("update alert %q: %w", rule.ID, err)
	}
	return requireAffected(res, rule.ID)
}

// Delete removes a rule; ErrNotFound when absent. History rows are kept.
func (r *AlertSQLite) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteAlertSQL, id)
	if err != nil {
		return fmt.Errorf("delete alert %q: %w", id, err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %q: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
