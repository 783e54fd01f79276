package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite { return &SettingsSQLite{db: db} }

var _ SettingsRepo = (*SettingsSQLite)(nil)

const (
	selectSettingSQL = `SELECT value FROM settings WHERE name = ?`
	upsertSettingSQL = `
		INSERT INTO settings (name, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
)

// Get returns the stored value and whether it exists.
func (r *SettingsSQLite) Get(ctx context.Context, name string) (string, bool, error) {
	var v string
	err := r.db.QueryRowContext(ctx, selectSettingSQL, name).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select setting %q: %w", name, err)
	}
	return v, true, nil
}

// Set inserts or overwrites a value.
func (r *SettingsSQLite) Set(ctx context.Context, name, value string) error {
	if _, err := r.db.ExecContext(ctx, upsertSettingSQL, name, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert setting %q: %w", name, err)
	}
	return nil
}

// Delete removes the named settings; missing names are ignored.
func (r *SettingsSQLite) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	q := `DELETE FROM settings WHERE name IN (` + placeholders + `)`
	if _, err := r.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("delete settings %v: %w", names, err)
	}
	return nil
}
