package repository

import (
	"context"
	"database/sql"
	"errors"

	"stable_dashboard/internal/models"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("not found")

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// AlertRepo persists alert rules.
type AlertRepo interface {
	List(ctx context.Context) ([]models.AlertRule, error)
	ListEnabled(ctx context.Context) ([]models.AlertRule, error)
	Get(ctx context.Context, id string) (models.AlertRule, error)
	Create(ctx context.Context, r models.AlertRule) error
	Update(ctx context.Context, r models.AlertRule) error
	Delete(ctx context.Context, id string) error
}

// HistoryRepo is the append-only alert trigger log.
type HistoryRepo interface {
	AppendBatch(ctx context.Context, records []models.AlertHistoryRecord) error
	List(ctx context.Context, limit int) ([]models.AlertHistoryRecord, error)
}

// SettingsRepo is a small key/value store for runtime configuration.
type SettingsRepo interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, names ...string) error
}

type Repository struct {
	Alerts   AlertRepo
	History  HistoryRepo
	Settings SettingsRepo
	Auth     Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Alerts:   NewAlertSQLite(db),
		History:  NewHistorySQLite(db),
		Settings: NewSettingsSQLite(db),
		Auth:     NewUserRepository(db),
	}
}
