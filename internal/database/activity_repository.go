package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/sirupsen/logrus"
)

// ActivityRepository maneja el registro de auditoría. Sólo inserta y lista.
type ActivityRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewActivityRepository crea una nueva instancia del repositorio
func NewActivityRepository(db *DB, logger *logrus.Logger) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserta una entrada de auditoría
func (r *ActivityRepository) Append(ctx context.Context, entry *models.ActivityEntry) error {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO activity_log (id, client_id, actor_id, action_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecWithTimeout(ctx, query,
		entry.ID, entry.ClientID, entry.ActorID, entry.ActionType, entry.Description, entry.CreatedAt,
	)
	if err != nil {
		entry.ID = uuid.Nil
		return fmt.Errorf("error appending activity entry: %w", err)
	}
	return nil
}

// ListByClient lista la auditoría de un cliente, lo más reciente primero
func (r *ActivityRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.ActivityEntry, error) {
	query := `
		SELECT id, client_id, actor_id, action_type, description, created_at
		FROM activity_log
		WHERE client_id = $1
		ORDER BY created_at DESC
	`

	rows, cancel, err := r.db.QueryWithTimeout(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("error querying activity: %w", err)
	}
	defer cancel()
	defer rows.Close()

	entries := []models.ActivityEntry{}
	for rows.Next() {
		var e models.ActivityEntry
		if err := rows.Scan(&e.ID, &e.ClientID, &e.ActorID, &e.ActionType, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning activity entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}

	return entries, nil
}
