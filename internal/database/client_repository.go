package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/sirupsen/logrus"
)

// ClientRepository lee los datos de facturación de los clientes
type ClientRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewClientRepository crea una nueva instancia del repositorio
func NewClientRepository(db *DB, logger *logrus.Logger) *ClientRepository {
	return &ClientRepository{
		db:     db,
		logger: logger,
	}
}

// GetClientProfile obtiene un cliente por ID
func (r *ClientRepository) GetClientProfile(ctx context.Context, id uuid.UUID) (*models.ClientProfile, error) {
	query := `
		SELECT id, legal_name, attention, street, postal_code, city, country,
		       customer_reference, vat_number, contact_name, contact_email, created_at
		FROM clients
		WHERE id = $1
	`

	var c models.ClientProfile
	err := r.db.QueryRowWithTimeout(ctx, query, []interface{}{id},
		&c.ID, &c.LegalName, &c.Attention, &c.Street, &c.PostalCode, &c.City, &c.Country,
		&c.CustomerReference, &c.VATNumber, &c.ContactName, &c.ContactEmail, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("client %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("error querying client: %w", err)
	}

	return &c, nil
}
