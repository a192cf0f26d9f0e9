package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hypernova-labs/agency-invoicing/internal/models"
	"github.com/sirupsen/logrus"
)

// FileRepository maneja el listado de archivos de los clientes
type FileRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewFileRepository crea una nueva instancia del repositorio
func NewFileRepository(db *DB, logger *logrus.Logger) *FileRepository {
	return &FileRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserta un archivo y le asigna su identificador
func (r *FileRepository) Create(ctx context.Context, file *models.FileRecord) error {
	file.ID = uuid.New()
	file.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO files (
			id, client_id, name, mime_type, size_bytes, storage_path, category, uploaded_by, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`

	_, err := r.db.ExecWithTimeout(ctx, query,
		file.ID, file.ClientID, file.Name, file.MimeType, file.SizeBytes,
		file.StoragePath, file.Category, file.UploadedBy, file.CreatedAt,
	)
	if err != nil {
		file.ID = uuid.Nil
		return fmt.Errorf("error creating file record: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"file_id":   file.ID,
		"client_id": file.ClientID,
		"path":      file.StoragePath,
	}).Info("File record created successfully")

	return nil
}

// ListByClient lista los archivos de un cliente
func (r *FileRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.FileRecord, error) {
	query := `
		SELECT id, client_id, name, mime_type, size_bytes, storage_path, category, uploaded_by, created_at
		FROM files
		WHERE client_id = $1
		ORDER BY created_at DESC
	`

	rows, cancel, err := r.db.QueryWithTimeout(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("error querying files: %w", err)
	}
	defer cancel()
	defer rows.Close()

	files := []models.FileRecord{}
	for rows.Next() {
		var f models.FileRecord
		if err := rows.Scan(
			&f.ID, &f.ClientID, &f.Name, &f.MimeType, &f.SizeBytes,
			&f.StoragePath, &f.Category, &f.UploadedBy, &f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning file record: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return files, nil
}

// Delete elimina una entrada del listado; no toca el objeto almacenado
func (r *FileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecWithTimeout(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting file record: %w", err)
	}
	return expectOneRow(result, "file", id)
}
