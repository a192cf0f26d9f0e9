package models

import (
	"time"

	"github.com/google/uuid"
)

// FileCategoryDocument es la categoría con la que se listan los PDF de facturas
const FileCategoryDocument = "document"

// FileRecord representa la entrada del listado general de archivos de un cliente.
// Comparte la ruta de almacenamiento con la factura, sin clave foránea.
type FileRecord struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ClientID    uuid.UUID `json:"client_id" db:"client_id"`
	Name        string    `json:"name" db:"name"`
	MimeType    string    `json:"mime_type" db:"mime_type"`
	SizeBytes   int64     `json:"size_bytes" db:"size_bytes"`
	StoragePath string    `json:"storage_path" db:"storage_path"`
	Category    string    `json:"category" db:"category"`
	UploadedBy  uuid.UUID `json:"uploaded_by" db:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RenderedDocument representa el PDF generado de una factura
type RenderedDocument struct {
	Bytes       []byte
	ContentType string
	FileName    string
	PageCount   int
	Warnings    []string
}
