package database

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hypernova-labs/agency-invoicing/internal/config"
	"github.com/sirupsen/logrus"
	storage_go "github.com/supabase-community/storage-go"
)

// RESTStorage usa la API REST de Supabase Storage con la service key,
// para despliegues sin credenciales S3.
type RESTStorage struct {
	client  *storage_go.Client
	baseURL string
	bucket  string
	logger  *logrus.Logger
}

// NewRESTStorage crea una nueva instancia del almacenamiento REST
func NewRESTStorage(cfg *config.SupabaseConfig, logger *logrus.Logger) *RESTStorage {
	baseURL := strings.TrimRight(cfg.URL, "/") + "/storage/v1"
	return &RESTStorage{
		client:  storage_go.NewClient(baseURL, cfg.ServiceKey, nil),
		baseURL: baseURL,
		bucket:  cfg.Bucket,
		logger:  logger,
	}
}

// Put sube un objeto, sobrescribiendo si ya existe.
// El cliente REST no acepta contexto; la cancelación no se propaga.
func (s *RESTStorage) Put(_ context.Context, path string, data []byte, contentType string) error {
	upsert := true
	_, err := s.client.UploadFile(s.bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("error uploading file to Supabase storage: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"bucket": s.bucket,
		"path":   path,
		"size":   len(data),
	}).Info("File uploaded to Supabase storage successfully")

	return nil
}

// Get descarga un objeto
func (s *RESTStorage) Get(_ context.Context, path string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, path)
	if err != nil {
		return nil, fmt.Errorf("error downloading file from Supabase storage: %w", err)
	}
	return data, nil
}

// SignedURL emite una URL firmada; la API REST trabaja en segundos
func (s *RESTStorage) SignedURL(_ context.Context, path string, ttl time.Duration) (string, error) {
	resp, err := s.client.CreateSignedUrl(s.bucket, path, int(ttl.Seconds()))
	if err != nil {
		return "", fmt.Errorf("error signing file URL: %w", err)
	}
	url := resp.SignedURL
	if strings.HasPrefix(url, "/") {
		url = s.baseURL + url
	}
	return url, nil
}

// PublicURL retorna la URL pública del objeto
func (s *RESTStorage) PublicURL(path string) string {
	return s.client.GetPublicUrl(s.bucket, path).SignedURL
}

// Delete elimina varios objetos
func (s *RESTStorage) Delete(_ context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
		return fmt.Errorf("error deleting files from Supabase storage: %w", err)
	}
	return nil
}
