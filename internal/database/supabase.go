package database

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hypernova-labs/agency-invoicing/internal/config"
	"github.com/sirupsen/logrus"
)

// SupabaseStorage guarda los documentos en Supabase Storage mediante su API compatible con S3
type SupabaseStorage struct {
	s3Client  *s3.Client
	presigner *s3.PresignClient
	publicURL string
	bucket    string
	logger    *logrus.Logger
}

// NewSupabaseStorage crea una nueva instancia del almacenamiento
func NewSupabaseStorage(ctx context.Context, cfg *config.SupabaseConfig, logger *logrus.Logger) (*SupabaseStorage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
		awsconfig.WithRegion(cfg.StorageRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.StorageEndpoint)
		// Supabase sólo admite path-style
		o.UsePathStyle = true
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &SupabaseStorage{
		s3Client:  s3Client,
		presigner: s3.NewPresignClient(s3Client),
		publicURL: strings.TrimRight(cfg.URL, "/"),
		bucket:    cfg.Bucket,
		logger:    logger,
	}, nil
}

// HealthCheck verifica que el bucket existe
func (s *SupabaseStorage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("error checking Supabase storage connection: %w", err)
	}
	return nil
}

// Put sube un objeto, sobrescribiendo si ya existe
func (s *SupabaseStorage) Put(ctx context.Context, path string, data []byte, contentType string) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(path),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
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
func (s *SupabaseStorage) Get(ctx context.Context, path string) ([]byte, error) {
	result, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		return nil, fmt.Errorf("error downloading file from Supabase storage: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}
	return data, nil
}

// SignedURL emite una URL de descarga firmada que caduca tras ttl
func (s *SupabaseStorage) SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("error presigning file URL: %w", err)
	}
	return req.URL, nil
}

// PublicURL retorna la URL pública del objeto en un bucket público
func (s *SupabaseStorage) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.publicURL, s.bucket, path)
}

// Delete elimina varios objetos en una sola petición
func (s *SupabaseStorage) Delete(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	objects := make([]types.ObjectIdentifier, 0, len(paths))
	for _, p := range paths {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(p)})
	}

	out, err := s.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: objects},
	})
	if err != nil {
		return fmt.Errorf("error deleting files from Supabase storage: %w", err)
	}
	if len(out.Errors) > 0 {
		first := out.Errors[0]
		return fmt.Errorf("error deleting %s from Supabase storage: %s", aws.ToString(first.Key), aws.ToString(first.Message))
	}

	s.logger.WithFields(logrus.Fields{
		"bucket": s.bucket,
		"paths":  paths,
	}).Info("Files deleted from Supabase storage successfully")

	return nil
}
