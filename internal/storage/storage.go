package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/blacx/annotator/internal/config"
)

// Storage holds frame thumbnails referenced by event records and exported
// annotation artifacts.
type Storage struct {
	client     *minio.Client
	bucketName string
}

// New creates a new storage client
func New(cfg config.StorageConfig) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	// Ensure bucket exists
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{
		client:     client,
		bucketName: cfg.BucketName,
	}, nil
}

// UploadThumbnail stores one sampled frame image and returns a presigned URL
// for the event record's eventImageURL field.
func (s *Storage) UploadThumbnail(ctx context.Context, recordID string, frameNumber int, imageBytes []byte) (string, error) {
	objectName := fmt.Sprintf("thumbnails/%s/frame_%06d.jpg", recordID, frameNumber)

	_, err := s.client.PutObject(ctx, s.bucketName, objectName,
		bytes.NewReader(imageBytes), int64(len(imageBytes)),
		minio.PutObjectOptions{ContentType: "image/jpeg"})
	if err != nil {
		return "", fmt.Errorf("failed to upload thumbnail: %w", err)
	}

	return s.PresignedURL(ctx, objectName, 7*24*time.Hour)
}

// UploadExport stores an exported artifact and returns its object name.
func (s *Storage) UploadExport(ctx context.Context, recordID, format string, data []byte) (string, error) {
	objectName := fmt.Sprintf("exports/%s/%s.%s", recordID, recordID, exportExtension(format))

	_, err := s.client.PutObject(ctx, s.bucketName, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: exportContentType(format)})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %w", err)
	}

	return objectName, nil
}

// PresignedURL generates a time-limited GET URL for an object.
func (s *Storage) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucketName, objectName, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

// Delete removes an object from storage.
func (s *Storage) Delete(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func exportExtension(format string) string {
	switch format {
	case "tabular-csv":
		return "csv"
	case "tabular-excel":
		return "xlsx"
	default:
		return "json"
	}
}

func exportContentType(format string) string {
	switch format {
	case "tabular-csv":
		return "text/csv"
	case "tabular-excel":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}
