package services

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageService stores document bytes in object storage.
type StorageService interface {
	UploadDocument(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
	DeleteDocument(ctx context.Context, objectKey string) error
	EnsureBucketExists(ctx context.Context) error
}

type minioStorage struct {
	client *minio.Client
	bucket string
}

func NewMinioStorageService(endpoint, accessKey, secretKey string, useSSL bool, bucket string) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioStorage{client: client, bucket: bucket}, nil
}

func (m *minioStorage) UploadDocument(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (m *minioStorage) PresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, objectKey, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioStorage) DeleteDocument(ctx context.Context, objectKey string) error {
	return m.client.RemoveObject(ctx, m.bucket, objectKey, minio.RemoveObjectOptions{})
}

func (m *minioStorage) EnsureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
