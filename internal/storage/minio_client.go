package storage

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"unisocial/internal/config"
)

const avatarPrefix = "avatars/"

type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(ctx context.Context, cfg config.MinIO) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания клиента MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки бакета MinIO: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region})
		if err != nil {
			return nil, fmt.Errorf("ошибка создания бакета MinIO: %w", err)
		}
		log.Info().Str("bucket", cfg.BucketName).Msg("Создан бакет MinIO")
	}

	return &MinIOClient{client: client, bucket: cfg.BucketName}, nil
}

func objectName(name string) string {
	return avatarPrefix + name
}

// detectContentType trusts the declared type and sniffs the bytes otherwise.
func detectContentType(data []byte, declared string) string {
	if declared != "" {
		return declared
	}
	return mimetype.Detect(data).String()
}

func (m *MinIOClient) SaveAvatar(ctx context.Context, name string, data []byte, contentType string) error {
	if err := validName(name); err != nil {
		return err
	}

	_, err := m.client.PutObject(ctx, m.bucket, objectName(name), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType: detectContentType(data, contentType),
			UserMetadata: map[string]string{
				"uploaded-at": time.Now().UTC().Format(time.RFC3339),
			},
		})
	if err != nil {
		return fmt.Errorf("ошибка загрузки в MinIO: %w", err)
	}
	return nil
}

func (m *MinIOClient) DeleteAvatar(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}

	err := m.client.RemoveObject(ctx, m.bucket, objectName(name), minio.RemoveObjectOptions{GovernanceBypass: true})
	if err != nil {
		return fmt.Errorf("ошибка удаления из MinIO: %w", err)
	}
	return nil
}
