package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/utils"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	minioNoSuchKey       = "NoSuchKey"
	minioCallThresholdMs = 2000
)

type minioObjectAPI interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	RemoveObjects(ctx context.Context, bucketName string, objectsCh <-chan minio.ObjectInfo, opts minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError
}

func NewMinioImageStorage(creds view.MinioStorageCreds, folder string) (ImageStorageService, error) {
	if creds.Endpoint == "" || creds.BucketName == "" {
		return nil, fmt.Errorf("minio endpoint and bucket name are required")
	}
	client, err := minio.New(creds.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKeyId, creds.SecretAccessKey, ""),
		Secure: creds.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	log.Infof("MinIO image storage configured for bucket %s at %s", creds.BucketName, creds.Endpoint)
	return &minioImageStorageImpl{api: client, bucket: creds.BucketName, folder: folder}, nil
}

type minioImageStorageImpl struct {
	api    minioObjectAPI
	bucket string
	folder string
}

func (m *minioImageStorageImpl) ObjectId(image string) string {
	return minioObjectKey(image, m.bucket, m.folder)
}

func (m *minioImageStorageImpl) MaxBatchSize() int {
	return imageBatchLimit
}

// S3 deletes are idempotent, so existence is checked first to report missing objects as not_found.
func (m *minioImageStorageImpl) exists(ctx context.Context, key string) (bool, error) {
	_, err := m.api.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if minio.ToErrorResponse(err).Code == minioNoSuchKey {
		return false, nil
	}
	return false, errors.Wrapf(err, "failed to stat object %s", key)
}

func (m *minioImageStorageImpl) DeleteImage(ctx context.Context, id string) (view.ImageDeleteStatus, error) {
	start := time.Now()
	defer func() {
		utils.PerfLog(time.Since(start).Milliseconds(), minioCallThresholdMs, "minio remove "+id)
	}()

	found, err := m.exists(ctx, id)
	if err != nil {
		return view.ImageError, err
	}
	if !found {
		return view.ImageNotFound, nil
	}
	if err := m.api.RemoveObject(ctx, m.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return view.ImageError, errors.Wrapf(err, "failed to remove object %s", id)
	}
	return view.ImageDeleted, nil
}

func (m *minioImageStorageImpl) DeleteImages(ctx context.Context, ids []string) (map[string]view.ImageDeleteStatus, error) {
	if len(ids) > imageBatchLimit {
		return nil, fmt.Errorf("minio bulk delete accepts at most %d ids, got %d", imageBatchLimit, len(ids))
	}
	start := time.Now()
	defer func() {
		utils.PerfLog(time.Since(start).Milliseconds(), minioCallThresholdMs, fmt.Sprintf("minio bulk remove of %d images", len(ids)))
	}()

	statuses := make(map[string]view.ImageDeleteStatus, len(ids))
	var existing []string
	for _, id := range ids {
		found, err := m.exists(ctx, id)
		if err != nil {
			log.Debugf("Failed to check object %s before removal: %v", id, err)
			statuses[id] = view.ImageError
			continue
		}
		if !found {
			statuses[id] = view.ImageNotFound
			continue
		}
		existing = append(existing, id)
	}
	if len(existing) == 0 {
		return statuses, nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(existing))
	for _, key := range existing {
		objectsCh <- minio.ObjectInfo{Key: key}
		statuses[key] = view.ImageDeleted
	}
	close(objectsCh)

	for removeErr := range m.api.RemoveObjects(ctx, m.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		log.Debugf("Failed to remove object %s: %v", removeErr.ObjectName, removeErr.Err)
		statuses[removeErr.ObjectName] = view.ImageError
	}
	return statuses, nil
}
