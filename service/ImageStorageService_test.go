package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Netcracker/qubership-marketplace-cleanup/config"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudinaryPublicId(t *testing.T) {
	tests := []struct {
		image    string
		expected string
	}{
		{"abc123", "posts/abc123"},
		{"posts/abc123", "posts/abc123"},
		{"/abc123", "posts/abc123"},
		{"https://res.cloudinary.com/demo/image/upload/v1712345678/posts/abc123.jpg", "posts/abc123"},
		{"https://res.cloudinary.com/demo/image/upload/posts/abc123.png", "posts/abc123"},
		{"https://res.cloudinary.com/demo/image/upload/v17/legacy.webp", "legacy"},
		{"https://res.cloudinary.com/demo/image/upload/w_200,h_100/v17/posts/a.jpg", "posts/a"},
		{"https://res.cloudinary.com/demo/image/upload/c_fill,w_300/q_auto/posts/a.jpg", "posts/a"},
		{"https://res.cloudinary.com/demo/image/upload/t_thumb/v3/posts/a.jpg", "posts/a"},
		{"https://res.cloudinary.com/demo/image/upload/my_photos/a.jpg", "my_photos/a"},
		{"https://res.cloudinary.com/demo/image/upload/w_200/a.jpg", "a"},
		{"", ""},
	}
	for _, test := range tests {
		assert.Equal(t, test.expected, cloudinaryPublicId(test.image, "posts"), test.image)
	}
	assert.Equal(t, "abc123", cloudinaryPublicId("abc123", ""))
}

func TestMinioObjectKey(t *testing.T) {
	assert.Equal(t, "posts/abc.jpg", minioObjectKey("abc.jpg", "images", "posts"))
	assert.Equal(t, "users/abc.jpg", minioObjectKey("users/abc.jpg", "images", "posts"))
	assert.Equal(t, "posts/abc.jpg", minioObjectKey("https://minio.internal:9000/images/posts/abc.jpg", "images", "posts"))
}

func TestNewImageStorageServiceUnknownProvider(t *testing.T) {
	_, err := NewImageStorageService(config.ObjectStorageConfig{Provider: "s3"})
	assert.Error(t, err)
}

type fakeCloudinaryAPI struct {
	destroyResult *uploader.DestroyResult
	destroyErr    error
	deleted       map[string]string
	bulkErr       error
	bulkCalls     [][]string
}

func (f *fakeCloudinaryAPI) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	return f.destroyResult, f.destroyErr
}

func (f *fakeCloudinaryAPI) DeleteAssets(ctx context.Context, params admin.DeleteAssetsParams) (*admin.DeleteAssetsResult, error) {
	f.bulkCalls = append(f.bulkCalls, params.PublicIDs)
	if f.bulkErr != nil {
		return nil, f.bulkErr
	}
	return &admin.DeleteAssetsResult{Deleted: f.deleted}, nil
}

func TestCloudinaryDeleteImage(t *testing.T) {
	fake := &fakeCloudinaryAPI{destroyResult: &uploader.DestroyResult{Result: "ok"}}
	storage := &cloudinaryImageStorageImpl{api: fake, folder: "posts"}

	status, err := storage.DeleteImage(context.Background(), "posts/a")
	require.NoError(t, err)
	assert.Equal(t, view.ImageDeleted, status)

	fake.destroyResult = &uploader.DestroyResult{Result: "not found"}
	status, err = storage.DeleteImage(context.Background(), "posts/a")
	require.NoError(t, err)
	assert.Equal(t, view.ImageNotFound, status)
	assert.False(t, status.IsDeleted())

	fake.destroyResult = &uploader.DestroyResult{Error: api.ErrorResp{Message: "Invalid Signature"}}
	status, err = storage.DeleteImage(context.Background(), "posts/a")
	assert.Error(t, err)
	assert.Equal(t, view.ImageError, status)

	fake.destroyResult = nil
	fake.destroyErr = errors.New("connection reset")
	status, err = storage.DeleteImage(context.Background(), "posts/a")
	assert.Error(t, err)
	assert.Equal(t, view.ImageError, status)
}

func TestCloudinaryDeleteImages(t *testing.T) {
	fake := &fakeCloudinaryAPI{deleted: map[string]string{
		"posts/a": "deleted",
		"posts/b": "not_found",
	}}
	storage := &cloudinaryImageStorageImpl{api: fake, folder: "posts"}

	statuses, err := storage.DeleteImages(context.Background(), []string{"posts/a", "posts/b", "posts/c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]view.ImageDeleteStatus{
		"posts/a": view.ImageDeleted,
		"posts/b": view.ImageNotFound,
		"posts/c": view.ImageError,
	}, statuses)
	require.Len(t, fake.bulkCalls, 1)

	tooMany := make([]string, storage.MaxBatchSize()+1)
	_, err = storage.DeleteImages(context.Background(), tooMany)
	assert.Error(t, err)
	assert.Len(t, fake.bulkCalls, 1)

	fake.bulkErr = errors.New("rate limited")
	_, err = storage.DeleteImages(context.Background(), []string{"posts/a"})
	assert.Error(t, err)
}

type fakeMinioAPI struct {
	objects   map[string]bool
	statErr   error
	removeErr map[string]error
}

func (f *fakeMinioAPI) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	if f.statErr != nil {
		return minio.ObjectInfo{}, f.statErr
	}
	if !f.objects[objectName] {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return minio.ObjectInfo{Key: objectName}, nil
}

func (f *fakeMinioAPI) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	if err := f.removeErr[objectName]; err != nil {
		return err
	}
	delete(f.objects, objectName)
	return nil
}

func (f *fakeMinioAPI) RemoveObjects(ctx context.Context, bucketName string, objectsCh <-chan minio.ObjectInfo, opts minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError {
	errorCh := make(chan minio.RemoveObjectError, len(objectsCh))
	for object := range objectsCh {
		if err := f.removeErr[object.Key]; err != nil {
			errorCh <- minio.RemoveObjectError{ObjectName: object.Key, Err: err}
			continue
		}
		delete(f.objects, object.Key)
	}
	close(errorCh)
	return errorCh
}

func TestMinioDeleteImage(t *testing.T) {
	fake := &fakeMinioAPI{objects: map[string]bool{"posts/a.jpg": true}}
	storage := &minioImageStorageImpl{api: fake, bucket: "images", folder: "posts"}

	status, err := storage.DeleteImage(context.Background(), "posts/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, view.ImageDeleted, status)

	status, err = storage.DeleteImage(context.Background(), "posts/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, view.ImageNotFound, status)

	fake.statErr = errors.New("access denied")
	status, err = storage.DeleteImage(context.Background(), "posts/b.jpg")
	assert.Error(t, err)
	assert.Equal(t, view.ImageError, status)
}

func TestMinioDeleteImages(t *testing.T) {
	fake := &fakeMinioAPI{
		objects:   map[string]bool{"posts/a.jpg": true, "posts/b.jpg": true},
		removeErr: map[string]error{"posts/b.jpg": errors.New("locked")},
	}
	storage := &minioImageStorageImpl{api: fake, bucket: "images", folder: "posts"}

	statuses, err := storage.DeleteImages(context.Background(), []string{"posts/a.jpg", "posts/b.jpg", "posts/c.jpg"})
	require.NoError(t, err)
	assert.Equal(t, map[string]view.ImageDeleteStatus{
		"posts/a.jpg": view.ImageDeleted,
		"posts/b.jpg": view.ImageError,
		"posts/c.jpg": view.ImageNotFound,
	}, statuses)
	assert.False(t, fake.objects["posts/a.jpg"])
	assert.True(t, fake.objects["posts/b.jpg"])
}
