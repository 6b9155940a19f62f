package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Netcracker/qubership-marketplace-cleanup/utils"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	cloudinaryResultOk       = "ok"
	cloudinaryResultNotFound = "not found"

	cloudinaryDeleted  = "deleted"
	cloudinaryNotFound = "not_found"

	cloudinaryCallThresholdMs = 2000
)

type cloudinaryAPI interface {
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
	DeleteAssets(ctx context.Context, params admin.DeleteAssetsParams) (*admin.DeleteAssetsResult, error)
}

type cloudinaryClient struct {
	cld *cloudinary.Cloudinary
}

func (c cloudinaryClient) Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error) {
	return c.cld.Upload.Destroy(ctx, params)
}

func (c cloudinaryClient) DeleteAssets(ctx context.Context, params admin.DeleteAssetsParams) (*admin.DeleteAssetsResult, error) {
	return c.cld.Admin.DeleteAssets(ctx, params)
}

func NewCloudinaryImageStorage(creds view.CloudinaryCreds, folder string) (ImageStorageService, error) {
	cld, err := cloudinary.NewFromParams(creds.CloudName, creds.ApiKey, creds.ApiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}
	log.Infof("Cloudinary image storage configured for cloud %s", creds.CloudName)
	return &cloudinaryImageStorageImpl{api: cloudinaryClient{cld: cld}, folder: folder}, nil
}

type cloudinaryImageStorageImpl struct {
	api    cloudinaryAPI
	folder string
}

func (c *cloudinaryImageStorageImpl) ObjectId(image string) string {
	return cloudinaryPublicId(image, c.folder)
}

func (c *cloudinaryImageStorageImpl) MaxBatchSize() int {
	return imageBatchLimit
}

func (c *cloudinaryImageStorageImpl) DeleteImage(ctx context.Context, id string) (view.ImageDeleteStatus, error) {
	start := time.Now()
	defer func() {
		utils.PerfLog(time.Since(start).Milliseconds(), cloudinaryCallThresholdMs, "cloudinary destroy "+id)
	}()

	result, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: id})
	if err != nil {
		return view.ImageError, errors.Wrapf(err, "cloudinary destroy of %s failed", id)
	}
	if result == nil {
		return view.ImageError, fmt.Errorf("cloudinary destroy of %s returned empty response", id)
	}
	if result.Error.Message != "" {
		return view.ImageError, fmt.Errorf("cloudinary destroy of %s failed: %s", id, result.Error.Message)
	}
	switch result.Result {
	case cloudinaryResultOk:
		return view.ImageDeleted, nil
	case cloudinaryResultNotFound:
		return view.ImageNotFound, nil
	}
	log.Debugf("Unexpected cloudinary destroy result for %s: %s", id, result.Result)
	return view.ImageError, nil
}

func (c *cloudinaryImageStorageImpl) DeleteImages(ctx context.Context, ids []string) (map[string]view.ImageDeleteStatus, error) {
	if len(ids) == 0 {
		return map[string]view.ImageDeleteStatus{}, nil
	}
	if len(ids) > imageBatchLimit {
		return nil, fmt.Errorf("cloudinary bulk delete accepts at most %d ids, got %d", imageBatchLimit, len(ids))
	}
	start := time.Now()
	defer func() {
		utils.PerfLog(time.Since(start).Milliseconds(), cloudinaryCallThresholdMs, fmt.Sprintf("cloudinary bulk delete of %d images", len(ids)))
	}()

	result, err := c.api.DeleteAssets(ctx, admin.DeleteAssetsParams{PublicIDs: ids})
	if err != nil {
		return nil, errors.Wrapf(err, "cloudinary bulk delete of %d images failed", len(ids))
	}
	if result == nil {
		return nil, fmt.Errorf("cloudinary bulk delete returned empty response")
	}
	if result.Error.Message != "" {
		return nil, fmt.Errorf("cloudinary bulk delete failed: %s", result.Error.Message)
	}

	statuses := make(map[string]view.ImageDeleteStatus, len(ids))
	for _, id := range ids {
		switch result.Deleted[id] {
		case cloudinaryDeleted:
			statuses[id] = view.ImageDeleted
		case cloudinaryNotFound:
			statuses[id] = view.ImageNotFound
		default:
			statuses[id] = view.ImageError
		}
	}
	return statuses, nil
}
