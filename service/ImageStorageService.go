// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/Netcracker/qubership-marketplace-cleanup/config"
	"github.com/Netcracker/qubership-marketplace-cleanup/view"
)

// Largest id list accepted by one bulk delete call of either provider.
const imageBatchLimit = 100

type ImageStorageService interface {
	// ObjectId converts a value stored in a listing's images column into the id the provider deletes by.
	ObjectId(image string) string
	DeleteImage(ctx context.Context, id string) (view.ImageDeleteStatus, error)
	// DeleteImages returns an outcome for every requested id; ids the provider did not report on are view.ImageError.
	DeleteImages(ctx context.Context, ids []string) (map[string]view.ImageDeleteStatus, error)
	MaxBatchSize() int
}

func NewImageStorageService(cfg config.ObjectStorageConfig) (ImageStorageService, error) {
	switch cfg.Provider {
	case config.StorageProviderCloudinary:
		return NewCloudinaryImageStorage(view.CloudinaryCreds{
			CloudName: cfg.Cloudinary.CloudName,
			ApiKey:    cfg.Cloudinary.ApiKey,
			ApiSecret: cfg.Cloudinary.ApiSecret,
		}, cfg.Folder)
	case config.StorageProviderMinio:
		return NewMinioImageStorage(view.MinioStorageCreds{
			BucketName:      cfg.Minio.BucketName,
			Endpoint:        cfg.Minio.Endpoint,
			AccessKeyId:     cfg.Minio.Username,
			SecretAccessKey: cfg.Minio.Password,
			UseSSL:          cfg.Minio.UseSSL,
		}, cfg.Folder)
	}
	return nil, fmt.Errorf("unsupported object storage provider: %s", cfg.Provider)
}

var (
	versionSegment = regexp.MustCompile(`^v\d+$`)

	// one component of a transformation segment, e.g. w_200 or c_fill in "c_fill,w_200"
	transformationParam = regexp.MustCompile(`^(a|ac|af|ar|b|bo|br|c|co|cs|d|dl|dn|dpr|du|e|eo|f|fl|fn|fps|g|h|ki|l|o|p|pg|q|r|so|sp|t|u|vc|vs|w|x|y|z|\$[a-z]+)_[^/]+$`)
)

// dropDeliveryPrefix removes the transformation and version segments that precede the public id
// in a delivery path. Everything up to the version segment goes when there is one.
func dropDeliveryPrefix(segments []string) []string {
	for i, segment := range segments {
		if versionSegment.MatchString(segment) && i < len(segments)-1 {
			return segments[i+1:]
		}
	}
	for len(segments) > 1 && isTransformationSegment(segments[0]) {
		segments = segments[1:]
	}
	return segments
}

func isTransformationSegment(segment string) bool {
	for _, param := range strings.Split(segment, ",") {
		if !transformationParam.MatchString(param) {
			return false
		}
	}
	return true
}

// cloudinaryPublicId accepts either a bare public id or a delivery URL such as
// https://res.cloudinary.com/<cloud>/image/upload/v1712345/posts/abc.jpg and returns "posts/abc".
func cloudinaryPublicId(image string, folder string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}
	if isRemoteUrl(image) {
		u, err := url.Parse(image)
		if err != nil {
			return image
		}
		p := u.Path
		if idx := strings.Index(p, "/upload/"); idx >= 0 {
			p = p[idx+len("/upload/"):]
		}
		segments := dropDeliveryPrefix(strings.Split(strings.Trim(p, "/"), "/"))
		last := len(segments) - 1
		segments[last] = strings.TrimSuffix(segments[last], path.Ext(segments[last]))
		return strings.Join(segments, "/")
	}
	return withFolder(strings.TrimPrefix(image, "/"), folder)
}

// minioObjectKey accepts an object key or an object URL (path-style, bucket first) and returns the key.
func minioObjectKey(image string, bucket string, folder string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}
	if isRemoteUrl(image) {
		u, err := url.Parse(image)
		if err != nil {
			return image
		}
		key := strings.TrimPrefix(u.Path, "/")
		return strings.TrimPrefix(key, bucket+"/")
	}
	return withFolder(strings.TrimPrefix(image, "/"), folder)
}

func withFolder(id string, folder string) string {
	if folder == "" || strings.Contains(id, "/") {
		return id
	}
	return folder + "/" + id
}

func isRemoteUrl(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
