package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/kendall-kelly/cafe-manager-api/utils"
)

// ImageService stores menu item photos
type ImageService interface {
	// UploadImage validates and stores a photo for a menu item, returns the storage key
	UploadImage(ctx context.Context, menuItemID uint, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL returns a URL clients can load the photo from
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes a photo from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

var imageServiceInstance ImageService

// GetImageService returns the configured image service, or nil
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service used by the handlers
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// S3ImageService keeps photos in S3 and hands out presigned URLs
type S3ImageService struct {
	s3 S3Interface
}

// NewS3ImageService wraps an S3 backend
func NewS3ImageService(s3 S3Interface) *S3ImageService {
	return &S3ImageService{s3: s3}
}

func (s *S3ImageService) UploadImage(ctx context.Context, menuItemID uint, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	contentType, _ := utils.ImageContentType(fileHeader.Filename)

	key := utils.ImageKey(menuItemID, fileHeader.Filename)
	if err := s.s3.UploadFile(ctx, key, contentType, fileHeader); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

func (s *S3ImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}
	url, err := s.s3.GetPresignedURL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

func (s *S3ImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}
	if err := s.s3.DeleteFile(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// LocalImageService keeps photos on disk under a directory served at /api/v1/uploads
type LocalImageService struct {
	dir string
}

// NewLocalImageService stores photos in dir
func NewLocalImageService(dir string) *LocalImageService {
	return &LocalImageService{dir: dir}
}

func (s *LocalImageService) UploadImage(_ context.Context, menuItemID uint, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	// flat layout: the key doubles as the filename
	name := strings.ReplaceAll(utils.ImageKey(menuItemID, fileHeader.Filename), "/", "_")
	if _, err := utils.SaveUploadedFile(fileHeader, s.dir, name); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return name, nil
}

func (s *LocalImageService) GetImageURL(_ context.Context, imageKey string) (string, error) {
	return utils.GetImageURL(imageKey), nil
}

func (s *LocalImageService) DeleteImage(_ context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(imageKey)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
