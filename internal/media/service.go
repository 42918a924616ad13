package media

import (
	"context"

	"appstarter/internal/types"
)

// defaultUploadFolder is where uploads land when the caller does not name a
// folder.
const defaultUploadFolder = "uploads"

// Service is the media domain capability interface.
type Service interface {
	// UploadImage uploads image content, defaulting the folder when empty.
	UploadImage(ctx context.Context, data []byte, folder string) (types.MediaUploadResult, error)

	// ImageURL builds a public URL for an uploaded image, applying the
	// optional transformation parameters.
	ImageURL(publicID string, opts *TransformOptions) string
}

// DefaultService is the production Service implementation.
type DefaultService struct {
	repo Repository
}

// NewService creates a media service over the given repository.
func NewService(repo Repository) *DefaultService {
	return &DefaultService{repo: repo}
}

func (s *DefaultService) UploadImage(ctx context.Context, data []byte, folder string) (types.MediaUploadResult, error) {
	if folder == "" {
		folder = defaultUploadFolder
	}
	return s.repo.Upload(ctx, data, folder)
}

func (s *DefaultService) ImageURL(publicID string, opts *TransformOptions) string {
	return s.repo.URL(publicID, opts)
}
