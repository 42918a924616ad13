package media

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appstarter/internal/types"
)

// fakeRepo records the folder passed to Upload.
type fakeRepo struct {
	folders []string
	result  types.MediaUploadResult
	err     error
}

func (f *fakeRepo) Upload(_ context.Context, _ []byte, folder string) (types.MediaUploadResult, error) {
	f.folders = append(f.folders, folder)
	return f.result, f.err
}

func (f *fakeRepo) URL(publicID string, _ *TransformOptions) string {
	return "https://cdn.example.com/" + publicID
}

func TestService_UploadImage_DefaultsFolder(t *testing.T) {
	repo := &fakeRepo{result: types.MediaUploadResult{URL: "u", PublicID: "p"}}
	svc := NewService(repo)

	_, err := svc.UploadImage(context.Background(), []byte("data"), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads"}, repo.folders)
}

func TestService_UploadImage_HonorsExplicitFolder(t *testing.T) {
	repo := &fakeRepo{result: types.MediaUploadResult{URL: "u", PublicID: "p"}}
	svc := NewService(repo)

	result, err := svc.UploadImage(context.Background(), []byte("data"), "avatars")
	require.NoError(t, err)
	assert.Equal(t, []string{"avatars"}, repo.folders)
	assert.Equal(t, "p", result.PublicID)
}

func TestService_ImageURL_Delegates(t *testing.T) {
	svc := NewService(&fakeRepo{})
	assert.Equal(t, "https://cdn.example.com/uploads/abc", svc.ImageURL("uploads/abc", nil))
}
