package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"appstarter/internal/cache"
	"appstarter/internal/media"
	"appstarter/internal/types"
	"appstarter/internal/user"
)

// ---------------------------------------------------------------------------
// Shared fakes for the handler tests
// ---------------------------------------------------------------------------

// fakeServices implements the Services locator with injectable services and
// per-service resolution errors.
type fakeServices struct {
	users    user.Service
	usersErr error

	cacheSvc cache.Service
	cacheErr error

	mediaSvc media.Service
	mediaErr error
}

func (f *fakeServices) UserService() (user.Service, error)   { return f.users, f.usersErr }
func (f *fakeServices) CacheService() (cache.Service, error) { return f.cacheSvc, f.cacheErr }
func (f *fakeServices) MediaService() (media.Service, error) { return f.mediaSvc, f.mediaErr }

// fakeUserService records the sync and delete calls it receives.
type fakeUserService struct {
	syncPayloads []types.IdentityPayload
	syncErr      error

	deletedIDs []string
	deleteErr  error
}

func (f *fakeUserService) GetByExternalID(context.Context, string) (*types.User, error) {
	return nil, nil
}

func (f *fakeUserService) GetOrCreate(_ context.Context, payload types.IdentityPayload) (*types.User, error) {
	return &types.User{ExternalID: payload.ExternalID, Email: payload.Email}, nil
}

func (f *fakeUserService) SyncFromIdentity(_ context.Context, payload types.IdentityPayload) (*types.User, error) {
	f.syncPayloads = append(f.syncPayloads, payload)
	if f.syncErr != nil {
		return nil, f.syncErr
	}
	return &types.User{ExternalID: payload.ExternalID, Email: payload.Email}, nil
}

func (f *fakeUserService) DeleteByExternalID(_ context.Context, externalID string) error {
	f.deletedIDs = append(f.deletedIDs, externalID)
	return f.deleteErr
}

// fakeCacheService serves canned stats and rate limit decisions.
type fakeCacheService struct {
	stats    *types.StatsData
	statsErr error

	fetched     *types.StatsData
	fetchErr    error
	fetchedTTLs []time.Duration

	rateLimitIPs    []string
	rateLimitResult types.RateLimitResult
	rateLimitErr    error
}

func (f *fakeCacheService) GetStats(context.Context) (*types.StatsData, error) {
	return f.stats, f.statsErr
}

func (f *fakeCacheService) SetStats(context.Context, types.StatsData, time.Duration) error {
	return nil
}

func (f *fakeCacheService) CheckRateLimit(_ context.Context, ip string) (types.RateLimitResult, error) {
	f.rateLimitIPs = append(f.rateLimitIPs, ip)
	return f.rateLimitResult, f.rateLimitErr
}

func (f *fakeCacheService) FetchAndCacheStats(_ context.Context, ttl time.Duration) (*types.StatsData, error) {
	f.fetchedTTLs = append(f.fetchedTTLs, ttl)
	return f.fetched, f.fetchErr
}

// fakeMediaService records uploads.
type fakeMediaService struct {
	uploads [][]byte
	result  types.MediaUploadResult
	err     error
}

func (f *fakeMediaService) UploadImage(_ context.Context, data []byte, _ string) (types.MediaUploadResult, error) {
	f.uploads = append(f.uploads, data)
	return f.result, f.err
}

func (f *fakeMediaService) ImageURL(publicID string, _ *media.TransformOptions) string {
	return "https://cdn.example.com/" + publicID
}

// fakeAuthenticator returns a fixed subject or error.
type fakeAuthenticator struct {
	subject string
	err     error
}

func (f *fakeAuthenticator) Authenticate(*http.Request) (string, error) {
	return f.subject, f.err
}

// ---------------------------------------------------------------------------
// ClientIP Tests
// ---------------------------------------------------------------------------

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded single hop", "203.0.113.7", "", "10.0.0.1:1234", "203.0.113.7"},
		{"forwarded first hop wins", "203.0.113.7, 10.0.0.2", "", "10.0.0.1:1234", "203.0.113.7"},
		{"forwarded with spaces", "  203.0.113.7 , 10.0.0.2", "", "10.0.0.1:1234", "203.0.113.7"},
		{"real ip fallback", "", "198.51.100.4", "10.0.0.1:1234", "198.51.100.4"},
		{"remote addr fallback", "", "", "192.0.2.9:5678", "192.0.2.9"},
		{"remote addr without port", "", "", "192.0.2.9", "192.0.2.9"},
		{"nothing known", "", "", "", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-Ip", tt.realIP)
			}
			assert.Equal(t, tt.want, ClientIP(req))
		})
	}
}
