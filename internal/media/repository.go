// Package media implements the image upload and URL transformation domain
// over S3-compatible object storage.
package media

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"appstarter/internal/config"
	"appstarter/internal/types"
)

// TransformOptions are the optional URL transformation parameters.
// Zero-valued fields are omitted; Quality and Format default to "auto".
type TransformOptions struct {
	Width   int
	Height  int
	Quality string
	Format  string
}

// Repository is the low-level object storage contract. Satisfied by
// S3Repository; tests substitute an in-memory fake.
type Repository interface {
	// Upload streams the content to object storage under the given folder
	// and returns the public URL plus the storage identifier.
	Upload(ctx context.Context, data []byte, folder string) (types.MediaUploadResult, error)

	// URL builds a public URL for a previously uploaded object, applying
	// the optional transformation parameters. Pure string construction;
	// never performs I/O.
	URL(publicID string, opts *TransformOptions) string
}

// objectPutter is the slice of the S3 client the repository uses. Narrowed
// for testability.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Repository implements Repository over the AWS S3 SDK. The client is
// built lazily and exactly once per repository instance, independent of any
// caller-side singleton guard, so a directly constructed repository (e.g.,
// in tests) behaves the same as one resolved through the registry.
type S3Repository struct {
	cfg config.MediaConfig

	// newKey generates object key suffixes; overridable in tests.
	newKey func() string

	once    sync.Once
	client  objectPutter
	initErr error
}

// NewS3Repository creates a repository for the given media settings.
func NewS3Repository(cfg config.MediaConfig) *S3Repository {
	return &S3Repository{cfg: cfg, newKey: newObjectKey}
}

// ensureClient builds the S3 client on first use. Idempotent; a failed
// build is sticky for the repository's lifetime.
func (r *S3Repository) ensureClient(ctx context.Context) error {
	r.once.Do(func() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(r.cfg.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				r.cfg.AccessKeyID,
				r.cfg.SecretAccessKey.Unmask(),
				"",
			)),
		)
		if err != nil {
			r.initErr = fmt.Errorf("loading storage credentials: %w", err)
			return
		}

		r.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if r.cfg.EndpointURL != "" {
				o.BaseEndpoint = aws.String(r.cfg.EndpointURL)
				o.UsePathStyle = true
			}
		})
	})
	return r.initErr
}

func (r *S3Repository) Upload(ctx context.Context, data []byte, folder string) (types.MediaUploadResult, error) {
	if err := r.ensureClient(ctx); err != nil {
		return types.MediaUploadResult{}, types.NewAppError(types.ErrCodeUploadFailed, "storage client unavailable", err)
	}

	key := strings.Trim(folder, "/") + "/" + r.newKey()
	contentType := http.DetectContentType(data)

	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return types.MediaUploadResult{}, types.NewAppError(types.ErrCodeUploadFailed, "object storage upload failed", err)
	}

	return types.MediaUploadResult{
		URL:      r.URL(key, nil),
		PublicID: key,
	}, nil
}

// URL builds a public URL for the object. The base is the CDN URL when
// configured, the custom endpoint for S3-compatible backends, or the
// bucket's virtual-hosted AWS URL. Transformation parameters are carried as
// query parameters for a CDN-side image proxy.
func (r *S3Repository) URL(publicID string, opts *TransformOptions) string {
	publicID = strings.TrimPrefix(publicID, "/")

	var base string
	switch {
	case r.cfg.CDNBaseURL != "":
		base = strings.TrimSuffix(r.cfg.CDNBaseURL, "/") + "/" + publicID
	case r.cfg.EndpointURL != "":
		base = strings.TrimSuffix(r.cfg.EndpointURL, "/") + "/" + r.cfg.Bucket + "/" + publicID
	default:
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", r.cfg.Bucket, r.cfg.Region, publicID)
	}

	if opts == nil {
		return base
	}

	params := url.Values{}
	if opts.Width > 0 {
		params.Set("w", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		params.Set("h", strconv.Itoa(opts.Height))
	}
	if opts.Width > 0 || opts.Height > 0 {
		params.Set("fit", "crop")
	}
	params.Set("q", valueOrAuto(opts.Quality))
	params.Set("fm", valueOrAuto(opts.Format))

	return base + "?" + params.Encode()
}

func valueOrAuto(s string) string {
	if s == "" {
		return "auto"
	}
	return s
}

// newObjectKey returns a fresh unique object key suffix.
func newObjectKey() string {
	return uuid.NewString()
}
