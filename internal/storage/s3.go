// Package storage handles menu file uploads. Clients upload directly to S3
// through presigned URLs; the backend never proxies file bytes.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appErrors "menuwise-backend/pkg/errors"
)

// UploadURLTTL is how long a presigned upload URL stays valid.
const UploadURLTTL = 15 * time.Minute

// Uploader issues presigned upload URLs for menu files.
type Uploader interface {
	PresignMenuUpload(ctx context.Context, restaurantID, fileName, contentType string) (*PresignedUpload, error)
}

// PresignedUpload is a one-shot upload grant. Key is stored on the restaurant
// record after the client confirms the upload.
type PresignedUpload struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// S3Uploader presigns PUT requests against a single bucket.
type S3Uploader struct {
	presigner *s3.PresignClient
	bucket    string
}

// NewS3Uploader creates an uploader for the given bucket.
func NewS3Uploader(client *s3.Client, bucket string) *S3Uploader {
	return &S3Uploader{
		presigner: s3.NewPresignClient(client),
		bucket:    bucket,
	}
}

// PresignMenuUpload returns a presigned PUT URL for a menu file. Keys are
// namespaced per restaurant and salted with a UUID so successive uploads of
// the same file name never collide.
func (u *S3Uploader) PresignMenuUpload(ctx context.Context, restaurantID, fileName, contentType string) (*PresignedUpload, error) {
	if restaurantID == "" {
		return nil, appErrors.NewValidation("restaurant id is required")
	}
	if fileName == "" {
		return nil, appErrors.NewValidation("file name is required")
	}

	key := fmt.Sprintf("menus/%s/%s-%s", restaurantID, uuid.New().String(), fileName)

	req, err := u.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(UploadURLTTL))
	if err != nil {
		return nil, appErrors.NewInternal("failed to presign menu upload", err)
	}

	return &PresignedUpload{
		URL:       req.URL,
		Key:       key,
		ExpiresAt: time.Now().UTC().Add(UploadURLTTL),
	}, nil
}
