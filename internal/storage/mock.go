package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MockUploader returns stable fake upload grants for tests and local runs.
type MockUploader struct{}

// NewMockUploader creates a mock uploader.
func NewMockUploader() *MockUploader {
	return &MockUploader{}
}

func (m *MockUploader) PresignMenuUpload(_ context.Context, restaurantID, fileName, _ string) (*PresignedUpload, error) {
	key := fmt.Sprintf("menus/%s/%s-%s", restaurantID, uuid.New().String(), fileName)
	return &PresignedUpload{
		URL:       "https://uploads.example.test/" + key,
		Key:       key,
		ExpiresAt: time.Now().UTC().Add(UploadURLTTL),
	}, nil
}
