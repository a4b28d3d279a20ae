package services

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/oms-backend/order-management/config"
	"github.com/oms-backend/order-management/utils"
)

// StorageConfig holds Supabase storage credentials.
type StorageConfig struct {
	URL    string
	Key    string
	Bucket string
}

// StorageService is a thin client for Supabase object storage; the core
// treats it as a content-addressed blob store for evidence screenshots.
type StorageService struct {
	config     *StorageConfig
	httpClient *http.Client
}

func NewStorageService(cfg *StorageConfig) *StorageService {
	return &StorageService{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func NewStorageServiceFromEnv() *StorageService {
	return NewStorageService(&StorageConfig{
		URL:    config.GetEnv("SUPABASE_URL", ""),
		Key:    config.GetEnv("SUPABASE_KEY", ""),
		Bucket: config.GetEnv("SUPABASE_BUCKET", "order-screenshots"),
	})
}

// Bucket returns the configured default bucket.
func (s *StorageService) Bucket() string {
	return s.config.Bucket
}

// UploadFile stores the bytes under a generated unique name, keeping the
// original file's extension, and returns the object path.
func (s *StorageService) UploadFile(data []byte, originalName, bucket, folder string) (string, error) {
	if len(data) == 0 {
		return "", newValidationError("file is empty")
	}

	fileName := uuid.New().String() + path.Ext(originalName)
	filePath := fileName
	if folder != "" {
		filePath = folder + "/" + fileName
	}

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.config.URL, bucket, filePath)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.Key)
	req.Header.Set("Content-Type", http.DetectContentType(data))
	req.Header.Set("Cache-Control", "3600")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload file: storage returned %d: %s", resp.StatusCode, string(body))
	}

	return filePath, nil
}

// DeleteFile removes an object; a failure is logged, not fatal.
func (s *StorageService) DeleteFile(bucket, filePath string) bool {
	if filePath == "" {
		return false
	}

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.config.URL, bucket, filePath)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+s.config.Key)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		utils.ErrorLogger.Printf("Delete error for %s/%s: %v", bucket, filePath, err)
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// GetPublicURL returns the public download URL for an object.
func (s *StorageService) GetPublicURL(bucket, filePath string) string {
	if filePath == "" {
		return ""
	}
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.config.URL, bucket, filePath)
}
