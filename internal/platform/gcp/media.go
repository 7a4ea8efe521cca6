package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

// UploadResult references a stored object. PublicID is what Delete takes.
type UploadResult struct {
	URL      string
	PublicID string
}

// MediaHost stores chat attachments.
type MediaHost interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (UploadResult, error)
	Delete(ctx context.Context, publicID string) error
}

type MediaConfig struct {
	Storage       ObjectStorageConfig
	Bucket        string
	CDNDomain     string
	PublicBaseURL string
	// Credentials is inline service account JSON or a key file path.
	Credentials string
}

type gcsMediaHost struct {
	log           *logger.Logger
	client        *storage.Client
	mode          ObjectStorageMode
	emulatorHost  string
	bucket        string
	cdnDomain     string
	publicBaseURL string
}

func NewMediaHost(ctx context.Context, log *logger.Logger, cfg MediaConfig) (MediaHost, error) {
	if err := ValidateObjectStorageConfig(cfg.Storage); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("missing CHAT_ATTACHMENTS_BUCKET")
	}
	publicBaseURL, publicBaseSource, err := resolvePublicBaseURL(cfg.Storage, cfg.PublicBaseURL)
	if err != nil {
		return nil, err
	}
	client, err := newStorageClientForMode(ctx, cfg.Storage, cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	serviceLog := log.With("service", "MediaHost")
	serviceLog.Info(
		"Object storage initialized",
		"mode", cfg.Storage.Mode,
		"mode_source", cfg.Storage.ModeSource(),
		"emulator_host", cfg.Storage.EmulatorHost,
		"public_base_source", publicBaseSource,
		"bucket", bucket,
	)
	return &gcsMediaHost{
		log:           serviceLog,
		client:        client,
		mode:          cfg.Storage.Mode,
		emulatorHost:  cfg.Storage.EmulatorHost,
		bucket:        bucket,
		cdnDomain:     strings.TrimSpace(cfg.CDNDomain),
		publicBaseURL: publicBaseURL,
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig, creds string) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptions(creds)
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		// the storage client only honors the emulator through the environment
		_ = os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{
			Code: ObjectStorageConfigErrorInvalidMode,
			Mode: string(cfg.Mode),
		}
	}
}

func resolvePublicBaseURL(cfg ObjectStorageConfig, raw string) (baseURL string, source string, err error) {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		parsed, parseErr := url.Parse(raw)
		if parseErr != nil || strings.TrimSpace(parsed.Scheme) == "" || strings.TrimSpace(parsed.Host) == "" {
			return "", "", fmt.Errorf(
				"invalid OBJECT_STORAGE_PUBLIC_BASE_URL=%q; expected absolute URL like http://localhost:4443",
				raw,
			)
		}
		return strings.TrimRight(raw, "/"), "object_storage_public_base_url", nil
	}
	if cfg.IsEmulatorMode() {
		return strings.TrimRight(cfg.EmulatorHost, "/"), "storage_emulator_host", nil
	}
	return "", "gcs_default", nil
}

func (m *gcsMediaHost) Upload(ctx context.Context, key, contentType string, r io.Reader) (UploadResult, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return UploadResult{}, fmt.Errorf("empty object key")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := m.client.Bucket(m.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return UploadResult{}, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return UploadResult{URL: m.publicURL(key), PublicID: key}, nil
}

// Delete treats a missing object as already deleted.
func (m *gcsMediaHost) Delete(ctx context.Context, publicID string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	err := m.client.Bucket(m.bucket).Object(publicID).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", publicID, m.bucket, err)
	}
	return nil
}

func (m *gcsMediaHost) publicURL(key string) string {
	if m.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", m.cdnDomain, key)
	}
	if m.mode == ObjectStorageModeGCSEmulator {
		base := m.publicBaseURL
		if base == "" {
			base = m.emulatorHost
		}
		if base != "" {
			return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(m.bucket), url.PathEscape(key))
		}
	}
	if m.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", m.publicBaseURL, m.bucket, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", m.bucket, key)
}

func (m *gcsMediaHost) Close() error {
	return m.client.Close()
}
