package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/yungbote/officechat-backend/internal/platform/gcp"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

type stubMediaHost struct{}

func (stubMediaHost) Upload(context.Context, string, string, io.Reader) (gcp.UploadResult, error) {
	return gcp.UploadResult{}, nil
}

func (stubMediaHost) Delete(context.Context, string) error { return nil }

func TestClassifyStorageProviderBootstrapError(t *testing.T) {
	cases := []struct {
		name string
		cfg  gcp.ObjectStorageConfig
		err  error
		want StorageProviderBootstrapErrorCode
	}{
		{
			name: "invalid mode",
			cfg:  gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageMode("bad-mode")},
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidMode, Mode: "bad-mode"},
			want: StorageProviderBootstrapErrorInvalidMode,
		},
		{
			name: "missing emulator host",
			cfg:  gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCSEmulator},
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorMissingEmulatorHost},
			want: StorageProviderBootstrapErrorMissingEmulatorHost,
		},
		{
			name: "invalid emulator host",
			cfg:  gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCSEmulator, EmulatorHost: "fake-gcs:4443"},
			err:  &gcp.ObjectStorageConfigError{Code: gcp.ObjectStorageConfigErrorInvalidEmulatorHost},
			want: StorageProviderBootstrapErrorInvalidEmulatorHost,
		},
		{
			name: "connect failed",
			cfg:  gcp.ObjectStorageConfig{Mode: gcp.ObjectStorageModeGCS},
			err:  errors.New("dial tcp: connection refused"),
			want: StorageProviderBootstrapErrorConnectFailed,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifyStorageProviderBootstrapError(tc.cfg, tc.err)
			var got *StorageProviderBootstrapError
			if !errors.As(err, &got) {
				t.Fatalf("expected StorageProviderBootstrapError, got=%T", err)
			}
			if got.Code != tc.want {
				t.Fatalf("code: want=%q got=%q", tc.want, got.Code)
			}
			if !errors.Is(err, tc.err) {
				t.Fatalf("expected cause to be preserved")
			}
		})
	}
}

func TestResolveMediaHostWithoutBucketDisablesUploads(t *testing.T) {
	called := false
	stubNewMediaHost(t, func(context.Context, *logger.Logger, gcp.MediaConfig) (gcp.MediaHost, error) {
		called = true
		return stubMediaHost{}, nil
	})

	media, err := resolveMediaHost(context.Background(), logger.NewNop(), StorageConfig{})
	if err != nil {
		t.Fatalf("resolveMediaHost: %v", err)
	}
	if media != nil {
		t.Fatalf("expected nil media host, got %T", media)
	}
	if called {
		t.Fatalf("media host factory should not run without a bucket")
	}
}

func TestResolveMediaHostEmulatorFallback(t *testing.T) {
	var got gcp.MediaConfig
	stubNewMediaHost(t, func(_ context.Context, _ *logger.Logger, cfg gcp.MediaConfig) (gcp.MediaHost, error) {
		got = cfg
		return stubMediaHost{}, nil
	})

	media, err := resolveMediaHost(context.Background(), logger.NewNop(), StorageConfig{
		Bucket:       "chat-attachments",
		EmulatorHost: "http://fake-gcs:4443/",
	})
	if err != nil {
		t.Fatalf("resolveMediaHost: %v", err)
	}
	if media == nil {
		t.Fatalf("expected media host")
	}
	if got.Storage.Mode != gcp.ObjectStorageModeGCSEmulator || !got.Storage.CompatibilityFallback {
		t.Fatalf("storage: %+v", got.Storage)
	}
	if got.Storage.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host: %q", got.Storage.EmulatorHost)
	}
	if got.Bucket != "chat-attachments" {
		t.Fatalf("bucket: %q", got.Bucket)
	}
}

func TestResolveMediaHostInvalidMode(t *testing.T) {
	stubNewMediaHost(t, func(context.Context, *logger.Logger, gcp.MediaConfig) (gcp.MediaHost, error) {
		t.Fatalf("factory should not run for an invalid mode")
		return nil, nil
	})

	_, err := resolveMediaHost(context.Background(), logger.NewNop(), StorageConfig{
		Bucket: "chat-attachments",
		Mode:   "s3",
	})
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorInvalidMode {
		t.Fatalf("code: want=%q got=%q (err=%v)", StorageProviderBootstrapErrorInvalidMode, code, err)
	}
	if !strings.Contains(err.Error(), `mode="s3"`) {
		t.Fatalf("error should name the mode: %v", err)
	}
}

func TestResolveMediaHostConnectFailed(t *testing.T) {
	stubNewMediaHost(t, func(context.Context, *logger.Logger, gcp.MediaConfig) (gcp.MediaHost, error) {
		return nil, errors.New("bucket does not exist")
	})

	_, err := resolveMediaHost(context.Background(), logger.NewNop(), StorageConfig{
		Bucket: "chat-attachments",
		Mode:   "gcs",
	})
	if code := storageProviderBootstrapErrorCode(err); code != StorageProviderBootstrapErrorConnectFailed {
		t.Fatalf("code: want=%q got=%q", StorageProviderBootstrapErrorConnectFailed, code)
	}
}

func stubNewMediaHost(t *testing.T, fn func(context.Context, *logger.Logger, gcp.MediaConfig) (gcp.MediaHost, error)) {
	t.Helper()
	prev := newMediaHost
	newMediaHost = fn
	t.Cleanup(func() { newMediaHost = prev })
}
