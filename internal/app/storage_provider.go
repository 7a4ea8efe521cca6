package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/officechat-backend/internal/platform/gcp"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

var newMediaHost = gcp.NewMediaHost

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveMediaHost returns nil, nil when no attachments bucket is configured; uploads are
// then disabled.
func resolveMediaHost(ctx context.Context, log *logger.Logger, cfg StorageConfig) (gcp.MediaHost, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		log.Warn("CHAT_ATTACHMENTS_BUCKET not set; attachment uploads disabled")
		return nil, nil
	}

	storageCfg, err := gcp.ResolveObjectStorageConfig(cfg.Mode, cfg.EmulatorHost)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider selection failed",
			"mode", cfg.Mode,
			"emulator_host", cfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}

	log.Info(
		"Selecting object storage provider",
		"mode", storageCfg.Mode,
		"mode_source", storageCfg.ModeSource(),
		"compatibility_fallback", storageCfg.CompatibilityFallback,
		"emulator_host", storageCfg.EmulatorHost,
	)

	media, err := newMediaHost(ctx, log, gcp.MediaConfig{
		Storage:       storageCfg,
		Bucket:        cfg.Bucket,
		CDNDomain:     cfg.CDNDomain,
		PublicBaseURL: cfg.PublicBaseURL,
		Credentials:   cfg.Credentials,
	})
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storageCfg, err)
		log.Error(
			"Object storage provider bootstrap failed",
			"mode", storageCfg.Mode,
			"mode_source", storageCfg.ModeSource(),
			"emulator_host", storageCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return media, nil
}

func classifyStorageProviderBootstrapError(storageCfg gcp.ObjectStorageConfig, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *gcp.ObjectStorageConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case gcp.ObjectStorageConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case gcp.ObjectStorageConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case gcp.ObjectStorageConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
	}
	mode := string(storageCfg.Mode)
	if mode == "" && cfgErr != nil {
		mode = cfgErr.Mode
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         mode,
		EmulatorHost: storageCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
