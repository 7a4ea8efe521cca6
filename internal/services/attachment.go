package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/officechat-backend/internal/domain/chat"
	"github.com/yungbote/officechat-backend/internal/observability"
	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
	"github.com/yungbote/officechat-backend/internal/platform/gcp"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
)

const DefaultAttachmentMaxBytes int64 = 10 << 20

type AttachmentService interface {
	Upload(ctx context.Context, actor ctxutil.Identity, filename, contentType string, size int64, r io.Reader) (*chat.Attachment, error)
}

type attachmentService struct {
	log      *logger.Logger
	media    gcp.MediaHost
	metrics  *observability.Metrics
	maxBytes int64
}

func NewAttachmentService(log *logger.Logger, media gcp.MediaHost, metrics *observability.Metrics, maxBytes int64) AttachmentService {
	if maxBytes <= 0 {
		maxBytes = DefaultAttachmentMaxBytes
	}
	return &attachmentService{
		log:      log.With("service", "AttachmentService"),
		media:    media,
		metrics:  metrics,
		maxBytes: maxBytes,
	}
}

func (s *attachmentService) Upload(ctx context.Context, actor ctxutil.Identity, filename, contentType string, size int64, r io.Reader) (*chat.Attachment, error) {
	att, err := s.upload(ctx, actor, filename, contentType, size, r)
	s.metrics.ObserveChatOp("upload_attachment", resultOf(err))
	return att, err
}

func (s *attachmentService) upload(ctx context.Context, actor ctxutil.Identity, filename, contentType string, size int64, r io.Reader) (*chat.Attachment, error) {
	if actor.IsZero() {
		return nil, apierr.Unauthorized("not authenticated")
	}
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, apierr.Validation("file name is required")
	}
	if size <= 0 {
		return nil, apierr.Validation("file is empty")
	}
	if size > s.maxBytes {
		return nil, apierr.Validation(fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes))
	}

	ext := safeExt(name)
	contentType = strings.TrimSpace(contentType)
	if contentType == "" || contentType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			contentType = byExt
		} else if contentType == "" {
			contentType = "application/octet-stream"
		}
	}
	key := attachmentKeyPrefix(actor.UserID.String()) + uuid.NewString() + ext

	res, err := s.media.Upload(ctx, key, contentType, io.LimitReader(r, s.maxBytes))
	if err != nil {
		return nil, asAPIError(ctx, s.log, "upload attachment", err)
	}
	s.log.Debug("attachment uploaded", "user_id", actor.UserID.String(), "key", res.PublicID, "size", size)
	return &chat.Attachment{
		ID:       res.PublicID,
		Filename: name,
		URL:      res.URL,
		Type:     contentType,
		Size:     size,
	}, nil
}

func attachmentKeyPrefix(userID string) string {
	return "chat/" + userID + "/"
}

// ownsAttachmentKey reports whether key sits under userID's upload prefix.
func ownsAttachmentKey(userID, key string) bool {
	if strings.TrimSpace(userID) == "" {
		return false
	}
	rest, ok := strings.CutPrefix(key, attachmentKeyPrefix(userID))
	return ok && rest != "" && !strings.Contains(rest, "/") && !strings.Contains(rest, "..")
}

// safeExt keeps a short alphanumeric extension and drops anything else.
func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
