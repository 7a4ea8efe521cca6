package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/http/response"
	"github.com/yungbote/officechat-backend/internal/observability"
	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
	"github.com/yungbote/officechat-backend/internal/platform/logger"
	"github.com/yungbote/officechat-backend/internal/realtime"
)

type RealtimeHandler struct {
	log     *logger.Logger
	source  realtime.Subscriber
	metrics *observability.Metrics
	cfg     realtime.StreamConfig
}

func NewRealtimeHandler(log *logger.Logger, source realtime.Subscriber, metrics *observability.Metrics, cfg realtime.StreamConfig) *RealtimeHandler {
	return &RealtimeHandler{
		log:     log.With("handler", "RealtimeHandler"),
		source:  source,
		metrics: metrics,
		cfg:     cfg,
	}
}

// GET /api/chat/stream
func (h *RealtimeHandler) Stream(c *gin.Context) {
	actor, ok := requireIdentity(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := h.log.With(append([]interface{}{"user_id", actor.UserID.String()}, ctxutil.LogFields(ctx)...)...)

	stream := realtime.NewStream(log, h.source, h.cfg)
	h.metrics.StreamOpened()
	err := stream.Serve(ctx, c.Writer)
	h.metrics.StreamClosed(stream.Dropped())

	if c.Writer.Written() {
		if err != nil && !errors.Is(err, realtime.ErrSubscriptionClosed) {
			log.Warn("stream ended", "error", err)
		} else {
			log.Debug("stream ended", "dropped", stream.Dropped())
		}
		return
	}
	if err != nil {
		log.Error("stream subscribe failed", "error", err)
		response.RespondError(c, apierr.Upstream("subscribe", err))
	}
}
