package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/officechat-backend/internal/http/response"
	"github.com/yungbote/officechat-backend/internal/platform/apierr"
	"github.com/yungbote/officechat-backend/internal/platform/ctxutil"
)

// requireIdentity writes a 401 and returns false when the auth middleware did not run.
func requireIdentity(c *gin.Context) (ctxutil.Identity, bool) {
	id, ok := ctxutil.GetIdentity(c.Request.Context())
	if !ok {
		response.RespondError(c, apierr.Unauthorized("not authenticated"))
		return ctxutil.Identity{}, false
	}
	return id, true
}
