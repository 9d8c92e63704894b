package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docfill/internal/logger"
	"docfill/internal/port"
	"docfill/internal/session"
)

// Session resolves the session id from the cookie and re-issues the cookie so
// its expiry rolls forward on every request. An id is only honoured while the
// store still holds a record for it; a missing, invalid, expired or finalized
// session starts over under a new id.
func Session(cookies *session.Cookies, store port.SessionStore, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		reqLog := logger.FromContext(ctx, log)

		id, fresh := cookies.Resolve(c)
		if !fresh {
			_, live, err := store.Get(ctx, id)
			if err != nil {
				reqLog.Error("looking up session failed", logger.String("session_id", id), logger.Error(err))
				abortSession(c, "SESSION_ERROR", "Session storage is unavailable, please try again.")
				return
			}
			if !live {
				reqLog.Debug("session no longer live", logger.String("session_id", id))
				id, fresh = session.NewID(), true
			}
		}
		if fresh {
			if _, err := store.Ensure(ctx, id); err != nil {
				reqLog.Error("creating session failed", logger.Error(err))
				abortSession(c, "SESSION_ERROR", "Session storage is unavailable, please try again.")
				return
			}
			reqLog.Debug("starting new session", logger.String("session_id", id))
		}

		c.Set(session.ContextKey, id)
		if err := cookies.Write(c, id); err != nil {
			reqLog.Error("issuing session cookie failed", logger.Error(err))
			abortSession(c, "INTERNAL_ERROR", "an internal error occurred")
			return
		}
		c.Next()
	}
}

func abortSession(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": message,
		"error":   gin.H{"code": code, "message": message},
	})
}
