package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxSessionID    = "session_id"
	SessionIDHeader = "X-Session-ID"
)

type SessionOptions struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session resolves the browser session id from the cookie or the X-Session-ID
// header, issuing a new one when neither carries a valid uuid.
func Session(opts SessionOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := ""
		if cookie, err := c.Cookie(opts.CookieName); err == nil && validSessionID(cookie) {
			sid = cookie
		} else if header := c.GetHeader(SessionIDHeader); validSessionID(header) {
			sid = header
		}

		if sid == "" {
			sid = uuid.NewString()
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(opts.CookieName, sid, int(opts.TTL.Seconds()), "/", "", opts.Secure, true)
		c.Header(SessionIDHeader, sid)
		c.Set(ctxSessionID, sid)
		c.Next()
	}
}

func validSessionID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func SessionID(c *gin.Context) string {
	return c.GetString(ctxSessionID)
}
