package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourname/macrotracker/internal"
	"github.com/yourname/macrotracker/internal/config"
)

const (
	SessionCookie = "macrotracker_session"
	SessionKey    = "session_id"
)

// SessionMiddleware resolves the caller's session from a Bearer token or the
// session cookie. Callers without a valid token get a fresh session and cookie.
// Write requests renew the token, so its expiry tracks the session's last
// update the same way the store TTL does.
func SessionMiddleware(provider Provider, cfg *config.Config, logger internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionFromRequest(c, provider)
		if ok && !isWrite(c.Request.Method) {
			c.Set(SessionKey, id)
			c.Next()
			return
		}
		if !ok {
			id = uuid.NewString()
		}

		token, err := provider.Issue(id)
		if err != nil {
			logger.Errorf("failed to issue session token: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": internal.NewAppError(http.StatusInternalServerError, "Failed to start session")})
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(SessionCookie, token, int(cfg.SessionTTL/time.Second), "/", "", cfg.Env == "production", true)
		c.Header("X-Session-Token", token)
		c.Set(SessionKey, id)
		c.Next()
	}
}

func isWrite(method string) bool {
	return method != http.MethodGet && method != http.MethodHead && method != http.MethodOptions
}

func sessionFromRequest(c *gin.Context, provider Provider) (string, bool) {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if id, err := provider.Validate(token); err == nil {
			return id, true
		}
	}
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		if id, err := provider.Validate(token); err == nil {
			return id, true
		}
	}
	return "", false
}
