package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/macrotracker/internal"
	"github.com/yourname/macrotracker/internal/config"
)

func newProvider(secret string, ttl time.Duration) *JWTProvider {
	return NewJWTProvider(secret, ttl, internal.NewNopLogger())
}

func TestJWTProvider_RoundTrip(t *testing.T) {
	p := newProvider("secret", time.Hour)
	token, err := p.Issue("session-1")
	require.NoError(t, err)

	id, err := p.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)
}

func TestJWTProvider_Rejects(t *testing.T) {
	p := newProvider("secret", time.Hour)

	other, err := newProvider("other-secret", time.Hour).Issue("session-1")
	require.NoError(t, err)
	_, err = p.Validate(other)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := newProvider("secret", -time.Minute).Issue("session-1")
	require.NoError(t, err)
	_, err = p.Validate(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	noSID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = p.Validate(noSID)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = p.Validate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func setupRouter(p Provider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: "development", SessionTTL: time.Hour}
	r := gin.New()
	r.Use(SessionMiddleware(p, cfg, internal.NewNopLogger()))
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(SessionKey))
	})
	return r
}

func TestSessionMiddleware_IssuesNewSession(t *testing.T) {
	p := newProvider("secret", time.Hour)
	r := setupRouter(p)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	id := w.Body.String()
	assert.NotEmpty(t, id)

	token := w.Header().Get("X-Session-Token")
	require.NotEmpty(t, token)
	got, err := p.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestSessionMiddleware_ReusesSession(t *testing.T) {
	p := newProvider("secret", time.Hour)
	r := setupRouter(p)
	token, err := p.Issue("known")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	assert.Equal(t, "known", w.Body.String())
	assert.Empty(t, w.Header().Get("X-Session-Token"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	r.ServeHTTP(w, req)
	assert.Equal(t, "known", w.Body.String())
}

func TestSessionMiddleware_InvalidTokenGetsFreshSession(t *testing.T) {
	p := newProvider("secret", time.Hour)
	r := setupRouter(p)
	forged, err := newProvider("forged", time.Hour).Issue("victim")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	r.ServeHTTP(w, req)

	assert.NotEqual(t, "victim", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Session-Token"))
}

func TestSessionMiddleware_WritesRenewToken(t *testing.T) {
	p := newProvider("secret", time.Hour)
	r := setupRouter(p)
	r.POST("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(SessionKey))
	})

	// A token close to expiry, as held by a long-running active session.
	old, err := newProvider("secret", time.Minute).Issue("known")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: old})
	r.ServeHTTP(w, req)

	assert.Equal(t, "known", w.Body.String())
	renewed := w.Header().Get("X-Session-Token")
	require.NotEmpty(t, renewed)
	id, err := p.Validate(renewed)
	require.NoError(t, err)
	assert.Equal(t, "known", id)

	var claims sessionClaims
	_, _, err = jwt.NewParser().ParseUnverified(renewed, &claims)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, renewed, cookies[0].Value)
}
