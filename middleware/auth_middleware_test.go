package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborwell/shipstock/cache"
	"github.com/harborwell/shipstock/config"
	mw "github.com/harborwell/shipstock/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter(t *testing.T) (*gin.Engine, cache.Cache, config.SecurityConfig) {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{})
	require.NoError(t, err)
	sec := config.SecurityConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}

	r := gin.New()
	r.GET("/me", mw.Auth(sec, c), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"userId":   mw.GetUserID(ctx),
			"username": mw.GetUsername(ctx),
			"role":     mw.GetRole(ctx),
			"shipId":   mw.GetShipID(ctx),
		})
	})
	r.GET("/admin", mw.Auth(sec, c), mw.RequireAdmin(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, c, sec
}

func sessionToken(t *testing.T, c cache.Cache, sec config.SecurityConfig, userID int64, username, role string, shipID *int64) string {
	t.Helper()
	token, err := mw.GenerateToken(userID, username, role, shipID, sec.JWTSecret, sec.TokenTTL)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), "session:"+token, username, sec.TokenTTL))
	return token
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(mw.TokenHeader, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth_MissingToken(t *testing.T) {
	r, _, _ := newAuthRouter(t)
	w := doGet(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "TOKEN_MISSING", resp["code"])
}

func TestAuth_InvalidToken(t *testing.T) {
	r, _, _ := newAuthRouter(t)
	w := doGet(r, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "TOKEN_INVALID", resp["code"])
}

func TestAuth_ExpiredToken(t *testing.T) {
	r, _, sec := newAuthRouter(t)
	token, err := mw.GenerateToken(1, "u", "ship", nil, sec.JWTSecret, -time.Minute)
	require.NoError(t, err)

	w := doGet(r, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "TOKEN_EXPIRED", resp["code"])
}

func TestAuth_RevokedSession(t *testing.T) {
	r, c, sec := newAuthRouter(t)
	token := sessionToken(t, c, sec, 1, "u", "ship", nil)
	require.NoError(t, c.Del(context.Background(), "session:"+token))

	w := doGet(r, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "TOKEN_EXPIRED", resp["code"])
}

func TestAuth_OK(t *testing.T) {
	r, c, sec := newAuthRouter(t)
	shipID := int64(3)
	token := sessionToken(t, c, sec, 9, "bosun", "ship", &shipID)

	w := doGet(r, "/me", token)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, float64(9), resp["userId"])
	assert.Equal(t, "bosun", resp["username"])
	assert.Equal(t, "ship", resp["role"])
	assert.Equal(t, float64(3), resp["shipId"])
}

func TestRequireAdmin_Forbidden(t *testing.T) {
	r, c, sec := newAuthRouter(t)
	token := sessionToken(t, c, sec, 2, "deckhand", "ship", nil)

	w := doGet(r, "/admin", token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_OK(t *testing.T) {
	r, c, sec := newAuthRouter(t)
	token := sessionToken(t, c, sec, 1, "root", "admin", nil)

	w := doGet(r, "/admin", token)
	assert.Equal(t, http.StatusOK, w.Code)
}
