package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborwell/shipstock/api/rest"
	"github.com/harborwell/shipstock/config"
	mw "github.com/harborwell/shipstock/middleware"
	"github.com/harborwell/shipstock/stock"
	"github.com/harborwell/shipstock/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	cfg := &config.Config{}
	cfg.Server.Debug = true
	cfg.Security = config.SecurityConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}

	r := rest.NewRouter(rest.Deps{
		DB:     db,
		Cache:  c,
		Stock:  stock.NewService(db, nil, logger),
		Audit:  nil,
		Config: cfg,
		Logger: logger,
	})
	return &testEnv{db: db, router: r}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(mw.TokenHeader, token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// envelope decodes the standard response body.
type envelope struct {
	Success bool                   `json:"success"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return env
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

// login creates the user if needed and returns a session token.
func (e *testEnv) login(t *testing.T, username, role string, shipID *int64) string {
	t.Helper()
	testutil.CreateUser(t, e.db, username, "pass1234", role, shipID)
	w := e.do(t, http.MethodPost, "/login", "", map[string]string{
		"username": username, "password": "pass1234",
	})
	require.Equal(t, http.StatusOK, w.Code, "login: %s", w.Body.String())
	env := decode(t, w)
	token, ok := env.Data["token"].(string)
	require.True(t, ok, "login response missing token")
	return token
}
