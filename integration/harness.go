package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harborwell/shipstock/api/rest"
	"github.com/harborwell/shipstock/audit"
	"github.com/harborwell/shipstock/cache"
	"github.com/harborwell/shipstock/config"
	"github.com/harborwell/shipstock/hook"
	mw "github.com/harborwell/shipstock/middleware"
	"github.com/harborwell/shipstock/stock"
	"github.com/harborwell/shipstock/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TestServer wraps a real HTTP server with all subsystems wired together the
// same way main.go wires them.
type TestServer struct {
	DB     *gorm.DB
	Cache  cache.Cache
	Stock  *stock.Service
	Audit  *audit.Service
	Hooks  *hook.Center
	Server *httptest.Server
	URL    string
}

// NewTestServer creates a fully wired server for integration testing. The
// audit sink flushes aggressively so tests can observe rows quickly.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	cfg := &config.Config{}
	cfg.Server.Debug = true
	cfg.Security = config.SecurityConfig{JWTSecret: "integration-secret", TokenTTL: time.Hour}
	cfg.Audit = config.AuditConfig{BufferSize: 64, BatchSize: 1, FlushInterval: 10 * time.Millisecond}

	auditSvc := audit.New(db, cfg.Audit, logger)
	t.Cleanup(func() { auditSvc.Stop(nil) })

	stockSvc := stock.NewService(db, auditSvc, logger)
	hooks := hook.NewCenter()
	stockSvc.SetHooks(hooks)

	r := rest.NewRouter(rest.Deps{
		DB:     db,
		Cache:  c,
		Stock:  stockSvc,
		Audit:  auditSvc,
		Config: cfg,
		Logger: logger,
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &TestServer{
		DB:     db,
		Cache:  c,
		Stock:  stockSvc,
		Audit:  auditSvc,
		Hooks:  hooks,
		Server: srv,
		URL:    srv.URL,
	}
}

// Response is the decoded standard envelope.
type Response struct {
	Status  int
	Success bool                   `json:"success"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// Do performs a request against the test server and decodes the envelope.
func (ts *TestServer) Do(t *testing.T, method, path, token string, body interface{}) Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(mw.TokenHeader, token)
	}
	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := Response{Status: resp.StatusCode}
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return out
}

// rawClaim posts a claim without test assertions so it is safe to call from
// spawned goroutines. Returns the HTTP status, or 0 on transport error.
func (ts *TestServer) rawClaim(token string, itemID int64, qty int) int {
	body := fmt.Sprintf(`{"itemId":%d,"quantity":%d}`, itemID, qty)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/claimItem", bytes.NewBufferString(body))
	if err != nil {
		return 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(mw.TokenHeader, token)
	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode
}

// Login creates a user and returns a session token.
func (ts *TestServer) Login(t *testing.T, username, role string, shipID *int64) string {
	t.Helper()
	testutil.CreateUser(t, ts.DB, username, "pass1234", role, shipID)
	resp := ts.Do(t, http.MethodPost, "/login", "", map[string]string{
		"username": username, "password": "pass1234",
	})
	require.Equal(t, http.StatusOK, resp.Status, resp.Message)
	token, ok := resp.Data["token"].(string)
	require.True(t, ok)
	return token
}
