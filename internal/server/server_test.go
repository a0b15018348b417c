package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"lending-admin-api/internal/apikey"
	"lending-admin-api/internal/database"
	"lending-admin-api/internal/infrastructure/config"
	"lending-admin-api/internal/infrastructure/di"
	"lending-admin-api/internal/middleware"
)

type testServer struct {
	handler   http.Handler
	logs      *observer.ObservedLogs
	adminKey  string
	viewerKey string
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	adminKey, adminHash, err := apikey.GenerateAPIKey("sk", bcrypt.MinCost)
	require.NoError(t, err)
	viewerKey, viewerHash, err := apikey.GenerateAPIKey("sk", bcrypt.MinCost)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "lending.db")
	cfg.Security.AdminKeys = []config.AdminKeyConfig{
		{Name: "alice", Role: "admin", Hash: adminHash},
		{Name: "bob", Role: "viewer", Hash: viewerHash},
	}
	for _, m := range mutate {
		m(cfg)
	}
	require.NoError(t, cfg.Validate())

	db, err := database.Open(context.Background(), cfg.Database.Path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	c, err := di.New(cfg, db.DB(), zap.New(core))
	require.NoError(t, err)

	return &testServer{handler: c.Server.Handler(), logs: logs, adminKey: adminKey, viewerKey: viewerKey}
}

func (s *testServer) do(t *testing.T, method, path, key string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	var out map[string]any
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	}
	return rr, out
}

func (s *testServer) errorLogs() int {
	return s.logs.FilterMessage("request failed").Len()
}

func lineUserID(n int) string {
	return fmt.Sprintf("U%032x", n)
}

func (s *testServer) createClient(t *testing.T) string {
	t.Helper()
	rr, body := s.do(t, http.MethodPost, "/api/v1/clients", s.adminKey, map[string]string{"name": "Somchai", "phone": "+66812345678"})
	require.Equal(t, http.StatusCreated, rr.Code, body)
	return body["data"].(map[string]any)["id"].(string)
}

func (s *testServer) issueCode(t *testing.T, clientID string) string {
	t.Helper()
	rr, body := s.do(t, http.MethodPost, "/api/v1/clients/"+clientID+"/connect-codes", s.adminKey, nil)
	require.Equal(t, http.StatusCreated, rr.Code, body)
	return body["data"].(map[string]any)["code"].(string)
}

func TestServer_HealthCheck(t *testing.T) {
	s := newTestServer(t)

	rr, body := s.do(t, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"status": "ok"}, body["data"])
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))
	assert.Zero(t, s.errorLogs())
}

func TestServer_TransportErrors(t *testing.T) {
	s := newTestServer(t)

	rr, body := s.do(t, http.MethodGet, "/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "HTTP_EXCEPTION", body["code"])
	assert.Equal(t, false, body["success"])

	rr, body = s.do(t, http.MethodDelete, "/healthz", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "HTTP_EXCEPTION", body["code"])

	assert.Equal(t, 2, s.errorLogs())
}

func TestServer_AdminAuth(t *testing.T) {
	s := newTestServer(t)

	rr, body := s.do(t, http.MethodGet, "/api/v1/clients", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "MISSING_API_KEY", body["code"])

	rr, body = s.do(t, http.MethodGet, "/api/v1/clients", "sk_"+fmt.Sprintf("%048x", 1), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "INVALID_API_KEY", body["code"])

	rr, body = s.do(t, http.MethodPost, "/api/v1/clients", s.viewerKey, map[string]string{"name": "x", "phone": "+66812345678"})
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "FORBIDDEN", body["code"])

	rr, _ = s.do(t, http.MethodGet, "/api/v1/clients", s.viewerKey, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	assert.Equal(t, 3, s.errorLogs())
}

func TestServer_ClientLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.createClient(t)

	rr, body := s.do(t, http.MethodGet, "/api/v1/clients/"+id, s.adminKey, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Somchai", body["data"].(map[string]any)["name"])

	s.createClient(t)
	rr, body = s.do(t, http.MethodGet, "/api/v1/clients?limit=1", s.adminKey, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page := body["data"].(map[string]any)
	assert.EqualValues(t, 2, page["total"])
	assert.EqualValues(t, 1, page["limit"])
	assert.Len(t, page["items"], 1)

	rr, body = s.do(t, http.MethodGet, "/api/v1/clients/missing", s.adminKey, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", body["code"])
	assert.Equal(t, map[string]any{"resource": "client"}, body["details"])

	rr, body = s.do(t, http.MethodGet, "/api/v1/clients?page=0&limit=1000", s.adminKey, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Len(t, body["details"], 2)
}

func TestServer_CreateClientValidation(t *testing.T) {
	s := newTestServer(t)

	rr, body := s.do(t, http.MethodPost, "/api/v1/clients", s.adminKey, map[string]string{"name": "", "phone": "12"})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, "Validation failed", body["message"])
	assert.Equal(t, []any{
		map[string]any{"path": "name", "message": "is required"},
		map[string]any{"path": "phone", "message": "must be a valid E.164 phone number"},
	}, body["details"])
	assert.Equal(t, 1, s.errorLogs())
}

func TestServer_ConnectFlow(t *testing.T) {
	s := newTestServer(t)
	id := s.createClient(t)
	code := s.issueCode(t, id)

	rr, body := s.do(t, http.MethodPost, "/api/v1/connect", "", map[string]string{"code": code, "lineUserId": lineUserID(1)})
	require.Equal(t, http.StatusOK, rr.Code, body)
	assert.Equal(t, "Connected", body["message"])
	assert.Equal(t, lineUserID(1), body["data"].(map[string]any)["lineUserId"])

	rr, body = s.do(t, http.MethodPost, "/api/v1/connect", "", map[string]string{"code": code, "lineUserId": lineUserID(2)})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "RESOURCE_ALREADY_USED", body["code"])
	assert.Equal(t, map[string]any{"resource": "connect_code"}, body["details"])

	rr, body = s.do(t, http.MethodPost, "/api/v1/clients/"+id+"/connect-codes", s.adminKey, nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "DUPLICATE_ASSOCIATION", body["code"])

	other := s.createClient(t)
	otherCode := s.issueCode(t, other)
	rr, body = s.do(t, http.MethodPost, "/api/v1/connect", "", map[string]string{"code": otherCode, "lineUserId": lineUserID(1)})
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "DUPLICATE_ASSOCIATION", body["code"])

	rr, body = s.do(t, http.MethodPost, "/api/v1/connect", "", map[string]string{"code": "ZZZZ9999", "lineUserId": lineUserID(3)})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "RESOURCE_NOT_FOUND", body["code"])

	rr, body = s.do(t, http.MethodPost, "/api/v1/connect", "", map[string]string{"code": "", "lineUserId": "nope"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Len(t, body["details"], 2)

	assert.Equal(t, 5, s.errorLogs())
}

func TestServer_ConnectCodeIsCaseInsensitive(t *testing.T) {
	s := newTestServer(t)
	code := s.issueCode(t, s.createClient(t))

	rr, body := s.do(t, http.MethodPost, "/api/v1/connect", "", map[string]string{"code": strings.ToLower(code), "lineUserId": lineUserID(1)})
	assert.Equal(t, http.StatusOK, rr.Code, body)
}

func TestServer_ConnectRateLimited(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.ConnectCode.RedeemPerMinute = 2
		c.ConnectCode.RedeemBurst = 2
	})

	for i := 0; i < 2; i++ {
		rr, _ := s.do(t, http.MethodPost, "/api/v1/connect", "", map[string]string{"code": "ZZZZ9999", "lineUserId": lineUserID(1)})
		require.Equal(t, http.StatusBadRequest, rr.Code)
	}

	rr, body := s.do(t, http.MethodPost, "/api/v1/connect", "", map[string]string{"code": "ZZZZ9999", "lineUserId": lineUserID(1)})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["code"])
	retry := body["details"].(map[string]any)["retryAfter"].(float64)
	assert.InDelta(t, 30, retry, 1)
	assert.Equal(t, fmt.Sprint(int(retry)), rr.Header().Get("Retry-After"))

	rr, _ = s.do(t, http.MethodPost, "/api/v1/connect", "", map[string]string{"code": "ZZZZ9999", "lineUserId": lineUserID(2)})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "other LINE accounts are not limited")

	assert.Equal(t, 4, s.errorLogs())
}

func TestServer_Preflight(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Server.AllowedOrigins = []string{"https://liff.line.me"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/connect", nil)
	req.Header.Set("Origin", "https://liff.line.me")
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://liff.line.me", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Zero(t, s.errorLogs())
}

func TestServer_TimestampOption(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) { c.Errors.IncludeTimestamp = true })

	_, body := s.do(t, http.MethodGet, "/does-not-exist", "", nil)
	assert.NotEmpty(t, body["timestamp"])
}
