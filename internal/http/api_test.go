package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medimate-backend/internal/auth"
	"medimate-backend/internal/events"
	"medimate-backend/internal/repository"
	"medimate-backend/internal/service"
)

type testAPI struct {
	store   *repository.MemoryStore
	tokens  *auth.TokenManager
	hub     *AlertHub
	handler http.Handler
	token   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryStore()

	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	hub := NewAlertHub(nil, logger)
	notifications := service.NewNotificationService(store, nil, nil, logger)
	emergency, err := service.NewEmergencyService(store, nil, notifications, events.Fanout{hub}, 2, logger)
	require.NoError(t, err)
	t.Cleanup(emergency.Release)

	handler := NewHandler(Deps{
		Store:         store,
		Backend:       repository.BackendLocal,
		Tokens:        tokens,
		Auth:          service.NewAuthService(store, tokens, logger),
		Chat:          service.NewChatService(nil, store, logger),
		Emergency:     emergency,
		Caregivers:    service.NewCaregiverService(store, logger),
		Notifications: notifications,
		Hub:           hub,
		Logger:        logger,
	})

	token, err := tokens.Issue(1, "0000000000")
	require.NoError(t, err)

	return &testAPI{store: store, tokens: tokens, hub: hub, handler: handler, token: token}
}

func (a *testAPI) request(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

// do 带默认令牌的请求
func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return a.request(t, method, path, body, a.token)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// mustRegister 注册用户并返回 id
func (a *testAPI) mustRegister(t *testing.T, phone, name, language string) int64 {
	t.Helper()
	rec := a.request(t, http.MethodPost, "/api/auth/register", map[string]any{
		"phone": phone, "name": name, "language": language,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode(t, rec)["user"].(map[string]any)
	return int64(user["id"].(float64))
}
