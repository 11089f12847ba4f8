package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TgFlow/bot/flow"
	"TgFlow/entity"
	"TgFlow/internal/http-server/api"
)

const token = "secret"

type emitCall struct {
	ChatID  int64
	Type    string
	Payload string
}

type fakeHandler struct {
	emitErr    error
	metricsErr error
	emits      []emitCall
}

func (f *fakeHandler) AuthenticateByToken(t string) (string, error) {
	if t != token {
		return "", errors.New("invalid token")
	}
	return "admin", nil
}

func (f *fakeHandler) FlowsInfo() []entity.FlowInfo {
	return []entity.FlowInfo{{
		ID:   "greet",
		Menu: &entity.MenuInfo{Command: "greet", Description: "Say hello"},
		Steps: []entity.StepInfo{
			{Name: "ask", FullName: "greet/ask"},
			{Name: "ask/suspended/text", FullName: "greet/ask/suspended/text", Suspendable: true, Marker: "/suspended/text"},
		},
	}}
}

func (f *fakeHandler) ChatState(_ context.Context, chatID int64) (*flow.ChatState, error) {
	return flow.NewChatState(chatID, "runner"), nil
}

func (f *fakeHandler) EmitEvent(_ context.Context, chatID int64, eventType string, payload json.RawMessage) error {
	if f.emitErr != nil {
		return f.emitErr
	}
	f.emits = append(f.emits, emitCall{ChatID: chatID, Type: eventType, Payload: string(payload)})
	return nil
}

func (f *fakeHandler) EventTypes() []string {
	return []string{"shop.delivered"}
}

func (f *fakeHandler) Metrics() (flow.MetricsSnapshot, error) {
	if f.metricsErr != nil {
		return flow.MetricsSnapshot{}, f.metricsErr
	}
	return flow.MetricsSnapshot{Executions: 3}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, method, path, body string, auth bool) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func newRouter(h *fakeHandler) http.Handler {
	return api.NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), h, nil)
}

func TestAuthentication(t *testing.T) {
	router := newRouter(&fakeHandler{})

	code, env := do(t, router, http.MethodGet, "/api/v1/flows", "", false)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/flows", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/flows", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListFlows(t *testing.T) {
	code, env := do(t, newRouter(&fakeHandler{}), http.MethodGet, "/api/v1/flows", "", true)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)

	var flows []entity.FlowInfo
	require.NoError(t, json.Unmarshal(env.Data, &flows))
	require.Len(t, flows, 1)
	assert.Equal(t, "greet/ask/suspended/text", flows[0].Steps[1].FullName)
}

func TestChatState(t *testing.T) {
	router := newRouter(&fakeHandler{})

	code, env := do(t, router, http.MethodGet, "/api/v1/chats/42/state", "", true)
	require.Equal(t, http.StatusOK, code)
	var state flow.ChatState
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.Equal(t, int64(42), state.ChatID)

	code, env = do(t, router, http.MethodGet, "/api/v1/chats/abc/state", "", true)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Message, "invalid chat id")
}

func TestEmitEvent(t *testing.T) {
	h := &fakeHandler{}
	router := newRouter(h)

	code, _ := do(t, router, http.MethodPost, "/api/v1/chats/7/events",
		`{"type":"shop.delivered","payload":{"product":"tea","tracking":"T1"}}`, true)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, h.emits, 1)
	assert.Equal(t, int64(7), h.emits[0].ChatID)
	assert.Equal(t, "shop.delivered", h.emits[0].Type)
	assert.JSONEq(t, `{"product":"tea","tracking":"T1"}`, h.emits[0].Payload)

	code, _ = do(t, router, http.MethodPost, "/api/v1/chats/7/events", `{"payload":{}}`, true)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, router, http.MethodPost, "/api/v1/chats/7/events", `not json`, true)
	assert.Equal(t, http.StatusBadRequest, code)

	h.emitErr = errors.New("unknown event type")
	code, env := do(t, router, http.MethodPost, "/api/v1/chats/7/events", `{"type":"nope"}`, true)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "unknown event type", env.Message)
}

func TestEventTypesAndMetrics(t *testing.T) {
	h := &fakeHandler{}
	router := newRouter(h)

	code, env := do(t, router, http.MethodGet, "/api/v1/events", "", true)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `["shop.delivered"]`, string(env.Data))

	code, env = do(t, router, http.MethodGet, "/api/v1/metrics", "", true)
	require.Equal(t, http.StatusOK, code)
	var snap flow.MetricsSnapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, int64(3), snap.Executions)

	h.metricsErr = errors.New("not ready")
	code, _ = do(t, router, http.MethodGet, "/api/v1/metrics", "", true)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	router := newRouter(&fakeHandler{})

	code, env := do(t, router, http.MethodGet, "/nope", "", false)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "error", env.Status)

	code, _ = do(t, router, http.MethodDelete, "/api/v1/flows", "", true)
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}
