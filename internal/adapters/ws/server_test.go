package ws

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"subastas-service/internal/adapters/memory"
	"subastas-service/internal/app"
	"subastas-service/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubImageHost struct {
	url string
	err error
}

func (s *stubImageHost) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	return s.url, s.err
}

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store, *fakeBroadcaster) {
	t.Helper()

	store := memory.NewStore()
	bc := newFakeBroadcaster()
	cfg := &config.Config{
		Server: config.ServerConfig{Port: "0"},
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-not-for-production",
			SessionTTLHours: 24,
		},
		WebSocket: config.WebSocketConfig{ReadBufferSize: 1024, WriteBufferSize: 1024},
	}

	authService := app.NewAuthService(app.AuthServiceParams{
		UserRepo:     store.UserRepo(),
		SessionStore: store.SessionStore(),
		Config:       cfg,
		Logger:       zerolog.Nop(),
	})

	server := NewServer(ServerParams{
		Config:      cfg,
		AuthService: authService,
		Broadcaster: bc,
		ImageHost:   &stubImageHost{url: "https://i.ibb.co/abc/img.jpg"},
		Logger:      zerolog.Nop(),
	})

	ts := httptest.NewServer(server.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, store, bc
}

func postJSON(t *testing.T, url string, body interface{}, token string) *http.Response {
	t.Helper()

	encoded, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(encoded))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestAccountLifecycleOverHTTP(t *testing.T) {
	ts, _, _ := newTestServer(t)

	// Register
	resp := postJSON(t, ts.URL+"/auth/register", map[string]string{
		"email":        "ana@subastas.ar",
		"password":     "secreto1",
		"display_name": "Ana",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	registered := decodeBody(t, resp)
	user := registered["user"].(map[string]interface{})
	assert.Equal(t, "user", user["role"])
	// The password hash never leaves the server
	assert.NotContains(t, user, "password_hash")

	// Duplicate email
	resp = postJSON(t, ts.URL+"/auth/register", map[string]string{
		"email":    "ana@subastas.ar",
		"password": "secreto2",
	}, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Login
	resp = postJSON(t, ts.URL+"/auth/login", map[string]string{
		"email":    "ana@subastas.ar",
		"password": "secreto1",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decodeBody(t, resp)
	token := login["token"].(string)
	require.NotEmpty(t, token)

	// Profile
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/profile", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	profileResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, profileResp.StatusCode)
	profile := decodeBody(t, profileResp)
	assert.Equal(t, "Ana", profile["user"].(map[string]interface{})["display_name"])

	// Logout, then the token stops working
	resp = postJSON(t, ts.URL+"/auth/logout", struct{}{}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/auth/profile", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	deadResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, deadResp.StatusCode)
	deadResp.Body.Close()
}

func TestLoginWrongPasswordOverHTTP(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/auth/register", map[string]string{
		"email":    "ana@subastas.ar",
		"password": "secreto1",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/auth/login", map[string]string{
		"email":    "ana@subastas.ar",
		"password": "equivocada",
	}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestImageUploadRequiresAuth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Post(ts.URL+"/images", "multipart/form-data", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketUpgradeRequiresToken(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
