package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"xtream-gateway/pkg/config"
	"xtream-gateway/pkg/session"
)

func testConfig() *config.Config {
	return &config.Config{
		ListenAddr:         ":0",
		SessionTTL:         time.Hour,
		SweepInterval:      time.Minute,
		UpstreamTimeout:    5 * time.Second,
		ListingCacheTTL:    time.Hour,
		GenerateRatePerMin: 1000,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, store *session.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv, err := New(cfg, store)
	if err != nil {
		t.Fatalf("Failed to build server: %v", err)
	}

	router := gin.New()
	srv.routes(router)
	return router
}

// newPanel builds a fake provider answering player_api.php by action
// and serving stream paths verbatim.
func newPanel(t *testing.T, actions map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/player_api.php" {
			body, ok := actions[r.URL.Query().Get("action")]
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, body)
			return
		}
		http.NotFound(w, r)
	}))
}

func postGenerate(router *gin.Engine, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/generate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestGenerateSuccess(t *testing.T) {
	panel := newPanel(t, map[string]string{
		"get_user_info":    `{"user_info":{},"server_info":{}}`,
		"get_live_streams": `[{"name":"CH1","stream_id":10}]`,
	})
	defer panel.Close()

	store := session.NewStore(time.Hour)
	router := newTestRouter(t, testConfig(), store)

	w := postGenerate(router, fmt.Sprintf(
		`{"server_url":%q,"username":"u","password":"p","content_type":"live"}`, panel.URL+"/"))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success      bool   `json:"success"`
		SessionToken string `json:"sessionToken"`
		ChannelCount int    `json:"channelCount"`
		Channels     []struct {
			Name     string `json:"name"`
			StreamID int    `json:"stream_id"`
			Type     string `json:"type"`
			URL      string `json:"url"`
		} `json:"channels"`
		M3UPlaylist string    `json:"m3uPlaylist"`
		ExpiresAt   time.Time `json:"expiresAt"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if !resp.Success {
		t.Error("Expected success true")
	}
	if resp.ChannelCount != 1 || len(resp.Channels) != 1 {
		t.Fatalf("Expected 1 channel, got count=%d len=%d", resp.ChannelCount, len(resp.Channels))
	}

	ch := resp.Channels[0]
	if ch.Name != "CH1" || ch.StreamID != 10 || ch.Type != "live" {
		t.Errorf("Unexpected channel: %+v", ch)
	}
	if !strings.Contains(ch.URL, "/10.m3u8?token="+resp.SessionToken) || !strings.Contains(ch.URL, "&type=live") {
		t.Errorf("Unexpected proxy URL: %s", ch.URL)
	}

	if !strings.HasPrefix(resp.M3UPlaylist, "#EXTM3U\n") {
		t.Errorf("Expected extended-M3U document, got %q", resp.M3UPlaylist)
	}

	// The minted token resolves to the submitted credentials.
	creds, err := store.Resolve(resp.SessionToken)
	if err != nil {
		t.Fatalf("Minted token does not resolve: %v", err)
	}
	if creds.ServerURL != panel.URL {
		t.Errorf("Expected normalized server URL %q, got %q", panel.URL, creds.ServerURL)
	}

	if until := time.Until(resp.ExpiresAt); until < 59*time.Minute || until > 61*time.Minute {
		t.Errorf("Expected expiry about an hour away, got %v", until)
	}
}

func TestGenerateBadRequest(t *testing.T) {
	store := session.NewStore(time.Hour)
	router := newTestRouter(t, testConfig(), store)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing password", `{"server_url":"http://x.com","username":"u","content_type":"live"}`},
		{"missing server_url", `{"username":"u","password":"p","content_type":"live"}`},
		{"invalid content_type", `{"server_url":"http://x.com","username":"u","password":"p","content_type":"series"}`},
		{"malformed JSON", `{"server_url":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postGenerate(router, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}

	if store.Len() != 0 {
		t.Errorf("Expected no sessions minted, got %d", store.Len())
	}
}

func TestGenerateInvalidCredentials(t *testing.T) {
	panel := newPanel(t, map[string]string{
		"get_user_info": `{}`,
	})
	defer panel.Close()

	store := session.NewStore(time.Hour)
	router := newTestRouter(t, testConfig(), store)

	w := postGenerate(router, fmt.Sprintf(
		`{"server_url":%q,"username":"u","password":"p","content_type":"live"}`, panel.URL))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid credentials or server response") {
		t.Errorf("Unexpected error body: %s", w.Body.String())
	}
	if store.Len() != 0 {
		t.Errorf("Expected no session for rejected credentials, got %d", store.Len())
	}
}

func TestGenerateNoChannels(t *testing.T) {
	panel := newPanel(t, map[string]string{
		"get_user_info":    `{"user_info":{},"server_info":{}}`,
		"get_live_streams": `[]`,
		"get_vod_streams":  `[]`,
	})
	defer panel.Close()

	store := session.NewStore(time.Hour)
	router := newTestRouter(t, testConfig(), store)

	w := postGenerate(router, fmt.Sprintf(
		`{"server_url":%q,"username":"u","password":"p","content_type":"both"}`, panel.URL))

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "No channels found") {
		t.Errorf("Unexpected error body: %s", w.Body.String())
	}
	if store.Len() != 0 {
		t.Errorf("Expected no session when no channels found, got %d", store.Len())
	}
}

func TestGeneratePartialListingFailure(t *testing.T) {
	// Live query fails at transport level, VOD succeeds: the response
	// carries only the movie entries.
	panel := newPanel(t, map[string]string{
		"get_user_info":   `{"user_info":{},"server_info":{}}`,
		"get_vod_streams": `[{"name":"M1","stream_id":100},{"name":"M2","stream_id":101}]`,
	})
	defer panel.Close()

	store := session.NewStore(time.Hour)
	router := newTestRouter(t, testConfig(), store)

	w := postGenerate(router, fmt.Sprintf(
		`{"server_url":%q,"username":"u","password":"p","content_type":"both"}`, panel.URL))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		ChannelCount int `json:"channelCount"`
		Channels     []struct {
			Type string `json:"type"`
		} `json:"channels"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.ChannelCount != 2 {
		t.Errorf("Expected 2 channels, got %d", resp.ChannelCount)
	}
	for _, ch := range resp.Channels {
		if ch.Type != "movie" {
			t.Errorf("Expected only movie entries, got %s", ch.Type)
		}
	}
}

func TestServerCloseWithoutCache(t *testing.T) {
	srv, err := New(testConfig(), session.NewStore(time.Hour))
	if err != nil {
		t.Fatalf("Failed to build server: %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Errorf("Expected Close on a cacheless server to succeed, got %v", err)
	}
}

func TestGenerateRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.GenerateRatePerMin = 2

	store := session.NewStore(time.Hour)
	router := newTestRouter(t, cfg, store)

	// Burst equals the per-minute budget; requests beyond it are
	// rejected before any body validation happens.
	for i := 0; i < 2; i++ {
		if w := postGenerate(router, `{}`); w.Code != http.StatusBadRequest {
			t.Fatalf("Request %d: expected 400, got %d", i, w.Code)
		}
	}

	w := postGenerate(router, `{}`)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", w.Code)
	}
}
