package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vaccine-escape/internal/changefeed"
	"vaccine-escape/internal/config"
	"vaccine-escape/internal/game"
	"vaccine-escape/internal/session"
	"vaccine-escape/internal/testutil"

	"github.com/go-chi/chi/v5"
)

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		InitialTimerSec:    3600,
		TimerCheckpointSec: 5,
		HeartbeatInterval:  30 * time.Second,
		StaleAfterBeats:    3,
		MaxHints:           3,
		FeedBufferSize:     100,
		WriteRetries:       5,
	}
}

func newTestRouter(t *testing.T) (*chi.Mux, *session.Coordinator, *changefeed.Broker) {
	t.Helper()
	ms := testutil.NewMemStore()
	feed := changefeed.NewBroker(100)
	coord := session.NewCoordinator(ms, feed, testGameConfig(), game.DefaultContent())
	cfg := config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000}
	return NewRouter(coord, feed, cfg), coord, feed
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateJoinSnapshotFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/sessions", map[string]string{"pseudo": "ana"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		Code   string `json:"code"`
		Player struct {
			ID     string `json:"id"`
			IsHost bool   `json:"is_host"`
		} `json:"player"`
		State game.SessionState `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if len(created.Code) != 6 || !created.Player.IsHost {
		t.Fatalf("create response: %+v", created)
	}
	if created.State.Status != game.StatusWaiting {
		t.Fatalf("initial status = %s", created.State.Status)
	}

	w = doJSON(t, router, http.MethodPost, "/api/sessions/"+created.Code+"/join",
		map[string]string{"pseudo": "bob", "player_id": "player-bob"})
	if w.Code != http.StatusOK {
		t.Fatalf("join status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodGet, "/api/sessions/"+created.Code, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot status=%d", w.Code)
	}
	var snap struct {
		Revision int64                   `json:"revision"`
		Players  []session.PlayerPayload `json:"players"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if len(snap.Players) != 2 {
		t.Fatalf("players = %d, want 2", len(snap.Players))
	}
}

func TestErrorMapping(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/sessions", map[string]string{"pseudo": "ana", "player_id": "host-1"})
	var created struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown session", http.MethodGet, "/api/sessions/ZZZZZZ", nil, http.StatusNotFound, "session_not_found"},
		{"taken pseudo", http.MethodPost, "/api/sessions/" + created.Code + "/join",
			map[string]string{"pseudo": "ANA"}, http.StatusConflict, "pseudo_taken"},
		{"non-host start", http.MethodPost, "/api/sessions/" + created.Code + "/start",
			map[string]string{"player_id": "ghost"}, http.StatusForbidden, "not_host"},
		{"unknown puzzle", http.MethodPost, "/api/sessions/" + created.Code + "/solve",
			map[string]string{"puzzle_id": "zone9_bogus"}, http.StatusBadRequest, "unknown_puzzle"},
		{"hidden door", http.MethodPost, "/api/sessions/" + created.Code + "/door",
			map[string]string{"zone": "zone1", "code": "0000"}, http.StatusBadRequest, "door_unavailable"},
		{"bad zone", http.MethodPost, "/api/sessions/" + created.Code + "/door",
			map[string]string{"zone": "zone9", "code": "0000"}, http.StatusBadRequest, "unknown_zone"},
		{"non-host close", http.MethodDelete, "/api/sessions/" + created.Code + "?player_id=ghost",
			nil, http.StatusForbidden, "not_host"},
	}
	for _, tc := range cases {
		w := doJSON(t, router, tc.method, tc.path, tc.body)
		if w.Code != tc.status {
			t.Fatalf("%s: status=%d body=%s, want %d", tc.name, w.Code, w.Body.String(), tc.status)
		}
		var body struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode error body: %v", tc.name, err)
		}
		if body.Error != tc.code {
			t.Fatalf("%s: error code = %q, want %q", tc.name, body.Error, tc.code)
		}
	}
}

func TestSolveAndInventoryEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/sessions", map[string]string{"pseudo": "ana"})
	var created struct {
		Code string `json:"code"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &created)

	w = doJSON(t, router, http.MethodPost, "/api/sessions/"+created.Code+"/solve",
		map[string]string{"puzzle_id": "zone1_caesar"})
	if w.Code != http.StatusOK {
		t.Fatalf("solve status=%d body=%s", w.Code, w.Body.String())
	}
	var solved struct {
		Already   bool   `json:"already"`
		NewHintID string `json:"new_hint_id"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &solved)
	if solved.Already || solved.NewHintID == "" {
		t.Fatalf("solve response: %s", w.Body.String())
	}

	w = doJSON(t, router, http.MethodPost, "/api/sessions/"+created.Code+"/items",
		game.Item{ID: "uv_lamp", Name: "UV lamp"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"added":true`) {
		t.Fatalf("add item: status=%d body=%s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, http.MethodDelete, "/api/sessions/"+created.Code+"/items/uv_lamp", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"removed":true`) {
		t.Fatalf("remove item: status=%d body=%s", w.Code, w.Body.String())
	}
}

func TestRateLimitReturns429(t *testing.T) {
	ms := testutil.NewMemStore()
	feed := changefeed.NewBroker(100)
	coord := session.NewCoordinator(ms, feed, testGameConfig(), game.DefaultContent())
	router := NewRouter(coord, feed, config.ServerConfig{RateLimitPerSec: 0.001, RateLimitBurst: 1})

	first := doJSON(t, router, http.MethodGet, "/api/sessions/ZZZZZZ", nil)
	if first.Code == http.StatusTooManyRequests {
		t.Fatal("first request already throttled")
	}
	second := doJSON(t, router, http.MethodGet, "/api/sessions/ZZZZZZ", nil)
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second status=%d, want 429", second.Code)
	}
	if !strings.Contains(second.Body.String(), "rate_limited") {
		t.Fatalf("throttle body = %s", second.Body.String())
	}

	// Health stays outside the limited group.
	if w := doJSON(t, router, http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Fatalf("healthz status=%d", w.Code)
	}
}

func TestEventsSSEReplaysBacklog(t *testing.T) {
	router, coord, feed := newTestRouter(t)
	ctx := context.Background()

	res, err := coord.CreateSession(ctx, "ana", "host-1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	feed.Publish(changefeed.KindChatMessage, res.Code, 0, map[string]any{"body": "hello"})

	reqCtx, cancel := context.WithCancel(ctx)
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+res.Code+"/events", nil).WithContext(reqCtx)
	req.Header.Set("Accept", "text/event-stream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	body := w.Body.String()
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(body, "event: chat_message") {
		t.Fatalf("backlog not replayed: %s", body)
	}
	if !strings.Contains(body, "id: ") {
		t.Fatalf("events carry no id for Last-Event-ID resume: %s", body)
	}
}

func TestHealthz(t *testing.T) {
	router, _, _ := newTestRouter(t)
	w := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok":true`) {
		t.Fatalf("healthz: status=%d body=%s", w.Code, w.Body.String())
	}
}
