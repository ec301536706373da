package wstransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"vaccine-escape/internal/changefeed"
	"vaccine-escape/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// incomingMessage is what a game tab sends over the socket. The feed
// is otherwise one-way; everything else goes through the JSON API.
type incomingMessage struct {
	Type string `json:"type"`
	Body string `json:"body,omitempty"`
}

// FeedHandler upgrades a game tab onto the live change feed. The
// socket doubles as the presence channel: attaching connects the
// player, pongs and heartbeat frames refresh last_seen, and a dropped
// socket disconnects them.
func FeedHandler(coord *session.Coordinator, feed *changefeed.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		playerID := r.URL.Query().Get("player_id")
		if playerID == "" {
			http.Error(w, "player_id required", http.StatusBadRequest)
			return
		}
		if _, err := coord.Snapshot(r.Context(), code); err != nil {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Str("session", code).Msg("websocket upgrade failed")
			return
		}

		if err := coord.Connect(r.Context(), playerID); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
				time.Now().Add(writeWait))
			conn.Close()
			return
		}

		sub := feed.Subscribe(code)
		done := make(chan struct{})
		go writePump(conn, sub, done)
		readPump(conn, coord, code, playerID)
		close(done)
		sub.Close()
	}
}

func readPump(conn *websocket.Conn, coord *session.Coordinator, code, playerID string) {
	defer func() {
		conn.Close()
		// The socket vanishing is the disconnect signal; teardown of an
		// emptied session rides on this.
		if err := coord.Disconnect(context.Background(), playerID); err != nil {
			log.Warn().Err(err).Str("player", playerID).Msg("disconnect on socket close failed")
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		_ = coord.Heartbeat(context.Background(), playerID)
		return nil
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("player", playerID).Msg("websocket read ended")
			}
			return
		}
		var msg incomingMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "heartbeat":
			_ = coord.Heartbeat(context.Background(), playerID)
		case "chat":
			if _, err := coord.PostMessage(context.Background(), code, playerID, msg.Body); err != nil {
				log.Debug().Err(err).Str("player", playerID).Msg("chat over socket rejected")
			}
		}
	}
}

func writePump(conn *websocket.Conn, sub *changefeed.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-sub.Events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
