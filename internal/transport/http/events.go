package httptransport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"vaccine-escape/internal/changefeed"
	"vaccine-escape/internal/session"

	"github.com/go-chi/chi/v5"
)

var ssePingInterval = 15 * time.Second

// EventsSSEHandler streams a session's change feed. A reconnecting
// client sends Last-Event-ID and gets the retained gap replayed before
// going live.
func EventsSSEHandler(coord *session.Coordinator, feed *changefeed.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		if _, err := coord.Snapshot(r.Context(), code); err != nil {
			mapErr(w, err)
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeErr(w, http.StatusInternalServerError, "stream_not_supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		for _, ev := range feed.ReplayAfter(code, r.Header.Get("Last-Event-ID")) {
			if err := writeSSE(w, ev); err != nil {
				return
			}
		}
		flusher.Flush()

		sub := feed.Subscribe(code)
		defer sub.Close()
		ticker := time.NewTicker(ssePingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev, ok := <-sub.Events:
				if !ok {
					return
				}
				if err := writeSSE(w, ev); err != nil {
					return
				}
				flusher.Flush()
			case <-ticker.C:
				ping := changefeed.Event{
					Kind:        "ping",
					SessionCode: code,
					ServerTS:    time.Now().UnixMilli(),
				}
				if err := writeSSE(w, ping); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, ev changefeed.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if ev.EventID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.EventID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Kind); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
