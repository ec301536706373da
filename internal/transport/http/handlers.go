package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	"vaccine-escape/internal/game"
	"vaccine-escape/internal/session"

	"github.com/go-chi/chi/v5"
)

// Handlers exposes the coordinator over the JSON API. Every response
// body is an object; errors are {"error":"snake_case_code"}.
type Handlers struct {
	coord *session.Coordinator
}

func NewHandlers(coord *session.Coordinator) *Handlers {
	return &Handlers{coord: coord}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErr(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]any{"error": code})
}

// mapErr turns a coordinator sentinel into a status; the error text
// doubles as the wire code.
func mapErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrPlayerNotFound):
		status, code = http.StatusNotFound, err.Error()
	case errors.Is(err, session.ErrPseudoTaken),
		errors.Is(err, session.ErrSessionEnded),
		errors.Is(err, session.ErrWriteConflict):
		status, code = http.StatusConflict, err.Error()
	case errors.Is(err, session.ErrNotHost):
		status, code = http.StatusForbidden, err.Error()
	case errors.Is(err, session.ErrInvalidPseudo),
		errors.Is(err, session.ErrUnknownPuzzle),
		errors.Is(err, session.ErrInvalidItem),
		errors.Is(err, session.ErrDoorUnavailable),
		errors.Is(err, session.ErrWrongDoorCode),
		errors.Is(err, session.ErrHintLimit),
		errors.Is(err, session.ErrEmptyMessage):
		status, code = http.StatusBadRequest, err.Error()
	}
	writeErr(w, status, code)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}

type createSessionRequest struct {
	Pseudo   string `json:"pseudo"`
	PlayerID string `json:"player_id"`
}

type sessionResponse struct {
	Code     string                  `json:"code"`
	Revision int64                   `json:"revision"`
	State    game.SessionState       `json:"state"`
	Player   *session.PlayerPayload  `json:"player,omitempty"`
	Players  []session.PlayerPayload `json:"players,omitempty"`
	Chat     []session.ChatPayload   `json:"chat,omitempty"`
}

func (h *Handlers) CreateSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		res, err := h.coord.CreateSession(r.Context(), req.Pseudo, req.PlayerID)
		if err != nil {
			mapErr(w, err)
			return
		}
		player := session.NewPlayerPayload(res.Player)
		writeJSON(w, http.StatusCreated, sessionResponse{
			Code:   res.Code,
			State:  res.State,
			Player: &player,
		})
	}
}

func (h *Handlers) JoinSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := h.coord.JoinSession(r.Context(), chi.URLParam(r, "code"), req.Pseudo, req.PlayerID)
		if err != nil {
			mapErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"player": session.NewPlayerPayload(*p)})
	}
}

// Snapshot is the whole initial screen in one read: state, roster and
// the recent chat backlog.
func (h *Handlers) Snapshot() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.coord.Snapshot(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			mapErr(w, err)
			return
		}
		players := make([]session.PlayerPayload, 0, len(snap.Players))
		for _, p := range snap.Players {
			players = append(players, session.NewPlayerPayload(p))
		}
		chat := make([]session.ChatPayload, 0, len(snap.Chat))
		for _, m := range snap.Chat {
			chat = append(chat, session.NewChatPayload(m))
		}
		writeJSON(w, http.StatusOK, sessionResponse{
			Code:     snap.Code,
			Revision: snap.Revision,
			State:    snap.State,
			Players:  players,
			Chat:     chat,
		})
	}
}

type playerRequest struct {
	PlayerID string `json:"player_id"`
}

func (h *Handlers) StartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := h.coord.StartSession(r.Context(), chi.URLParam(r, "code"), req.PlayerID); err != nil {
			mapErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *Handlers) SolvePuzzle() http.HandlerFunc {
	type solveRequest struct {
		PuzzleID string `json:"puzzle_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req solveRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		out, err := h.coord.SolvePuzzle(r.Context(), chi.URLParam(r, "code"), req.PuzzleID)
		if err != nil {
			mapErr(w, err)
			return
		}
		body := map[string]any{
			"already":       out.Already,
			"door_revealed": out.DoorRevealed,
		}
		if out.NewHintID != "" {
			body["new_hint_id"] = out.NewHintID
			body["new_hint_text"] = out.NewHintText
		}
		if out.DoorRevealed {
			body["door_zone"] = out.DoorZone.Key()
		}
		if out.Reward != nil {
			body["reward"] = out.Reward
		}
		writeJSON(w, http.StatusOK, body)
	}
}

func (h *Handlers) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var item game.Item
		if !decodeJSON(w, r, &item) {
			return
		}
		added, err := h.coord.AddItem(r.Context(), chi.URLParam(r, "code"), item)
		if err != nil {
			mapErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"added": added})
	}
}

func (h *Handlers) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		removed, err := h.coord.RemoveItem(r.Context(), chi.URLParam(r, "code"), chi.URLParam(r, "item_id"))
		if err != nil {
			mapErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"removed": removed})
	}
}

func (h *Handlers) ToggleTimer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		running, err := h.coord.ToggleTimer(r.Context(), chi.URLParam(r, "code"), req.PlayerID)
		if err != nil {
			mapErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"running": running})
	}
}

func (h *Handlers) EnterDoorCode() http.HandlerFunc {
	type doorRequest struct {
		Zone string `json:"zone"`
		Code string `json:"code"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req doorRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		zone, ok := game.ZoneFromKey(req.Zone)
		if !ok {
			writeErr(w, http.StatusBadRequest, "unknown_zone")
			return
		}
		res, err := h.coord.EnterDoorCode(r.Context(), chi.URLParam(r, "code"), zone, req.Code)
		if err != nil {
			mapErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"unlocked": res.Unlocked, "completed": res.Completed})
	}
}

func (h *Handlers) UseHint() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		used, err := h.coord.UseHint(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			mapErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"hints_used": used})
	}
}

func (h *Handlers) PostMessage() http.HandlerFunc {
	type chatRequest struct {
		PlayerID string `json:"player_id"`
		Body     string `json:"body"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		m, err := h.coord.PostMessage(r.Context(), chi.URLParam(r, "code"), req.PlayerID, req.Body)
		if err != nil {
			mapErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, session.NewChatPayload(*m))
	}
}

func (h *Handlers) Heartbeat() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if err := h.coord.Heartbeat(r.Context(), req.PlayerID); err != nil {
			mapErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// Disconnect is the sendBeacon target of a closing tab; the body may
// arrive as a blob, so the player id is also accepted in the query.
func (h *Handlers) Disconnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req playerRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.PlayerID == "" {
			req.PlayerID = r.URL.Query().Get("player_id")
		}
		if req.PlayerID == "" {
			writeErr(w, http.StatusBadRequest, "player_not_found")
			return
		}
		if err := h.coord.Disconnect(r.Context(), req.PlayerID); err != nil {
			mapErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *Handlers) CloseSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := r.URL.Query().Get("player_id")
		if err := h.coord.CloseSession(r.Context(), chi.URLParam(r, "code"), playerID); err != nil {
			mapErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

func (h *Handlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}
