package httptransport

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"vaccine-escape/internal/changefeed"
	"vaccine-escape/internal/config"
	"vaccine-escape/internal/session"
	wstransport "vaccine-escape/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

func NewRouter(coord *session.Coordinator, feed *changefeed.Broker, cfg config.ServerConfig) *chi.Mux {
	h := NewHandlers(coord)
	limiter := NewRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", h.Health())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Use(limiter.Middleware)

		r.Post("/sessions", h.CreateSession())
		r.Route("/sessions/{code}", func(r chi.Router) {
			r.Get("/", h.Snapshot())
			r.Delete("/", h.CloseSession())
			r.Post("/join", h.JoinSession())
			r.Post("/start", h.StartSession())
			r.Post("/solve", h.SolvePuzzle())
			r.Post("/items", h.AddItem())
			r.Delete("/items/{item_id}", h.RemoveItem())
			r.Post("/timer/toggle", h.ToggleTimer())
			r.Post("/door", h.EnterDoorCode())
			r.Post("/hints/use", h.UseHint())
			r.Post("/chat", h.PostMessage())
			r.Post("/heartbeat", h.Heartbeat())
			r.Post("/disconnect", h.Disconnect())
			r.Get("/events", EventsSSEHandler(coord, feed))
			r.Get("/ws", wstransport.FeedHandler(coord, feed))
		})
	})

	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 32)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("walk routes failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Registered routes (%d):\n", len(routes)))
	for _, rt := range routes {
		b.WriteString(fmt.Sprintf("  %-6s %s\n", rt.Method, rt.Path))
	}
	fmt.Print(b.String())
}
