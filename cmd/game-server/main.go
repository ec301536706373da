package main

import (
	"context"
	"net/http"
	"time"

	"vaccine-escape/internal/changefeed"
	"vaccine-escape/internal/config"
	"vaccine-escape/internal/game"
	"vaccine-escape/internal/logging"
	"vaccine-escape/internal/session"
	"vaccine-escape/internal/store"
	httptransport "vaccine-escape/internal/transport/http"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	st, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	ctx := context.Background()
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := st.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	feed := changefeed.NewBroker(cfg.Game.FeedBufferSize)
	coord := session.NewCoordinator(st, feed, cfg.Game, game.DefaultContent())
	coord.StartReaper(ctx, cfg.Game.ReaperInterval)

	r := httptransport.NewRouter(coord, feed, cfg.Server)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
