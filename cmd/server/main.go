package main

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"net/http"
	"tracker/internal/config"
	"tracker/internal/constants"
	fxmodules "tracker/internal/fx"
	"tracker/internal/middleware"
	"tracker/internal/server"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Provide(newHTTPServer),
		fx.Invoke(run),
	).Run()
}

func newHTTPServer(cfg *config.Config, trackerServer *server.TrackerServer, db *sql.DB, logger zerolog.Logger) *http.Server {
	path, handler := trackerServer.Handler()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	mux := http.NewServeMux()
	mux.Handle(path, c.Handler(middleware.RequestID(logger)(middleware.Recover(handler))))
	mux.HandleFunc("GET /healthz", healthz(db))

	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.ServerPort),
		Handler:           mux,
		ReadHeaderTimeout: constants.ExternalAPITimeout,
	}
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), constants.DatabaseTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func run(lc fx.Lifecycle, srv *http.Server, db *sql.DB, logger zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			logger.Info().Str("addr", ln.Addr().String()).Msg("tracker listening")
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			err := srv.Shutdown(ctx)
			if err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
			}
			if cerr := db.Close(); cerr != nil {
				logger.Warn().Err(cerr).Msg("error closing database connection")
			}
			logger.Info().Msg("tracker stopped")
			return err
		},
	})
}
