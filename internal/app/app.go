package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/velorun/race-server/internal/auth"
	"github.com/velorun/race-server/internal/config"
	"github.com/velorun/race-server/internal/core"
	transporthttp "github.com/velorun/race-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	lobby           *core.Lobby
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	tokens := auth.NewTokens(auth.TokenConfig{
		Secret: []byte(cfg.TokenSecret),
		Issuer: "race-server",
		TTL:    24 * time.Hour,
	})

	lobby := core.NewLobby(core.LobbyConfig{
		MaxPlayersPerRoom: cfg.MaxPlayersPerRoom,
		ReconnectWindow:   cfg.ReconnectWindow,
		ResetDelay:        cfg.ResetDelay,
	}, tokens, clockwork.NewRealClock(), logger)

	server := transporthttp.NewServer(lobby, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		lobby:           lobby,
		log:             logger,
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.lobby.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}
