package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/bootstrap"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/config"
	httpHandlers "github.com/ANIKETSHETTY47/hydro-systems-backend/internal/http"
	"github.com/ANIKETSHETTY47/hydro-systems-backend/internal/logging"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Setup(config.LogLevel(), config.LogFormat(), "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.Build(ctx, true)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer rt.Close()

	app := httpHandlers.NewApp(rt.Services, httpHandlers.Options{CORSOrigins: config.CORSOrigins()})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", config.APIAddr()).Msg("api listening")
		errCh <- app.Listen(config.APIAddr())
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server exit")
			rt.Close()
			os.Exit(1)
		}
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
}
