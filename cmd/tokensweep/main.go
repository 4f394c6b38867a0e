// Command tokensweep deletes expired and spent verification tokens once and
// exits. It is meant to run from cron alongside or instead of the in-process
// sweep.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/venkatesh-palenso/palenso-api/internal/app"
	"github.com/venkatesh-palenso/palenso-api/internal/config"
	"github.com/venkatesh-palenso/palenso-api/internal/otp"
	"github.com/venkatesh-palenso/palenso-api/internal/repository/postgres"
	"github.com/venkatesh-palenso/palenso-api/internal/service"
	"github.com/venkatesh-palenso/palenso-api/pkg/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("palenso-tokensweep", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, 5*time.Minute)
	defer cancelTimeout()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("token sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pool, err := app.OpenPostgres(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	tokens := service.NewTokenStore(postgres.NewTokenRepository(pool), otp.New(), cfg.OTPLength)
	n, err := app.SweepTokens(ctx, tokens, cfg.TokenSweepRetention, log)
	if err != nil {
		return err
	}
	log.Info("token sweep complete", slog.Int64("deleted", n))
	return nil
}
