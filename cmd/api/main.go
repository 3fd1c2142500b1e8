package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/stripe/stripe-go/v82"

	"server/internal/adapter/repo"
	"server/internal/auth"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/payments"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	stripe.Key = cfg.StripeSecretKey

	runner := infra.NewSQLRunner(dbpool, logger)
	users := repo.NewUserRepository(runner)
	donations := repo.NewDonationRepository(runner)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	authSvc := auth.NewService(users, tokens, logger)
	checkout := payments.NewCheckoutService(payments.StripeSessionCreator{}, cfg.CheckoutProductName, cfg.CheckoutCurrency, cfg.UpstreamTimeout, logger)
	webhooks := payments.NewWebhookService(donations, cfg.StripeWebhookSecret, cfg.UpstreamTimeout, logger)

	app := &handlers.App{
		Logger:    logger,
		Auth:      authSvc,
		Checkout:  checkout,
		Webhooks:  webhooks,
		Donations: donations,
	}

	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
