package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Seldir193/coderr-backend/internal/account"
	"github.com/Seldir193/coderr-backend/internal/auth"
	"github.com/Seldir193/coderr-backend/internal/config"
	"github.com/Seldir193/coderr-backend/internal/db"
	coderrHttp "github.com/Seldir193/coderr-backend/internal/handler/http"
	"github.com/Seldir193/coderr-backend/internal/offer"
	"github.com/Seldir193/coderr-backend/internal/order"
	"github.com/Seldir193/coderr-backend/internal/review"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msg("Starting coderr-backend...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	database, err := db.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	validate := validator.New()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	accountRepo := account.NewRepository(database.Pool)
	offerRepo := offer.NewRepository(database.Pool)
	orderRepo := order.NewRepository(database.Pool)
	reviewRepo := review.NewRepository(database.Pool)

	accountSvc := account.NewService(accountRepo)
	offerSvc := offer.NewService(offerRepo)
	orderSvc := order.NewService(orderRepo, offerRepo, accountRepo)
	reviewSvc := review.NewService(reviewRepo, accountRepo, orderRepo, offerRepo)

	router := coderrHttp.NewRouter(coderrHttp.Handlers{
		Auth:    coderrHttp.NewAuthHandler(accountSvc, tokens, validate),
		Profile: coderrHttp.NewProfileHandler(accountSvc, reviewSvc, validate),
		Offer:   coderrHttp.NewOfferHandler(offerSvc, accountRepo, validate, cfg.Pagination),
		Order:   coderrHttp.NewOrderHandler(orderSvc, validate),
		Review:  coderrHttp.NewReviewHandler(reviewSvc, validate),
		Stats:   coderrHttp.NewStatsHandler(reviewSvc),
	}, tokens, accountSvc)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", cfg.App.Port).Msg("HTTP server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server shutdown failed")
	}

	database.Close()

	log.Info().Msg("Coderr-backend stopped gracefully.")
}
