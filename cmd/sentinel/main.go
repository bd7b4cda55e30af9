package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/xKrishnaSaxena/Sentinel/internal/config"
	"github.com/xKrishnaSaxena/Sentinel/internal/feed"
	"github.com/xKrishnaSaxena/Sentinel/internal/gemini"
	"github.com/xKrishnaSaxena/Sentinel/internal/intent"
	"github.com/xKrishnaSaxena/Sentinel/internal/notify"
	"github.com/xKrishnaSaxena/Sentinel/internal/poller"
	"github.com/xKrishnaSaxena/Sentinel/internal/sentiment"
	"github.com/xKrishnaSaxena/Sentinel/internal/store"
	"github.com/xKrishnaSaxena/Sentinel/internal/store/postgres"
	"github.com/xKrishnaSaxena/Sentinel/internal/store/sqlite"
	"github.com/xKrishnaSaxena/Sentinel/internal/webhook"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := openStore(cfg)
	if err != nil {
		// The store is the only fatal dependency; everything else is
		// retried per call.
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer st.Close()

	llm := gemini.NewClient(cfg.GoogleAPIKey, cfg.GeminiModel)
	analyst := sentiment.NewAnalyst(llm)
	resolver := intent.NewResolver(llm)
	feedClient := feed.NewClient(time.Duration(cfg.FetchTimeout) * time.Second)
	twilio := notify.NewTwilio(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom)

	interval := time.Duration(cfg.PollInterval) * time.Second
	p := poller.New(st, feedClient, analyst, twilio, interval,
		log.With().Str("comp", "poller").Logger())
	h := webhook.NewHandler(st, resolver, interval,
		log.With().Str("comp", "webhook").Logger())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: h.Router(),
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("addr", cfg.ListenAddr).Msg("webhook listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("webhook server failed")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("webhook shutdown failed")
	}

	wg.Wait()
	log.Info().Msg("shutdown complete")
}

// openStore picks the driver: postgres when DATABASE_URL is set, a local
// sqlite file otherwise.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.DatabaseURL != "" {
		return postgres.New(cfg.DatabaseURL)
	}
	return sqlite.New(cfg.SQLitePath)
}
