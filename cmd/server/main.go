package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"

	"chat-server/internal/config"
	"chat-server/internal/infrastructure/database"
	_ "chat-server/internal/infrastructure/database/dbschema"
	"chat-server/internal/infrastructure/database/repository/messagerepo"
	"chat-server/internal/infrastructure/database/repository/profilerepo"
	"chat-server/internal/infrastructure/database/repository/sessionrepo"
	"chat-server/internal/infrastructure/logger"
	"chat-server/internal/infrastructure/observability"
	"chat-server/internal/interfaces/httpserver"
	"chat-server/internal/interfaces/httpserver/handlers/chathandler"
	"chat-server/internal/interfaces/httpserver/handlers/profilehandler"
	"chat-server/internal/interfaces/httpserver/handlers/sessionhandler"
	chatroute "chat-server/internal/interfaces/httpserver/routes/v1/chat"
	profileroute "chat-server/internal/interfaces/httpserver/routes/v1/profile"
	sessionroute "chat-server/internal/interfaces/httpserver/routes/v1/sessions"
	"chat-server/internal/utils/httpclients/llm"
)

func main() {
	ctx := context.Background()

	bootLog := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		bootLog.Fatal().Err(err).Msg("configure logger")
	}

	otelShutdown, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("initialize observability")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("shutdown telemetry")
			}
		}()
	}

	db, err := database.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("run migrations")
		}
	}

	restyClient := resty.New().SetTimeout(cfg.UpstreamTimeout)
	llmClient := llm.NewClient(restyClient, llm.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		Model:   cfg.Model,
		Referer: cfg.SiteURL,
		Title:   cfg.SiteTitle,
	})

	messages := messagerepo.NewMessageGormRepository(db)
	sessions := sessionrepo.NewSessionGormRepository(db)
	profiles := profilerepo.NewProfileGormRepository(db)

	server := httpserver.NewHTTPServer(
		chatroute.NewChatRoute(chathandler.NewChatHandler(messages, sessions, llmClient, log)),
		sessionroute.NewSessionRoute(sessionhandler.NewSessionHandler(sessions, messages, log)),
		profileroute.NewProfileRoute(profilehandler.NewProfileHandler(profiles, log)),
		cfg,
		db,
		log,
	)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	var eg errgroup.Group
	eg.Go(func() error {
		log.Info().Int("port", cfg.MetricsPort).Msg("metrics server listening")
		return http.ListenAndServe(fmt.Sprintf(":%d", cfg.MetricsPort), metricsMux)
	})
	eg.Go(func() error {
		log.Info().Int("port", cfg.HTTPPort).Msg("http server listening")
		return server.Run()
	})
	if err := eg.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
