package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/config"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/credentials"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/database"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/auth"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/ignored"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/session"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/domains/trigger"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/server"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/utils"
	"github.com/gabrielmiguelok/agente-whatsapp-sub001/pkg/whatsapp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func StartApp() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	configs := config.InitConfig()
	utils.LoadEnv()
	database.InitDB(configs.Database)
	db := database.DBClient()

	credStore := credentials.NewStore(configs.Whatsapp.CredentialsRoot)

	triggerService := trigger.NewService(trigger.NewRepo(db))
	if err := triggerService.Reload(context.Background()); err != nil {
		log.Warn().Err(err).Msg("failed to load trigger definitions, starting with none")
	}

	ignoredService := ignored.NewService(ignored.NewRepo(db))

	sessionRepo := session.NewRepo(db)
	registry := session.NewRegistry(
		session.Options{
			StartTimeout:    time.Duration(configs.Whatsapp.StartTimeoutSec) * time.Second,
			StopTimeout:     time.Duration(configs.Whatsapp.StopTimeoutSec) * time.Second,
			ShutdownTimeout: time.Duration(configs.Whatsapp.ShutdownTimeoutSec) * time.Second,
		},
		whatsapp.NewFactory(credStore),
		sessionRepo,
		credStore,
		ignoredService,
		triggerService,
	)
	sessionService := session.NewService(registry, sessionRepo)

	if configs.Whatsapp.PurgeIntervalMin > 0 {
		purgeJob := ignored.NewPurgeJob(ignoredService, time.Duration(configs.Whatsapp.PurgeIntervalMin)*time.Minute)
		purgeJob.Start()
		defer purgeJob.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if defaultSession := configs.Whatsapp.DefaultSession; defaultSession != "" {
		go func() {
			snap, err := registry.Start(ctx, defaultSession)
			if err != nil {
				log.Error().Err(err).Str("session", defaultSession).Msg("failed to start default session")
				return
			}
			log.Info().Str("session", snap.Identity).Str("status", string(snap.State)).Msg("default session started")
		}()
	}

	authService := auth.NewService(auth.NewRepo(db))
	server.LaunchHttpServer(ctx, configs.App, server.Deps{
		Auth:     authService,
		Sessions: sessionService,
		Ignored:  ignoredService,
	})

	registry.ShutdownAll(time.Duration(configs.Whatsapp.ShutdownTimeoutSec) * time.Second)
	log.Info().Msg("shutdown complete")
}
