package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/thealphakenya/Alphaai/pkg/api"
	"github.com/thealphakenya/Alphaai/pkg/backup"
	"github.com/thealphakenya/Alphaai/pkg/chat"
	"github.com/thealphakenya/Alphaai/pkg/common/config"
	"github.com/thealphakenya/Alphaai/pkg/common/database"
	"github.com/thealphakenya/Alphaai/pkg/common/kafka"
	"github.com/thealphakenya/Alphaai/pkg/common/logger"
	"github.com/thealphakenya/Alphaai/pkg/events"
	"github.com/thealphakenya/Alphaai/pkg/media"
	"github.com/thealphakenya/Alphaai/pkg/memory"
	"github.com/thealphakenya/Alphaai/pkg/training"
	"github.com/thealphakenya/Alphaai/pkg/workspace"
)

func main() {
	logger.Init()

	configFile := os.Getenv("CONFIG_FILE")
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}

	bg, stopBackground := context.WithCancel(context.Background())
	var background sync.WaitGroup

	trainingOpts := training.Options{
		ModelDir:         cfg.ModelDir,
		LogsDir:          cfg.LogsDir,
		AcceptThreshold:  cfg.AcceptThreshold,
		RetrainThreshold: cfg.RetrainThreshold,
		DefaultEpochs:    cfg.DefaultEpochs,
		RetrainEpochs:    cfg.RetrainEpochs,
		LearningInterval: cfg.LearningInterval,
		Pacer:            training.SleepPacer{Scale: cfg.StepDelayScale},
		Publisher:        events.LogPublisher{},
	}

	var runs api.RunStore
	if cfg.PostgresEnabled {
		db, err := database.GetPostgres(cfg)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to connect to PostgreSQL")
		}
		repo := training.NewRepository(db)
		if err := repo.AutoMigrate(); err != nil {
			logger.Log.WithError(err).Fatal("Failed to migrate training runs")
		}
		trainingOpts.Recorder = repo
		runs = repo
		defer database.ClosePostgres()
	}

	var publisher *events.KafkaPublisher
	if cfg.KafkaEnabled {
		publisher = events.NewKafkaPublisher(kafka.NewProducer(cfg, events.Source))
		trainingOpts.Publisher = publisher

		if cfg.EventAudit {
			consumer := kafka.NewConsumer(cfg, cfg.TrainingEventsTopic, "")
			background.Add(1)
			go func() {
				defer background.Done()
				defer consumer.Close()
				if err := consumer.Consume(bg, events.Audit()); err != nil && bg.Err() == nil {
					logger.Log.WithError(err).Error("Event audit consumer stopped")
				}
			}()
		}
	}

	coordinator, err := training.NewCoordinator(trainingOpts)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize training coordinator")
	}

	memoryCfg := memory.Config{Dir: cfg.MemoryDir}
	if cfg.RedisEnabled {
		client, err := database.OpenRedis(context.Background(), cfg)
		if err != nil {
			logger.Log.WithError(err).Warn("Redis unavailable, using the in-process memory cache")
		} else {
			memoryCfg.Cache = memory.NewRedisCache(client, cfg.MemoryCacheTTL)
			defer client.Close()
		}
	}
	store, err := memory.NewStore(memoryCfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize memory store")
	}

	workspaces, err := workspace.NewManager(cfg.WorkspaceDir)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize workspaces")
	}
	registry, err := media.NewRegistry(cfg.MediaDir)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize media registry")
	}

	backupLoop := backup.NewLoop(store, githubCredentials(configFile), backup.Options{
		Interval:      cfg.BackupInterval,
		RetryInterval: cfg.BackupRetryInterval,
	})
	background.Add(1)
	go func() {
		defer background.Done()
		_ = backupLoop.Run(bg)
	}()

	srv := &api.Server{
		Training:       coordinator,
		Runs:           runs,
		Chat:           chat.NewService(store, chat.NewLLMResponder(cfg)),
		Workspaces:     workspaces,
		Media:          registry,
		Memory:         store,
		StaticDir:      cfg.StaticDir,
		MaxRequestBody: cfg.MaxRequestBody,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithFields(map[string]interface{}{
			"host": cfg.ServerHost,
			"port": cfg.ServerPort,
		}).Info("Alpha server started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down Alpha server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}

	if err := coordinator.Close(); err != nil {
		logger.Log.WithError(err).Error("Failed to stop training coordinator")
	}
	stopBackground()
	background.Wait()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Log.WithError(err).Error("Failed to close event publisher")
		}
	}

	logger.Log.Info("Alpha server stopped")
}

// githubCredentials re-reads the configuration on every backup cycle so a
// token added to the config file is picked up without a restart.
func githubCredentials(configFile string) backup.Credentials {
	return func() (string, string) {
		cfg, err := config.LoadFile(configFile)
		if err != nil {
			logger.Log.WithError(err).Warn("Failed to reload configuration for backup")
			return "", ""
		}
		return cfg.GitHubRepo, cfg.GitHubToken
	}
}
