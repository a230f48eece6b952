package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloo-solutions/sevakai/internal/api/handlers"
	"github.com/cloo-solutions/sevakai/internal/config"
	"github.com/cloo-solutions/sevakai/internal/database"
	"github.com/cloo-solutions/sevakai/internal/jobs"
	"github.com/cloo-solutions/sevakai/internal/openai"
	"github.com/cloo-solutions/sevakai/internal/repository"
	"github.com/cloo-solutions/sevakai/internal/server"
	"github.com/cloo-solutions/sevakai/internal/service"
	"github.com/cloo-solutions/sevakai/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the SevakAI support API server and the idle session sweeper",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime()
	if err != nil {
		return err
	}
	defer rt.close()
	cfg, logger := rt.cfg, rt.logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 10% sampling in production, everything in development
	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}
	shutdownTelemetry, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
		Logger:           logger,
	})
	if err != nil {
		logger.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
	} else {
		defer shutdownTelemetry()
	}

	if portFlag, _ := cmd.Flags().GetString("port"); cmd.Flags().Changed("port") {
		cfg.Port = portFlag
	}

	var (
		subscribers service.SubscriberStore = repository.NewMemorySubscriberStore()
		events      service.ChatEventRecorder = service.NoOpChatEventRecorder{}
	)
	if cfg.HasDatabase() {
		pool, err := rt.openPool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		logger.Info("connected to database")

		if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
			if err := database.Migrate(cfg.DatabaseURL, logger); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		subscribers = repository.NewSubscriberRepository(pool)
		events = repository.NewChatEventRepository(pool)
	} else {
		logger.Warn("SEVAK_DATABASE_URL not set: subscribers kept in memory, chat events dropped")
	}

	src := service.KnowledgeSource{File: cfg.KnowledgeFile, ObjectKey: cfg.KnowledgeObjectKey}
	if cfg.HasS3() {
		s3Client, err := rt.openS3(ctx)
		if err != nil {
			return err
		}
		if err := s3Client.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		logger.Info("S3 bucket ready", zap.String("bucket", s3Client.Bucket()))
		src.Objects = s3Client
	}

	index, err := service.LoadKnowledgeIndex(ctx, src, logger)
	if err != nil {
		return err
	}

	bot, err := config.LoadChatbot(cfg.ChatbotFile)
	if err != nil {
		return err
	}

	// Left as a nil interface when no key is set so ChatService reports unavailable.
	var completer service.Completer
	if cfg.HasOpenAI() {
		completer = openai.NewClientWithConfig(openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	} else {
		logger.Warn("SEVAK_OPENAI_API_KEY not set: chat will answer with the unavailable message")
	}

	chatSvc := service.NewChatService(index, bot, completer, events, service.ChatOptions{
		HistoryWindow: cfg.ChatHistoryWindow,
		MaxTokens:     cfg.ChatMaxTokens,
		Temperature:   cfg.ChatTemperature,
		Timeout:       cfg.ChatTimeout,
	}, logger)
	sessionSvc := service.NewSessionService(chatSvc, cfg.SessionTTL, logger)
	knowledgeSvc := service.NewKnowledgeService(index)
	newsletterSvc := service.NewNewsletterService(subscribers, logger)

	if !cfg.HasAdminKey() {
		logger.Warn("SEVAK_ADMIN_API_KEY not set: admin routes are disabled")
	}

	router := server.NewRouter(server.RouterConfig{
		ChatHandler:       handlers.NewChatHandler(sessionSvc),
		KnowledgeHandler:  handlers.NewKnowledgeHandler(knowledgeSvc),
		NewsletterHandler: handlers.NewNewsletterHandler(newsletterSvc),
		AdminAPIKey:       cfg.AdminAPIKey,
		ChatAvailable:     chatSvc.Available(),
		Logger:            logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweeper := jobs.NewWorker("session-sweeper", jobs.NewSessionSweeper(sessionSvc, logger), cfg.SessionSweepInterval, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sweeper.Start(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		sweeper.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("server exited")
	return nil
}
