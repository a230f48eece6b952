package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/cloo-solutions/sevakai/internal/config"
	"github.com/cloo-solutions/sevakai/internal/database"
	"github.com/cloo-solutions/sevakai/internal/logging"
	"github.com/cloo-solutions/sevakai/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// runtime bundles what every sevakd command needs before doing real work.
type runtime struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Options{Debug: cfg.Debug, Environment: cfg.Environment})
	if err != nil {
		return nil, err
	}

	return &runtime{cfg: cfg, logger: logger}, nil
}

func (rt *runtime) close() {
	_ = rt.logger.Sync()
}

func (rt *runtime) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	if !rt.cfg.HasDatabase() {
		return nil, fmt.Errorf("SEVAK_DATABASE_URL is not set")
	}
	pool, err := database.NewPool(ctx, database.Config{
		URL:               rt.cfg.DatabaseURL,
		MaxConns:          10,
		MaxConnIdleTime:   5 * time.Minute,
		HealthCheckPeriod: time.Minute,
		ConnectTimeout:    10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

func (rt *runtime) openS3(ctx context.Context) (*storage.S3Client, error) {
	if !rt.cfg.HasS3() {
		return nil, fmt.Errorf("S3 is not configured (set SEVAK_S3_ENDPOINT, SEVAK_S3_ACCESS_KEY_ID and SEVAK_S3_SECRET_ACCESS_KEY)")
	}
	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        rt.cfg.S3Endpoint,
		Region:          rt.cfg.S3Region,
		AccessKeyID:     rt.cfg.S3AccessKey,
		SecretAccessKey: rt.cfg.S3SecretKey,
		Bucket:          rt.cfg.S3Bucket,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return client, nil
}
