package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kozaktomas/face-enroll/internal/config"
	"github.com/kozaktomas/face-enroll/internal/database"
	"github.com/kozaktomas/face-enroll/internal/database/mariadb"
	"github.com/kozaktomas/face-enroll/internal/database/postgres"
	"github.com/kozaktomas/face-enroll/internal/detector"
	"github.com/kozaktomas/face-enroll/internal/enroll"
	"github.com/kozaktomas/face-enroll/internal/imagecodec"
)

// openIdentityStore connects to the configured identity store.
// It returns a nil store and closer when no database is configured.
func openIdentityStore(ctx context.Context, cfg *config.DatabaseConfig) (database.IdentityWriter, io.Closer, error) {
	switch cfg.Driver() {
	case "postgres":
		pool, err := postgres.Initialize(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		slog.Info("using identity store", "backend", "postgres")
		return postgres.NewIdentityRepository(pool), pool, nil
	case "mysql":
		pool, err := mariadb.Initialize(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize MariaDB: %w", err)
		}
		slog.Info("using identity store", "backend", "mariadb")
		return mariadb.NewIdentityRepository(pool), pool, nil
	default:
		return nil, nil, nil
	}
}

// newPipeline wires the image codec and the embedding server client into an enrollment pipeline.
func newPipeline(cfg *config.Config) (*enroll.Pipeline, error) {
	det := detector.NewClient(cfg.Embedding.URL, cfg.Enrollment.MaxImageSize, cfg.Embedding.Timeout)
	validator := enroll.NewValidator(imagecodec.New(), det, cfg.Enrollment.MinConfidence)

	pipeline, err := enroll.NewPipeline(validator, enroll.DefaultSlots)
	if err != nil {
		return nil, fmt.Errorf("creating enrollment pipeline: %w", err)
	}
	return pipeline, nil
}
