package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-poker-stats/internal/config"
	"github.com/pable/go-poker-stats/internal/engine"
	"github.com/pable/go-poker-stats/internal/logger"
	"github.com/pable/go-poker-stats/internal/server"
	"github.com/pable/go-poker-stats/internal/storage"
)

var (
	servePort      int
	serveNoArchive bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API around one in-memory statistics engine.

Settings come from the environment (and .env): PORT, ARCHIVE_PATH, LOG_LEVEL,
DEV_MODE, MERGE_THRESHOLD, MAX_UPLOAD_BYTES, PARSE_WORKERS. The --port, --db and
--log-level flags override them when given. Statistics start empty on every run;
the archive only keeps the raw uploads.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides PORT)")
	serveCmd.Flags().BoolVar(&serveNoArchive, "no-archive", false, "do not archive uploads")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cmd.Flags().Changed("db") {
		cfg.ArchivePath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cmd.Flags().Changed("log-level") {
		log = logger.New(cfg.Logger())
	}

	var archive server.Archive
	if !serveNoArchive {
		if err := os.MkdirAll(filepath.Dir(cfg.ArchivePath), 0755); err != nil {
			return fmt.Errorf("create archive dir: %w", err)
		}
		db, err := storage.Open(cfg.ArchivePath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()
		archive = db
		log.Info().Str("path", cfg.ArchivePath).Msg("Upload archive opened")
	}

	srv := server.New(server.Config{
		Port:           cfg.Port,
		Log:            log,
		Engine:         engine.New(engine.Options{Workers: cfg.ParseWorkers, Log: log}),
		Archive:        archive,
		MergeThreshold: cfg.MergeThreshold,
		MaxUploadBytes: cfg.MaxUploadBytes,
		DevMode:        cfg.DevMode,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server stopped")
	return nil
}
