package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/guscambraia/aih-v3.5/internal/aih"
	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/maintenance"
	"github.com/guscambraia/aih-v3.5/internal/middleware"
	"github.com/guscambraia/aih-v3.5/internal/router"
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API with the maintenance scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := ensureParent(cfg.Log.File); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	if err := ensureDir(cfg.Backup.Dir); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	e, err := open(cfg)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	locker, closeLocker, err := newLocker(ctx, cfg.Redis, e.logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	svc := aih.NewService(e.db, e.logger, aih.WithLocker(locker))

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	go limiter.Run(ctx)
	go maintenance.New(e.db, cfg.Maintenance, e.logger).Start(ctx)

	r := router.SetupRouter(router.Deps{
		Config:  cfg,
		DB:      e.db,
		Service: svc,
		Logger:  e.logger,
		Limiter: limiter,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Address, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.WithField("addr", srv.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	e.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newLocker returns a Redis-backed record lock when redis.addr is set and an
// in-process one otherwise.
func newLocker(ctx context.Context, cfg config.RedisConfig, logger *logrus.Logger) (aih.Locker, func(), error) {
	if cfg.Addr == "" {
		return aih.NewMemoryLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}

	logger.WithField("addr", cfg.Addr).Info("using redis record lock")
	return aih.NewRedisLocker(client, cfg.LockTTL), func() { _ = client.Close() }, nil
}
