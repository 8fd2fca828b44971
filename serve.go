package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/14zooboy14/Point-Of-Sales-system-POS/changelog"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/config"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/coordinator"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/handlers"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/metrics"
	"github.com/14zooboy14/Point-Of-Sales-system-POS/store"
)

func serve(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := store.New(cfg.Store.Path, cfg.Store.OpenTimeout)
	if err != nil {
		return err
	}
	defer s.Close()

	feed, closeFeed, err := buildFeed(ctx, cfg.Changelog, log)
	if err != nil {
		return err
	}
	defer closeFeed()

	reg := metrics.NewRegistry()
	opts := []coordinator.Option{
		coordinator.WithMetrics(reg),
		coordinator.WithTotalVerification(cfg.POS.VerifyTotal),
	}
	if feed != nil {
		q := newFeedQueue(feed, cfg.Changelog, reg, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := q.Close(ctx); err != nil {
				log.Warn("change feed not drained", zap.Int("pending", q.Pending()), zap.Error(err))
			}
		}()
		opts = append(opts, coordinator.WithFeed(q))
	}
	c := coordinator.New(log, s, opts...)

	h := handlers.New(c, log)
	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: h.Routes(handlers.RouterConfig{
			CORSOrigin:    cfg.HTTP.CORSOrigin,
			Metrics:       reg,
			ExposeMetrics: cfg.Metrics.Enabled,
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("db", cfg.Store.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newFeedQueue puts feed behind an ordered queue so that slow sinks are
// written outside the mutation guard.
func newFeedQueue(feed changelog.Writer, cfg config.Changelog, reg *metrics.Registry, log *zap.Logger) *changelog.Queue {
	return changelog.NewQueue(feed, cfg.QueueSize, cfg.PublishTimeout, func(e changelog.Event, err error) {
		reg.FeedFailures.Inc()
		log.Error("failed to deliver committed event", zap.String("event", e.Key()), zap.Error(err))
	})
}

// buildFeed assembles the change feed from configuration. It returns a nil
// writer when no sink is configured.
func buildFeed(ctx context.Context, cfg config.Changelog, log *zap.Logger) (changelog.Writer, func(), error) {
	var (
		writers []changelog.Writer
		closers []func()
	)
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if cfg.File != "" {
		fw, err := changelog.NewFileWriter(cfg.File)
		if err != nil {
			return nil, closeAll, err
		}
		writers = append(writers, fw)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		kw := changelog.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		closers = append(closers, func() { _ = kw.Close() })
		var w changelog.Writer = kw
		if cfg.Redis.Addr != "" {
			client, err := changelog.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password)
			if err != nil {
				closeAll()
				return nil, func() {}, err
			}
			closers = append(closers, func() { _ = client.Close() })
			w = changelog.NewFallback(kw, changelog.NewDeadLetterQueue(client, cfg.Redis.KeyPrefix), log)
		}
		writers = append(writers, w)
	} else if cfg.Redis.Addr != "" {
		log.Warn("changelog.redis is set without kafka brokers and is ignored")
	}

	switch len(writers) {
	case 0:
		return nil, closeAll, nil
	case 1:
		return writers[0], closeAll, nil
	default:
		return changelog.NewMultiWriter(writers...), closeAll, nil
	}
}
