package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shubham-shewale/market-feed/cmd/feed/internal/gateway"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/hub"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/simulator"
	"github.com/shubham-shewale/market-feed/cmd/feed/internal/sink"
	"github.com/shubham-shewale/market-feed/pkg/config"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the simulator and serve the HTTP, SSE and websocket feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	universe, err := instruments(cfg)
	if err != nil {
		return err
	}

	h := hub.NewHub(cfg.Feed.SubscriberBuffer, logger)
	engine := simulator.NewEngine(
		engineConfig(cfg.Feed),
		logger,
		universe,
		h,
		simulator.NewRealRand(time.Now().UnixNano()),
		simulator.RealClock{},
	)
	engine.Warmup(cfg.Feed.WarmupTicks)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		engine.Run(ctx)
	}()

	if sinks := buildSinks(ctx, cfg, logger); len(sinks) > 0 {
		runner := sink.NewRunner(logger, engine, sinks...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			runner.Run(ctx)
		}()
	}

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:    cfg.App.Port,
		Handler: gateway.NewRouter(gateway.NewHandler(engine, logger)),
		// streams end with the process context
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server Started", zap.String("port", cfg.App.Port), zap.Int("symbols", len(universe)))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP Error", zap.Error(err))
			errCh <- fmt.Errorf("http server on %s: %w", cfg.App.Port, err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down server", zap.Error(err))
	}

	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
	}
	logger.Info("Shutdown Complete")
	return nil
}

// buildSinks connects the optional downstream mirrors. A mirror that cannot
// reach its backend is skipped; the feed itself keeps serving.
func buildSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) []sink.Sink {
	var sinks []sink.Sink

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("Failed to connect to Redis, mirror disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			rdb.Close()
		} else {
			sinks = append(sinks, sink.NewRedisMirror(logger, rdb, cfg.Redis.TTL, cfg.Feed.AlertCapacity))
		}
	}

	if cfg.Kafka.Enabled {
		dialer := &sink.RealKafkaDialer{Dialer: &kafka.Dialer{Timeout: 5 * time.Second}}
		sink.NewTopicCreator(logger, dialer, sink.RealClock{}).Create(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.AlertTopic)

		writer := sink.NewKafkaWriter(cfg.Kafka.Brokers)
		sinks = append(sinks, sink.NewKafkaSink(logger, writer, cfg.Kafka.Topic, cfg.Kafka.AlertTopic))
	}

	return sinks
}
