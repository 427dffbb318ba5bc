package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/IBM/sarama"

	"github.com/streamhub/streamhub/internal/blacklist"
	cfgpkg "github.com/streamhub/streamhub/internal/config"
	"github.com/streamhub/streamhub/internal/consumer"
	"github.com/streamhub/streamhub/internal/cursor"
	"github.com/streamhub/streamhub/internal/runtime"
	httpserver "github.com/streamhub/streamhub/internal/server/http"
	"github.com/streamhub/streamhub/internal/server/http/controllers"
	pebblestore "github.com/streamhub/streamhub/internal/storage/pebble"
	"github.com/streamhub/streamhub/internal/streaming"
	"github.com/streamhub/streamhub/internal/subscription"
	"github.com/streamhub/streamhub/internal/toggles"
	logpkg "github.com/streamhub/streamhub/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Options configures a single streamhub server process.
type Options struct {
	DataDir  string
	HTTPAddr string
	Fsync    pebblestore.FsyncMode
	Config   cfgpkg.Config
}

// Run opens the runtime, wires every domain service onto the HTTP
// surface, and blocks serving until ctx is cancelled. Adapted from the
// teacher's Run, which wired gRPC+HTTP servers around streams/workqueue
// services the same way this wires subscription/streaming/blacklist
// services around one HTTP server.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{DataDir: storeDir, Fsync: opts.Fsync, Config: opts.Config})
	if err != nil {
		return err
	}
	defer rt.Close()

	logCfg := &logpkg.Config{
		Level:  getenvDefault("STREAMHUB_LOG_LEVEL", "info"),
		Format: getenvDefault("STREAMHUB_LOG_FORMAT", "text"),
	}
	logger, err := logpkg.ApplyConfig(logCfg)
	if err != nil {
		logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	logpkg.RedirectStdLog(logger)

	cfg := rt.Config()
	logger.Info("starting streamhub server",
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("level", logCfg.Level),
		logpkg.Str("format", logCfg.Format),
	)

	togglesSvc := toggles.NewPebbleOverride(rt.DB(), toggles.FromDefaults(
		cfg.Toggles.HighLevelAPI,
		cfg.Toggles.CheckOwningApplication,
		cfg.Toggles.SendBatchViaOutputStream,
	))

	blacklistChecker, err := newBlacklistChecker(rt, logger)
	if err != nil {
		return err
	}

	subStore := subscription.NewPebbleStore(rt.DB())
	eventTypes := subscription.NewInMemoryEventTypes(nil)
	apps := subscription.NewInMemoryApplications(nil)
	subSvc := subscription.NewService(subStore, eventTypes, apps, subscription.AllowAllScopes{}, togglesSvc, rt.IDs(), logger.With(logpkg.Component("subscription")), nil)

	kafkaCfg := consumer.KafkaConfig{Brokers: cfg.Kafka.Brokers, Version: sarama.V2_8_0_0}
	newConsumer := func(eventType string, cursors []cursor.NakadiCursor) (consumer.PartitionConsumer, error) {
		return consumer.NewFixedPartitionConsumer(kafkaCfg, eventType, cursors, logger.With(logpkg.Component("consumer")))
	}

	streamDefaults := streaming.Config{
		BatchLimit:           cfg.StreamDefaults.BatchLimit,
		BatchTimeout:         cfg.StreamDefaults.BatchTimeout,
		StreamLimit:          cfg.StreamDefaults.StreamLimit,
		StreamTimeout:        cfg.StreamDefaults.StreamTimeout,
		StreamKeepAliveLimit: cfg.StreamDefaults.StreamKeepAliveLimit,
	}

	registry := &controllers.Registry{
		General:       controllers.NewGeneral(rt),
		Subscriptions: controllers.NewSubscriptions(subSvc, togglesSvc),
		Streaming:     controllers.NewStreaming(newConsumer, blacklistChecker, streamDefaults, rt.IDs(), logger.With(logpkg.Component("streaming"))),
	}

	srv := httpserver.New(registry)
	if err := srv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
		return err
	}
	srv.Close()
	return nil
}

// newBlacklistChecker builds a CEL-backed blacklist.Checker and preloads
// any rules persisted from a prior run. A construction failure here
// indicates a broken CEL environment, not a runtime condition, so it
// falls back to AllowAll rather than failing server startup.
func newBlacklistChecker(rt *runtime.Runtime, logger logpkg.Logger) (blacklist.Checker, error) {
	checker, err := blacklist.NewCELChecker()
	if err != nil {
		logger.Warn("blacklist CEL environment failed to build, falling back to allow-all", logpkg.Err(err))
		return blacklist.AllowAll{}, nil
	}
	store := blacklist.NewPebbleRuleStore(rt.DB())
	rules, err := store.LoadAll()
	if err != nil {
		logger.Warn("failed to load persisted blacklist rules", logpkg.Err(err))
		return checker, nil
	}
	for _, r := range rules {
		if err := checker.Put(r.ID, r.Expression); err != nil {
			logger.Warn("skipping invalid persisted blacklist rule", logpkg.Str("id", r.ID), logpkg.Err(err))
		}
	}
	return checker, nil
}
