package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mentorlink/internal/config"
	"mentorlink/internal/database"
	"mentorlink/internal/database/memory"
	"mentorlink/internal/engine"
	"mentorlink/internal/handlers"
	"mentorlink/internal/mentorship"
	"mentorlink/internal/messaging"
	"mentorlink/internal/presence"
	"mentorlink/internal/realtime"
	"mentorlink/internal/utils"
	"mentorlink/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

// store is what both backends provide.
type store interface {
	messaging.Store
	mentorship.Store
	messaging.NotificationSink
	handlers.NotificationLister
	handlers.Pinger
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(os.Stderr, cfg.Debug)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	app, err := newApp(ctx, cfg, st, logger)
	if err != nil {
		return err
	}
	defer app.shutdown()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "store", cfg.Database.Type, "metrics", cfg.Server.MetricsEnabled)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	switch cfg.Database.Type {
	case config.DatabaseMemory:
		slog.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	default:
		mongodb, err := database.NewMongoDB(ctx, cfg.Database.URI, cfg.Database.Name)
		if err != nil {
			return nil, nil, err
		}
		if err := mongodb.EnsureIndexes(ctx); err != nil {
			mongodb.Close(context.Background())
			return nil, nil, fmt.Errorf("failed to create indexes: %w", err)
		}
		return mongodb, func() {
			if err := mongodb.Close(context.Background()); err != nil {
				slog.Warn("failed to disconnect from MongoDB", "error", err)
			}
		}, nil
	}
}

type app struct {
	handler  http.Handler
	shutdown func()
}

// newApp wires the actor engine, realtime layer and services behind the router.
func newApp(ctx context.Context, cfg *config.Config, st store, logger *slog.Logger) (*app, error) {
	metrics := utils.NewMetricsCollector()

	system := actor.NewActorSystem()
	mentorEngine := engine.NewEngine(system, metrics)
	registry := presence.NewActorRegistry(mentorEngine.Root(), mentorEngine.GetPresenceActor(), cfg.Server.RequestTimeout)

	ctx, cancel := context.WithCancel(ctx)
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	dispatcher := realtime.NewDispatcher(registry, hub, metrics, logger)
	closeRelay := func() {}
	if cfg.RedisURL != "" {
		client, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			cancel()
			mentorEngine.Stop()
			return nil, err
		}
		relay := realtime.NewRedisRelay(client, realtime.RelayChannel, logger)
		dispatcher.UseRelay(relay)
		go relay.Run(ctx, dispatcher.Deliver)
		closeRelay = func() { client.Close() }
		logger.Info("realtime relay enabled", "channel", realtime.RelayChannel)
	}

	messages := messaging.NewService(st, metrics, logger)
	messages.OnSend(messaging.NotificationHook(st), dispatcher.MessageHook())
	messages.OnRead(dispatcher.ReadHook())

	server := handlers.NewServer(cfg, handlers.Deps{
		Messaging:     messages,
		Mentorship:    mentorship.NewService(st, st, logger),
		Notifications: st,
		Dispatcher:    dispatcher,
		Presence:      registry,
		Hub:           hub,
		Store:         st,
		Metrics:       metrics,
		Logger:        logger,
	})

	return &app{
		handler: server.Routes(),
		shutdown: func() {
			cancel()
			closeRelay()
			mentorEngine.Stop()
		},
	}, nil
}
