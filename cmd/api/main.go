package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/PaulBabatuyi/chatlog/internal/auth"
	"github.com/PaulBabatuyi/chatlog/internal/config"
	"github.com/PaulBabatuyi/chatlog/internal/data"
	"github.com/PaulBabatuyi/chatlog/internal/db"
	"github.com/PaulBabatuyi/chatlog/internal/gateway"
	"github.com/PaulBabatuyi/chatlog/internal/logging"
	"github.com/PaulBabatuyi/chatlog/internal/middleware"
	"github.com/PaulBabatuyi/chatlog/internal/search"
	"github.com/PaulBabatuyi/chatlog/internal/session"
)

// pingFunc adapts a function to Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "chatlog: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel)
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pingers []Pinger

	// ===== MONGODB =====
	var dbClient *db.Client
	if cfg.NeedsMongo() {
		dbClient, err = db.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return err
		}
		defer func() { _ = dbClient.Close(context.Background()) }()

		if err := dbClient.CreateIndexes(ctx); err != nil {
			return err
		}
		pingers = append(pingers, dbClient)
	}

	// ===== STORES =====
	var (
		users gateway.UserRepository
		chats gateway.ChatRepository
	)
	switch cfg.StoreBackend {
	case config.BackendMongo:
		users = data.NewUsersStore(dbClient.UsersCollection())
		chats = data.NewChatsStore(dbClient.ChatsCollection())
	default:
		log.Warn(ctx, "using in-memory store; data is lost on restart")
		users = data.NewMemoryUsersStore()
		chats = data.NewMemoryChatsStore()
	}

	var sessStore session.Store
	switch cfg.SessionBackend {
	case config.BackendMongo:
		sessStore = session.NewMongoStore(dbClient.SessionsCollection())
	case config.BackendRedis:
		rdb, err := newRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		sessStore = session.NewRedisStore(rdb)
		pingers = append(pingers, pingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() }))
	default:
		sessStore = session.NewMemoryStore()
	}

	// ===== SESSIONS =====
	tokens := auth.NewTokenManagerFromKeys(cfg.SessionKeys, cfg.SessionActiveKid)
	sessions := session.NewManager(sessStore, tokens, cfg.SessionTTL, session.CookieOptions{
		Secure: cfg.Production(),
	})

	// small burst allows a couple of quick retries
	limiter := middleware.NewLimiterStore(cfg.RateLimitRPM, 3, time.Minute)
	defer limiter.Stop()

	var searchClient *search.Client
	if cfg.SearchURL != "" {
		searchClient = search.NewClient(cfg.SearchURL, cfg.SearchTimeout)
	}

	srv := newServer(
		gateway.NewAuth(users, cfg.SessionTTL),
		gateway.NewChat(chats, cfg.HistoryTimezone),
		sessions,
		limiter,
		searchClient,
		log,
		pingers...,
	)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Info(ctx, "http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// ===== gRPC HEALTH =====
	if cfg.GRPCHealthPort != "" {
		grpcServer, hs, err := newHealthServer(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("failed to load TLS certs: %w", err)
		}
		lis, err := net.Listen("tcp", ":"+cfg.GRPCHealthPort)
		if err != nil {
			return fmt.Errorf("failed to listen: %w", err)
		}
		go watchHealth(ctx, hs, srv.ping, 15*time.Second, log)
		go func() {
			log.Info(ctx, "grpc health server listening", "addr", lis.Addr().String(), "tls", cfg.TLSCert != "")
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
		defer grpcServer.GracefulStop()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}
