package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"github.com/shinyyama/fleamarket-backend/internal/ai"
	"github.com/shinyyama/fleamarket-backend/internal/config"
	"github.com/shinyyama/fleamarket-backend/internal/db"
	"github.com/shinyyama/fleamarket-backend/internal/docstore"
	"github.com/shinyyama/fleamarket-backend/internal/gcp"
	"github.com/shinyyama/fleamarket-backend/internal/identity"
	appmw "github.com/shinyyama/fleamarket-backend/internal/middleware"
	"github.com/shinyyama/fleamarket-backend/internal/realtime"
	"github.com/shinyyama/fleamarket-backend/internal/repository"
	"github.com/shinyyama/fleamarket-backend/internal/server"
	"github.com/shinyyama/fleamarket-backend/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := build(ctx, cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}
	defer cleanup()

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on %s backend=%s auth=%s", addr, cfg.DataBackend, cfg.AuthMode)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}

func build(ctx context.Context, cfg *config.Config) (*server.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	needFirebase := cfg.DataBackend == config.BackendFirestore || cfg.AuthMode == config.AuthFirebase
	deps := server.Deps{
		CORSOriginSuffixes: cfg.CORSOriginSuffixes,
		GitSHA:             cfg.GitSHA,
		BuildTime:          cfg.BuildTime,
	}

	if needFirebase {
		app, err := gcp.NewApp(ctx, cfg)
		if err != nil {
			return nil, cleanup, err
		}
		if cfg.AuthMode == config.AuthFirebase {
			authClient, err := app.Auth(ctx)
			if err != nil {
				return nil, cleanup, err
			}
			deps.Auth = appmw.NewFirebaseAuth(authClient)
			deps.Directory = identity.NewFirebaseDirectory(authClient)
		}
		if cfg.DataBackend == config.BackendFirestore {
			fs, err := app.Firestore(ctx)
			if err != nil {
				return nil, cleanup, err
			}
			closers = append(closers, func() { _ = fs.Close() })
			deps.Repos = docstore.NewSet(fs)
		}
	}
	if deps.Auth == nil {
		log.Printf("[auth] header auth enabled; do not use in production")
		deps.Auth = appmw.NewHeaderAuth()
		deps.Directory = identity.NewStaticDirectory()
	}
	if cfg.DataBackend == config.BackendSQL {
		conn, err := db.Connect(cfg)
		if err != nil {
			return nil, cleanup, err
		}
		if err := db.Migrate(conn); err != nil {
			return nil, cleanup, err
		}
		deps.Repos = repository.NewGormSet(conn)
	}

	if cfg.StorageBucket != "" {
		client, err := gcs.NewClient(ctx, gcp.ClientOptions(cfg)...)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = client.Close() })
		deps.Uploader = storage.NewGCSUploader(client, cfg.StorageBucket)
	} else {
		log.Printf("[storage] STORAGE_BUCKET not set; images are kept in memory")
		deps.Uploader = storage.NewMemoryUploader("local")
	}

	var broker realtime.Broker
	if cfg.RedisURL != "" {
		rdb, err := realtime.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, cleanup, err
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, cleanup, err
		}
		broker = realtime.NewRedisBroker(rdb, "")
	}
	deps.Hub = realtime.NewHub(broker)

	if cfg.GeminiAPIKey != "" {
		gen, err := ai.NewGenAIGenerator(ctx, cfg.GeminiAPIKey)
		if err != nil {
			return nil, cleanup, err
		}
		deps.Advisor = ai.NewGeminiAdvisor(gen, cfg.GeminiModel)
	}

	return server.New(deps), cleanup, nil
}
