package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/fitness"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/oauth"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/profile"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/storage"
	"github.com/ovaphlow/pitchfork/service-fitness-go/internal/storage/repo"
	"github.com/ovaphlow/pitchfork/service-fitness-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-fitness-go/pkg/utilities"
)

func main() {
	// best-effort: a missing .env just means real env vars are used
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-fitness-go")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessCfg := session.ConfigFromEnv()
	var store session.Store = session.NewMemoryStore()
	if sessCfg.RedisAddr != "" {
		rdb, err := session.DialRedis(sessCfg)
		if err != nil {
			sugar.Fatalf("redis connect: %v", err)
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb)
		sugar.Infow("sessions stored in redis", "addr", sessCfg.RedisAddr)
	}
	sessions, err := session.NewManager(sessCfg, store)
	if err != nil {
		sugar.Fatalf("session manager: %v", err)
	}

	oauthCfg := oauth.ConfigFromEnv()
	if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
		sugar.Warn("GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET is empty; sign-in will fail")
	}
	oauthSvc := oauth.NewService(oauthCfg)
	people := profile.NewService(profile.ConfigFromEnv(), sugar)

	fitCfg := fitness.ConfigFromEnv()
	var persister fitness.Persister
	if fitCfg.Persist {
		db, err := database.Connect(database.ConfigFromEnv())
		if err != nil {
			sugar.Fatalf("db connect: %v", err)
		}
		defer db.Close()
		docs := repo.NewDocumentRepo(db)
		if err := docs.EnsureTable(ctx); err != nil {
			sugar.Fatalf("ensure documents table: %v", err)
		}
		persister = storage.NewGateway(docs, storage.ConfigFromEnv(), sugar)
		sugar.Info("persistence enabled")
	}

	authHandler := oauth.NewHandler(oauthSvc, people, sessions, sugar, oauthCfg.DashboardURL)
	fitHandler := fitness.NewHandler(fitness.NewClient(fitCfg), oauthSvc, sessions, persister, sugar)

	srv := &http.Server{
		Addr:              utilities.EnvString("HTTP_ADDR", "0.0.0.0:8000"),
		Handler:           router.RegisterRoutes(sugar, authHandler, fitHandler, router.ConfigFromEnv()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	drain(doneCtx, fitHandler, sugar)

	sugar.Info("goodbye")
}

// drain waits for background writes, giving up when ctx ends.
func drain(ctx context.Context, h *fitness.Handler, logger *zap.SugaredLogger) {
	done := make(chan struct{})
	go func() {
		h.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("background writes still running at exit")
	}
}
