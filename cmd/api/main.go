package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mesworks.org/internal/auth"
	"mesworks.org/internal/config"
	"mesworks.org/internal/httpapi"
	"mesworks.org/internal/mes"
	"mesworks.org/internal/obs"
	"mesworks.org/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	// .env удобен в разработке; в проде переменные задаются окружением
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Инициализация observability (регистрация метрик, JSON-логгер и т.п.)
	obs.Init()
	obs.InitBuildInfo(version, commit)

	if cfg.PGDSN == "" {
		log.Fatal("MESWORKS_PG_DSN is required")
	}
	store, err := pg.Open(cfg.PGDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer store.Close()

	tokens, err := auth.NewTokenService(cfg.AuthSecret, cfg.AuthIssuer)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	authsvc, err := auth.NewService(auth.NewPGUserStore(store.DB()), tokens, auth.WithLoginTTL(cfg.LoginTTL))
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}
	mesService, err := mes.NewService(store.Stations(), store.Lines(), store.WorkOrders(), store.Bookings())
	if err != nil {
		log.Fatalf("mes service: %v", err)
	}

	api := httpapi.New(authsvc, mesService, httpapi.ReadyProbe{DB: store.DB()}, version)

	handler := api.Handler() // уже обёрнут авторизацией и метриками
	handler = httpapi.MaxBodyBytes(handler, cfg.MaxBodyBytes)
	handler = httpapi.RateLimit(handler, cfg.RateBurst, cfg.RatePerSecond)
	handler = httpapi.CORS(handler)
	handler = httpapi.SecurityHeaders(handler)
	handler = httpapi.LoggingJSON(handler)
	handler = httpapi.RequestID(handler)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting mesworks-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}
