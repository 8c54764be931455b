package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielhkuo/armonia/cliparse"
	"github.com/danielhkuo/armonia/db"
	"github.com/danielhkuo/armonia/export"
	"github.com/danielhkuo/armonia/logger"
	"github.com/danielhkuo/armonia/metrics"
	"github.com/danielhkuo/armonia/middleware"
	"github.com/danielhkuo/armonia/notify"
	"github.com/danielhkuo/armonia/realtime"
	"github.com/danielhkuo/armonia/router"
	"github.com/danielhkuo/armonia/service"
	"github.com/danielhkuo/armonia/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	// Connect and migrate
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := db.Migrate(dbConn, cfg.DatabaseType); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("Database schema ready", "type", cfg.DatabaseType)

	m := metrics.New()
	hub := realtime.NewHub(log, m)

	notifier := notify.New(cfg.TelegramToken, cfg.TelegramChatID, log)
	if closer, ok := notifier.(io.Closer); ok {
		defer closer.Close()
	}

	svc := service.New(store.New(dbConn), service.Config{
		PreserveOriginalWeight: cfg.PreserveOriginalWeight,
	}, service.Deps{
		Publisher: hub,
		Notifier:  notifier,
		Renderer:  export.XLSX{},
		Metrics:   m,
		Logger:    log,
	})

	gateway := realtime.NewGateway(hub, svc, cfg.JWTSecret, cfg.IPHashSalt, log)
	mux := router.NewRouter(svc, gateway, m, cfg)

	server := http.Server{
		Handler:           middleware.CORS(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	// Start server
	log.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server closed", "error", err)
	} else {
		log.Info("Server closed")
	}
}
