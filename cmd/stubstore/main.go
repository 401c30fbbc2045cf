package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market_client/internal/config"
	"market_client/internal/pkg/logger"
	"market_client/internal/service"
	"market_client/internal/storage"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Failed to read config:", err)
	}

	var l *logger.Logger
	if l, err = logger.CreateLogger(cfg.LogLevel); err != nil {
		log.Fatal("Failed to create logger:", err)
	}

	var store storage.Storage
	if cfg.DatabaseURI != "" {
		if store, err = storage.NewPostgreSQL(cfg.DatabaseURI, l); err != nil {
			log.Fatal(err)
		}
	} else {
		l.Info("DATABASE_URI not set, using in-memory storage")
		store = storage.NewMemory()
	}
	defer store.Close()

	opts := service.Options{
		SessionSecret: []byte(cfg.SessionSecret),
		PublicDir:     cfg.PublicDir,
		Debug:         cfg.Debug,
	}
	svc := service.NewService(store, opts, cfg.RunAddress, l)

	const readHeaderTimeout = 5 * time.Second
	server := &http.Server{Addr: svc.RunAddress(), Handler: svc.NewRouter(), ReadHeaderTimeout: readHeaderTimeout}

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		const shutdownTimeout = 30 * time.Second
		shutdownCtx, cancel := context.WithTimeout(serverCtx, shutdownTimeout)
		defer cancel()

		go func() {
			<-shutdownCtx.Done()
			if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	l.Info("stub service listening", zap.String("address", svc.RunAddress()), zap.Bool("debug", cfg.Debug))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		store.Close()
		log.Fatal(err)
	}

	<-serverCtx.Done()
}
