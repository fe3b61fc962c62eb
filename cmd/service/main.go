package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"gitlab.com/dirk.krummacker/contacts-microservice/internal/config"
	"gitlab.com/dirk.krummacker/contacts-microservice/internal/logger"
	"gitlab.com/dirk.krummacker/contacts-microservice/internal/metrics"
	"gitlab.com/dirk.krummacker/contacts-microservice/internal/service"
	"gitlab.com/dirk.krummacker/contacts-microservice/internal/store"
)

// Usage example on the command line:
// > CONTACTS_PORT=8088 CONTACTS_STORAGE_URI=mongodb://localhost:27017 CONTACTS_REQUEST_LOGGING=false go run main.go
func main() {
	if err := run(); err != nil {
		logger.Default().Error(context.Background(), "contacts service stopped", logger.Error(err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	backend, err := store.Open(ctx, store.Options{
		URI:        cfg.StorageURI,
		Database:   cfg.Database,
		Collection: cfg.Collection,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := backend.Close(closeCtx); err != nil {
			log.Warn(closeCtx, "closing storage failed", logger.Error(err))
		}
	}()
	if err := backend.Ping(ctx); err != nil {
		return err
	}
	log.Info(ctx, "storage connected", logger.String("uri_scheme", scheme(cfg.StorageURI)))

	st := store.Instrument(backend, log.Named("store"), m)
	contacts := service.NewContactService(st, service.WithLogger(log.Named("service")))
	router := service.SetupHttpRouter(contacts, m, cfg.RequestLogging)

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "contacts service listening", logger.String("addr", server.Addr))
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// scheme returns the part of uri before "://". The rest may hold credentials.
func scheme(uri string) string {
	s, _, _ := strings.Cut(uri, "://")
	return s
}
