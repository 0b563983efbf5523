package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/nodemetrics/internal/audit"
	"github.com/Schera-ole/nodemetrics/internal/config"
	"github.com/Schera-ole/nodemetrics/internal/handler"
	"github.com/Schera-ole/nodemetrics/internal/migration"
	models "github.com/Schera-ole/nodemetrics/internal/model"
	"github.com/Schera-ole/nodemetrics/internal/repository"
	"github.com/Schera-ole/nodemetrics/internal/service"
)

func main() {
	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	serverConfig, err := config.NewServerConfig()
	if err != nil {
		logger.Fatalf("Failed to parse configuration: %v", err)
	}

	ctx := context.Background()

	var storage repository.Repository
	if serverConfig.DatabaseDSN != "" {
		if err := migration.RunMigrations(ctx, serverConfig.DatabaseDSN, logger); err != nil {
			logger.Fatalf("Failed to run migrations: %v", err)
		}
		storage, err = repository.NewDBStorage(serverConfig.DatabaseDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
	} else {
		storage = repository.NewMemStorage()
	}
	defer storage.Close()

	metricService := service.NewMetricsService(storage)

	if serverConfig.Restore && metricService.IsMemStorage() {
		if err := metricService.RestoreMetrics(ctx, serverConfig.FileStoragePath, logger); err != nil {
			logger.Errorf("Failed to restore metrics: %v", err)
		}
	}

	var auditLogger audit.AuditLogger
	if serverConfig.AuditFile != "" || serverConfig.AuditURL != "" {
		eventChan := make(chan models.AuditEvent, 100)
		auditLogger = audit.NewAuditLogger(eventChan, logger)
		var subs []chan<- models.AuditEvent
		if serverConfig.AuditFile != "" {
			fileChan := make(chan models.AuditEvent, 100)
			subs = append(subs, fileChan)
			go audit.FileSubscriber(fileChan, *serverConfig, logger)
		}
		if serverConfig.AuditURL != "" {
			urlChan := make(chan models.AuditEvent, 100)
			subs = append(subs, urlChan)
			go audit.URLSubscriber(urlChan, *serverConfig, logger)
		}
		go audit.Broadcaster(eventChan, logger, subs...)
	}

	if serverConfig.StoreInterval > 0 && metricService.IsMemStorage() {
		saveTicker := time.NewTicker(time.Duration(serverConfig.StoreInterval) * time.Second)
		go func() {
			defer saveTicker.Stop()
			for range saveTicker.C {
				if err := metricService.SaveMetrics(ctx, serverConfig.FileStoragePath); err != nil {
					logger.Errorf("Failed to save metrics: %v", err)
				}
			}
		}()
	}

	router := handler.Router(storage, logger, serverConfig, metricService, auditLogger)
	server := &http.Server{Addr: serverConfig.Address, Handler: router}

	go func() {
		logger.Infof("Server listening on %s", serverConfig.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutting down...")

	if metricService.IsMemStorage() {
		if err := metricService.SaveMetrics(ctx, serverConfig.FileStoragePath); err != nil {
			logger.Errorf("Failed to save metrics on shutdown: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}
