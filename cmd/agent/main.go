package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/nodemetrics/internal/collector"
	"github.com/Schera-ole/nodemetrics/internal/config"
	models "github.com/Schera-ole/nodemetrics/internal/model"
	"github.com/Schera-ole/nodemetrics/internal/registry"
	"github.com/Schera-ole/nodemetrics/internal/reporter"
	"github.com/Schera-ole/nodemetrics/internal/source"
)

func worker(rep *reporter.Reporter, logger *zap.SugaredLogger, jobs <-chan []models.Metric) {
	for job := range jobs {
		if err := rep.Report(job); err != nil {
			logger.Errorf("Error sending metrics: %v", err)
		}
	}
}

func main() {
	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer zapLogger.Sync()
	logger := zapLogger.Sugar()

	agentConfig, err := config.NewAgentConfig()
	if err != nil {
		logger.Fatalf("Failed to parse configuration: %v", err)
	}

	src, err := source.NewSystemSource()
	if err != nil {
		logger.Fatalf("Failed to create system source: %v", err)
	}

	reg := registry.New(map[string]string{config.VersionTag: src.Version()})
	col, err := collector.New(src, reg, collector.DefaultConfig(), logger)
	if err != nil {
		logger.Fatalf("Failed to create collector: %v", err)
	}
	col.Start()

	client := &http.Client{}
	url := "http://" + agentConfig.Address + "/updates"
	rep := reporter.New(client, url, agentConfig.Key, logger)

	jobs := make(chan []models.Metric, 20)
	for w := 1; w <= agentConfig.RateLimit; w++ {
		go worker(rep, logger, jobs)
	}

	reportTicker := time.NewTicker(time.Duration(agentConfig.ReportInterval) * time.Second)
	defer reportTicker.Stop()
	go func() {
		for range reportTicker.C {
			jobs <- reg.Snapshot()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	// Block until signal received
	<-sigChan
	logger.Info("Shutting down...")
	col.Stop()
	// Flush whatever accumulated since the last report
	jobs <- reg.Snapshot()
	close(jobs)
}
