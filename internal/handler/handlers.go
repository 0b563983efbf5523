package handler

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Schera-ole/nodemetrics/internal/audit"
	"github.com/Schera-ole/nodemetrics/internal/config"
	middlewareinternal "github.com/Schera-ole/nodemetrics/internal/middleware"
	models "github.com/Schera-ole/nodemetrics/internal/model"
	"github.com/Schera-ole/nodemetrics/internal/repository"
	"github.com/Schera-ole/nodemetrics/internal/service"
)

func Router(
	storage repository.Repository,
	logger *zap.SugaredLogger,
	config *config.ServerConfig,
	metricService *service.MetricsService,
	auditLogger audit.AuditLogger,
) chi.Router {
	router := chi.NewRouter()
	router.Use(middlewareinternal.LoggingMiddleware(logger))
	router.Use(middlewareinternal.GzipMiddleware)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(15 * time.Second))
	router.Post("/update/{type}/{metric}/{value}", func(w http.ResponseWriter, r *http.Request) {
		UpdateHandlerWithParams(w, r, storage, logger, config, metricService)
	})
	router.Post("/update", func(w http.ResponseWriter, r *http.Request) {
		UpdateHandler(w, r, storage, logger, config, metricService)
	})
	router.Post("/updates", func(w http.ResponseWriter, r *http.Request) {
		BatchUpdateHandler(w, r, storage, logger, config, metricService, auditLogger)
	})
	router.Get("/value/{name}", func(w http.ResponseWriter, r *http.Request) {
		GetHandler(w, r, storage)
	})
	router.Post("/value", func(w http.ResponseWriter, r *http.Request) {
		GetValue(w, r, storage, logger)
	})
	router.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		PingDatabaseHandler(w, r, storage, logger)
	})
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		GetListHandler(w, r, storage)
	})
	return router
}

func dtoToMetrics(dtos []models.MetricsDTO) []models.Metric {
	var prepared []models.Metric
	for _, d := range dtos {
		if d.Value != nil {
			prepared = append(prepared, models.Metric{
				Name:  d.ID,
				Type:  d.MType,
				Tags:  d.Tags,
				Value: *d.Value,
			})
		}
		if d.Delta != nil {
			prepared = append(prepared, models.Metric{
				Name:  d.ID,
				Type:  d.MType,
				Tags:  d.Tags,
				Value: *d.Delta,
			})
		}
	}
	return prepared
}

func BatchUpdateHandler(
	w http.ResponseWriter,
	r *http.Request,
	storage repository.Repository,
	logger *zap.SugaredLogger,
	config *config.ServerConfig,
	metricService *service.MetricsService,
	auditLogger audit.AuditLogger,
) {
	body, err := ReadRequestBody(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := VerifyRequestHash(body, r.Header.Get("HashSHA256"), config.Key); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
		body, err = DecompressBody(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	var metrics []models.MetricsDTO
	err = json.Unmarshal(body, &metrics)
	if err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	preparedMetrics := dtoToMetrics(metrics)
	err = storage.SetMetrics(r.Context(), preparedMetrics)
	if err != nil {
		logger.Info(err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if auditLogger != nil {
		names := make([]string, 0, len(preparedMetrics))
		for _, metric := range preparedMetrics {
			names = append(names, metric.Name)
		}
		auditLogger.Log(names, r.RemoteAddr)
	}
	w.WriteHeader(http.StatusOK)
	if config.StoreInterval == 0 {
		// Only save to file if using MemStorage
		if metricService.IsMemStorage() {
			if err := metricService.SaveMetrics(r.Context(), config.FileStoragePath); err != nil {
				logger.Infof("couldn't save to file %s", err)
			}
		}
	}
}

func PingDatabaseHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository, logger *zap.SugaredLogger) {
	err := storage.Ping(r.Context())
	if err != nil {
		logger.Errorf("%v", err)
		http.Error(w, "Failed to connect to database: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func UpdateHandler(
	w http.ResponseWriter,
	r *http.Request,
	storage repository.Repository,
	logger *zap.SugaredLogger,
	config *config.ServerConfig,
	metricService *service.MetricsService,
) {
	var reader io.Reader = r.Body

	if strings.Contains(r.Header.Get("Content-Encoding"), "gzip") {
		gzipReader, err := gzip.NewReader(r.Body)
		if err != nil {
			http.Error(w, "Failed to create gzip reader: "+err.Error(), http.StatusInternalServerError)
			return
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	var metrics models.MetricsDTO
	err := json.NewDecoder(reader).Decode(&metrics)
	if err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	switch metrics.MType {
	case models.Gauge:
		if metrics.Value == nil {
			http.Error(w, "Gauge metrics must have a value", http.StatusBadRequest)
			return
		}
		err = storage.SetMetric(r.Context(), models.Metric{Name: metrics.ID, Type: metrics.MType, Tags: metrics.Tags, Value: *metrics.Value})
	case models.Counter:
		if metrics.Delta == nil {
			http.Error(w, "Counter metrics must have a delta", http.StatusBadRequest)
			return
		}
		err = storage.SetMetric(r.Context(), models.Metric{Name: metrics.ID, Type: metrics.MType, Tags: metrics.Tags, Value: *metrics.Delta})
	default:
		http.Error(w, "Invalid metric type", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	if config.StoreInterval == 0 {
		// Only save to file if using MemStorage
		if metricService.IsMemStorage() {
			if err := metricService.SaveMetrics(r.Context(), config.FileStoragePath); err != nil {
				logger.Infof("couldn't save to file %s", err)
			}
		}
	}
}

func UpdateHandlerWithParams(
	w http.ResponseWriter,
	r *http.Request,
	storage repository.Repository,
	logger *zap.SugaredLogger,
	config *config.ServerConfig,
	metricService *service.MetricsService,
) {
	metricType := chi.URLParam(r, "type")
	metricName := chi.URLParam(r, "metric")
	metricValue := chi.URLParam(r, "value")
	if metricName == "" {
		http.Error(w, "Metric name not found ", http.StatusNotFound)
		return
	}
	var value any
	switch metricType {
	case models.Gauge:
		floatVal, floatErr := strconv.ParseFloat(metricValue, 64)
		if floatErr != nil {
			http.Error(w, "Metric value should be a float", http.StatusBadRequest)
			return
		}
		value = floatVal
	case models.Counter:
		intVal, intErr := strconv.ParseInt(metricValue, 10, 64)
		if intErr != nil {
			http.Error(w, "Metric value should be an integer", http.StatusBadRequest)
			return
		}
		value = intVal
	default:
		http.Error(w, "Invalid metric type", http.StatusBadRequest)
		return
	}
	err := storage.SetMetric(r.Context(), models.Metric{Name: metricName, Type: metricType, Value: value})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	if config.StoreInterval == 0 {
		// Only save to file if using MemStorage
		if metricService.IsMemStorage() {
			if err := metricService.SaveMetrics(r.Context(), config.FileStoragePath); err != nil {
				logger.Infof("couldn't save to file %s", err)
			}
		}
	}
}

func GetValue(w http.ResponseWriter, r *http.Request, storage repository.Repository, logger *zap.SugaredLogger) {
	var metrics models.MetricsDTO
	var responseMetric models.MetricsDTO
	err := json.NewDecoder(r.Body).Decode(&metrics)
	if err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return
	}
	responseMetric, err = storage.GetMetric(r.Context(), metrics)
	if err != nil {
		logger.Infof("error retrieving metric %s: %v", metrics.ID, err)
		http.Error(w, "Metric name not found ", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(responseMetric)
}

func GetHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository) {
	metricName := chi.URLParam(r, "name")
	metricValue, err := storage.GetMetricByKey(r.Context(), metricName)
	if err != nil {
		http.Error(w, "Metric name not found ", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "%v", metricValue)
}

func GetListHandler(w http.ResponseWriter, r *http.Request, storage repository.Repository) {
	var result string
	metrics, _ := storage.ListMetrics(r.Context())

	for _, v := range metrics {
		result += fmt.Sprintf("%s: %v\n", models.Key(v.Name, v.Tags), v.Value)
	}
	w.Header().Set("Content-Type", "text/html")
	io.WriteString(w, result)
	w.WriteHeader(http.StatusOK)
}
