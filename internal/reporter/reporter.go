// Package reporter ships registry snapshots to the ingest server as gzipped,
// optionally HMAC-signed JSON batches.
package reporter

import (
	"bytes"
	"compress/gzip"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	models "github.com/Schera-ole/nodemetrics/internal/model"
)

// Reporter posts metric batches to a single endpoint.
type Reporter struct {
	client *http.Client
	url    string
	key    string
	logger *zap.SugaredLogger
}

// New creates a reporter posting to url. When key is non-empty every request
// carries an HMAC-SHA256 signature of the compressed body.
func New(client *http.Client, url string, key string, logger *zap.SugaredLogger) *Reporter {
	return &Reporter{client: client, url: url, key: key, logger: logger}
}

func isRetryableError(err error) bool {
	// Check if the error is a PostgreSQL error surfaced by the server
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgerrcode.UniqueViolation {
			return true
		}
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return true
		}
	}

	// Check any network errors
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "connection reset by peer") {
		return true
	}

	return false
}

func countHash(compressedBody []byte, key string) []byte {
	keyBytes := []byte(key)
	h := hmac.New(sha256.New, keyBytes)
	h.Write(compressedBody)
	return h.Sum(nil)
}

func countHashString(compressedBody []byte, key string) string {
	hash := countHash(compressedBody, key)
	return fmt.Sprintf("%x", hash)
}

// toDTO converts a metric to its wire representation.
func toDTO(metric models.Metric) models.MetricsDTO {
	dto := models.MetricsDTO{
		ID:    metric.Name,
		MType: metric.Type,
		Tags:  metric.Tags,
	}
	switch metric.Type {
	case models.Gauge:
		switch val := metric.Value.(type) {
		case float64:
			dto.Value = &val
		case uint64:
			floatVal := float64(val)
			dto.Value = &floatVal
		case int64:
			floatVal := float64(val)
			dto.Value = &floatVal
		}
	case models.Counter:
		if val, ok := metric.Value.(int64); ok {
			dto.Delta = &val
		}
	}
	return dto
}

// Report sends one metric batch, retrying retryable failures with a fixed
// backoff schedule. These retries cover only the outbound transport; the
// sampling side never retries and simply produces a fresh batch next cycle.
func (r *Reporter) Report(metrics []models.Metric) error {
	if len(metrics) == 0 {
		return nil
	}
	sendingData := make([]models.MetricsDTO, 0, len(metrics))
	for _, metric := range metrics {
		sendingData = append(sendingData, toDTO(metric))
	}
	jsonData, err := json.Marshal(sendingData)
	if err != nil {
		return fmt.Errorf("error creating json: %w", err)
	}
	var compressedData bytes.Buffer
	gzipWriter := gzip.NewWriter(&compressedData)
	if _, err := gzipWriter.Write(jsonData); err != nil {
		return fmt.Errorf("error compressing data: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("error closing gzip writer: %w", err)
	}
	var hash string
	if r.key != "" {
		hash = countHashString(compressedData.Bytes(), r.key)
	}
	body := compressedData.Bytes()

	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}
	var lastErr error

	for attempt := 0; attempt < 4; attempt++ {
		if attempt > 0 && attempt <= len(delays) {
			delay := delays[attempt-1]
			r.logger.Infof("retry attempt %d after %v delay", attempt, delay)
			time.Sleep(delay)
		}

		request, err := http.NewRequest(http.MethodPost, r.url, bytes.NewReader(body))
		if err != nil {
			lastErr = fmt.Errorf("error creating request for %s: %w", r.url, err)
			continue
		}
		request.Header.Set("Content-Type", "application/json")
		request.Header.Set("Accept-Encoding", "gzip")
		request.Header.Set("Content-Encoding", "gzip")
		if hash != "" {
			request.Header.Set("HashSHA256", hash)
		}

		response, err := r.client.Do(request)
		if err != nil {
			lastErr = fmt.Errorf("error sending request for %s: %w", r.url, err)
			if isRetryableError(err) {
				r.logger.Infof("retryable error occurred: %v", err)
				continue
			}
			return lastErr
		}

		respBody, err := io.ReadAll(response.Body)
		response.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("error reading response body: %w", err)
			continue
		}

		if response.StatusCode >= 200 && response.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("server returned error status %d: %s", response.StatusCode, string(respBody))
		if response.StatusCode >= 500 && response.StatusCode < 600 {
			r.logger.Infof("server error (5xx), will retry: %v", lastErr)
			continue
		}
		return lastErr
	}

	return fmt.Errorf("failed to send metrics after 4 attempts: %w", lastErr)
}
