// Package audit provides audit logging for metric ingest operations.
//
// It implements a publish-subscribe pattern for distributing audit events to
// multiple destinations including files and HTTP endpoints.
package audit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Schera-ole/nodemetrics/internal/config"
	models "github.com/Schera-ole/nodemetrics/internal/model"
)

// AuditLogger is an interface for logging audit events.
type AuditLogger interface {
	// Log sends an audit event with the specified metric names and client IP address.
	Log(metrics []string, ipAddress string)
}

// auditLogger is a concrete implementation of AuditLogger that sends events to a channel.
type auditLogger struct {
	eventChan chan models.AuditEvent
	logger    *zap.SugaredLogger
}

// NewAuditLogger creates a new AuditLogger that sends events to the provided channel.
func NewAuditLogger(eventChan chan models.AuditEvent, logger *zap.SugaredLogger) AuditLogger {
	return &auditLogger{
		eventChan: eventChan,
		logger:    logger,
	}
}

// Log sends an audit event with the specified metric names and IP address.
func (a *auditLogger) Log(metrics []string, ipAddress string) {
	event := models.AuditEvent{
		TS:        time.Now().Format(time.RFC3339),
		Metrics:   metrics,
		IPAddress: ipAddress,
	}

	select {
	case a.eventChan <- event:
		// Event sent successfully
	default:
		// Channel is full, drop the event to prevent blocking
		a.logger.Infof("audit logger dropped event, channel is full")
	}
}

// Broadcaster distributes audit events to multiple subscriber channels.
//
// It receives events from a source channel and sends them to all provided
// subscriber channels using select with default case to prevent blocking and
// goroutine leaks.
func Broadcaster(source <-chan models.AuditEvent, logger *zap.SugaredLogger, subs ...chan<- models.AuditEvent) {
	for evt := range source {
		for _, subChan := range subs {
			select {
			case subChan <- evt:
				// Event sent successfully
			default:
				// Channel is blocked, discard event to prevent goroutine leak
				logger.Infof("broadcaster dropped event for blocked subscriber channel")
			}
		}
	}
}

// FileSubscriber appends audit events to the configured audit file.
func FileSubscriber(events <-chan models.AuditEvent, config config.ServerConfig, logger *zap.SugaredLogger) {
	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			logger.Errorf("file subscriber failed to marshal event: %v", err)
			continue
		}
		f, err := os.OpenFile(config.AuditFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			logger.Errorf("file subscriber couldn't open %s: %v", config.AuditFile, err)
			continue
		}
		_, err = f.WriteString(string(data) + "\n")
		if err != nil {
			logger.Errorf("file subscriber write failed: %v", err)
		}
		f.Close()
	}
}

// URLSubscriber sends audit events to the configured HTTP endpoint.
func URLSubscriber(events <-chan models.AuditEvent, config config.ServerConfig, logger *zap.SugaredLogger) {
	for evt := range events {
		data, err := json.Marshal(evt)
		if err != nil {
			logger.Errorf("url subscriber failed to marshal event: %v", err)
			continue
		}
		resp, err := http.Post(config.AuditURL, "application/json", bytes.NewBuffer(data))
		if err != nil {
			logger.Errorf("url subscriber failed to post to %s: %v", config.AuditURL, err)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
