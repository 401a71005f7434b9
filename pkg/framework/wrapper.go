// Package framework wraps cloud function handlers with execution auditing
// and per-invocation logger setup.
package framework

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/fitsync/exporter/pkg/bootstrap"
	"github.com/fitsync/exporter/pkg/execution"
	sentryutil "github.com/fitsync/exporter/pkg/infrastructure/sentry"
	"github.com/fitsync/exporter/pkg/types"
)

// FrameworkContext contains dependencies injected by the framework
type FrameworkContext struct {
	Service     *bootstrap.Service
	Logger      *slog.Logger
	ExecutionID string
}

// HandlerFunc is the signature for a cloud function handler
type HandlerFunc func(ctx context.Context, e event.Event, fwCtx *FrameworkContext) (interface{}, error)

// knownStatuses are the values a handler may return under the "status"
// output key to override the recorded execution status.
var knownStatuses = map[string]bool{
	types.StatusStarted: true,
	types.StatusSuccess: true,
	types.StatusFailure: true,
}

// WrapCloudEvent wraps a handler with automatic execution logging.
// A non-nil handler error is returned to the functions framework so the
// trigger redelivers; handlers signal permanent failure by returning
// outputs with a failure status and a nil error.
func WrapCloudEvent(serviceName string, svc *bootstrap.Service, handler HandlerFunc) func(context.Context, event.Event) error {
	return func(ctx context.Context, e event.Event) error {
		userID, testRunID := extractEventMetadata(e)

		triggerType := "pubsub"
		if e.Type() == "google.cloud.functions.http" {
			triggerType = "http"
		}

		logger := bootstrap.NewLogger(serviceName)
		if userID != "" {
			logger = logger.With("user_id", userID)
		}

		execID, err := execution.LogStart(ctx, svc.DB, serviceName, execution.ExecutionOptions{
			UserID:      userID,
			TestRunID:   testRunID,
			TriggerType: triggerType,
		})
		if err != nil {
			// Don't fail the function just because auditing failed.
			logger.Error("Failed to log execution start", "error", err)
		}

		logger = logger.With("execution_id", execID)
		logger.Info("Function started")

		fwCtx := &FrameworkContext{
			Service:     svc,
			Logger:      logger,
			ExecutionID: execID,
		}

		outputs, handlerErr := handler(ctx, e, fwCtx)

		if handlerErr != nil {
			logger.Error("Function failed", "error", handlerErr)
			sentryutil.CaptureException(handlerErr, map[string]interface{}{
				"service":      serviceName,
				"execution_id": execID,
				"user_id":      userID,
			}, logger)
			sentryutil.Flush(2 * time.Second)
			if logErr := execution.LogFailure(ctx, svc.DB, execID, handlerErr, outputs); logErr != nil {
				logger.Warn("Failed to log execution failure", "error", logErr)
			}
			return handlerErr
		}

		logger.Info("Function completed")

		status := customStatus(outputs, logger)
		if status == "" {
			status = types.StatusSuccess
		}
		if logErr := execution.LogStatus(ctx, svc.DB, execID, status, outputs); logErr != nil {
			logger.Warn("Failed to log execution status", "error", logErr)
		}

		return nil
	}
}

// customStatus extracts an overriding status from the handler outputs.
// Accepts both "STATUS_FAILURE" and the loose "failure" form.
func customStatus(outputs interface{}, logger *slog.Logger) string {
	outputsMap, ok := outputs.(map[string]interface{})
	if !ok {
		return ""
	}
	s, ok := outputsMap["status"].(string)
	if !ok || s == "" {
		return ""
	}

	if knownStatuses[s] {
		return s
	}
	if loose := "STATUS_" + strings.ToUpper(s); knownStatuses[loose] {
		return loose
	}

	logger.Warn("Unknown custom status returned", "status", s)
	return types.StatusSuccess
}

// extractEventMetadata extracts user_id and test_run_id from the event.
// Handles both Pub/Sub messages and HTTP requests.
func extractEventMetadata(e event.Event) (userID string, testRunID string) {
	var msg types.PubSubMessage
	if err := e.DataAs(&msg); err == nil {
		var payload map[string]interface{}
		if err := json.Unmarshal(msg.Message.Data, &payload); err == nil {
			if uid, ok := payload["user_id"].(string); ok {
				userID = uid
			}
			if uid, ok := payload["userId"].(string); ok {
				userID = uid
			}
		}

		if msg.Message.Attributes != nil {
			if trid, ok := msg.Message.Attributes["test_run_id"]; ok {
				testRunID = trid
			}
		}
	}

	// HTTP headers arrive as CloudEvent extensions.
	if testRunID == "" {
		extensions := e.Extensions()
		if trid, ok := extensions["test_run_id"].(string); ok {
			testRunID = trid
		}
		if trid, ok := extensions["testrunid"].(string); ok {
			testRunID = trid
		}
	}

	return userID, testRunID
}
