// Package execution records an audit trail of function invocations:
// one document per run with its trigger, status, and outputs.
package execution

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	shared "github.com/fitsync/exporter/pkg"
	"github.com/fitsync/exporter/pkg/types"
)

// ExecutionOptions carries the metadata extracted from the trigger.
type ExecutionOptions struct {
	UserID      string
	TestRunID   string
	TriggerType string
}

// LogStart writes the initial execution record and returns its ID.
func LogStart(ctx context.Context, db shared.Database, serviceName string, opts ExecutionOptions) (string, error) {
	execID := uuid.New().String()

	record := &types.ExecutionRecord{
		ExecutionID: execID,
		Service:     serviceName,
		Status:      types.StatusStarted,
		UserID:      opts.UserID,
		TestRunID:   opts.TestRunID,
		TriggerType: opts.TriggerType,
		StartedAt:   time.Now(),
	}

	if err := db.SetExecution(ctx, record); err != nil {
		return execID, fmt.Errorf("failed to write execution record: %w", err)
	}
	return execID, nil
}

// LogSuccess marks the execution finished with a success status.
func LogSuccess(ctx context.Context, db shared.Database, execID string, outputs interface{}) error {
	return LogStatus(ctx, db, execID, types.StatusSuccess, outputs)
}

// LogFailure marks the execution finished with a failure status and the
// error message that caused it.
func LogFailure(ctx context.Context, db shared.Database, execID string, cause error, outputs interface{}) error {
	data := finishData(types.StatusFailure, outputs)
	if cause != nil {
		data["error"] = cause.Error()
	}
	return db.UpdateExecution(ctx, execID, data)
}

// LogStatus marks the execution finished with an arbitrary status string.
func LogStatus(ctx context.Context, db shared.Database, execID string, status string, outputs interface{}) error {
	return db.UpdateExecution(ctx, execID, finishData(status, outputs))
}

func finishData(status string, outputs interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"status":      status,
		"finished_at": time.Now(),
	}
	if outputs != nil {
		// Stored as JSON text so arbitrary handler outputs never fight
		// the document schema.
		if encoded, err := json.Marshal(outputs); err == nil {
			data["outputs_json"] = string(encoded)
		}
	}
	return data
}
