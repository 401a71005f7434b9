package shared

import (
	"context"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/fitsync/exporter/pkg/types"
)

// --- Persistence Interfaces ---

type Database interface {
	SetExecution(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error

	GetUser(ctx context.Context, id string) (*types.UserRecord, error)
	UpdateUser(ctx context.Context, id string, data map[string]interface{}) error

	// Local workout summary / equipment lookups (read-only collaborators)
	GetWorkoutSummary(ctx context.Context, userID, workoutID string) (*types.WorkoutSummary, error)
	GetEquipment(ctx context.Context, userID, equipmentID string) (*types.EquipmentRecord, error)
}

// --- Messaging Interfaces ---

type Publisher interface {
	PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error)
}

// --- Storage Interfaces ---

type BlobStore interface {
	Write(ctx context.Context, bucket, object string, data []byte) error
	Read(ctx context.Context, bucket, object string) ([]byte, error)
}

// --- Notification Interfaces ---

type NotificationService interface {
	SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}
