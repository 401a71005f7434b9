// Package types holds the plain data records exchanged between the
// pipeline's components and persisted to Firestore.
package types

import "time"

// PubSubMessage is the payload of a Pub/Sub event via Cloud Event.
type PubSubMessage struct {
	Message struct {
		Data       []byte            `json:"data"`
		Attributes map[string]string `json:"attributes"`
	} `json:"message"`
}

// ExportRequestEvent is the business event that triggers one export job:
// a finished workout file that should be pushed to a remote destination.
type ExportRequestEvent struct {
	UserID       string `json:"user_id"`
	WorkoutID    string `json:"workout_id"`
	FileBaseName string `json:"file_base_name"`
	FileFormat   string `json:"file_format"`
	Destination  string `json:"destination"`
	FileURI      string `json:"file_uri"`
}

// StravaIntegration holds the user's Strava OAuth state.
type StravaIntegration struct {
	Enabled      bool      `firestore:"enabled" json:"enabled"`
	AccessToken  string    `firestore:"access_token" json:"access_token"`
	RefreshToken string    `firestore:"refresh_token" json:"refresh_token"`
	ExpiresAt    time.Time `firestore:"expires_at" json:"expires_at"`
	LastUsedAt   time.Time `firestore:"last_used_at" json:"last_used_at"`
}

// Integrations groups the user's linked remote services.
type Integrations struct {
	Strava *StravaIntegration `firestore:"strava" json:"strava"`
}

// UserRecord is the user document.
type UserRecord struct {
	ID           string        `firestore:"id" json:"id"`
	Integrations *Integrations `firestore:"integrations" json:"integrations"`
	FCMTokens    []string      `firestore:"fcm_tokens" json:"fcm_tokens"`
}

// WorkoutSummary is the local, read-only summary of a finished workout.
// ActivityType is the local vocabulary; mapping to the remote service's
// strings happens in pkg/domain/activity.
type WorkoutSummary struct {
	WorkoutID    string `firestore:"workout_id" json:"workout_id"`
	Name         string `firestore:"name" json:"name"`
	Description  string `firestore:"description" json:"description"`
	ActivityType string `firestore:"activity_type" json:"activity_type"`
	Trainer      bool   `firestore:"trainer" json:"trainer"`
	Commute      bool   `firestore:"commute" json:"commute"`
	EquipmentID  string `firestore:"equipment_id" json:"equipment_id"`
}

// EquipmentRecord maps a local equipment entry to its remote identifier.
type EquipmentRecord struct {
	ID           string `firestore:"id" json:"id"`
	Name         string `firestore:"name" json:"name"`
	StravaGearID string `firestore:"strava_gear_id" json:"strava_gear_id"`
}

// Execution statuses written by the framework wrapper.
const (
	StatusStarted = "STATUS_STARTED"
	StatusSuccess = "STATUS_SUCCESS"
	StatusFailure = "STATUS_FAILURE"
)

// ExecutionRecord is the audit entry for one function invocation.
type ExecutionRecord struct {
	ExecutionID string    `firestore:"execution_id" json:"execution_id"`
	Service     string    `firestore:"service" json:"service"`
	Status      string    `firestore:"status" json:"status"`
	UserID      string    `firestore:"user_id" json:"user_id"`
	TestRunID   string    `firestore:"test_run_id" json:"test_run_id"`
	TriggerType string    `firestore:"trigger_type" json:"trigger_type"`
	StartedAt   time.Time `firestore:"started_at" json:"started_at"`
}
