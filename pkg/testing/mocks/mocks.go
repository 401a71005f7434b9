package mocks

import (
	"context"
	"fmt"

	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/fitsync/exporter/pkg/types"
)

// --- Mock Database ---
type MockDatabase struct {
	SetExecutionFunc      func(ctx context.Context, record *types.ExecutionRecord) error
	UpdateExecutionFunc   func(ctx context.Context, id string, data map[string]interface{}) error
	GetUserFunc           func(ctx context.Context, id string) (*types.UserRecord, error)
	UpdateUserFunc        func(ctx context.Context, id string, data map[string]interface{}) error
	GetWorkoutSummaryFunc func(ctx context.Context, userID, workoutID string) (*types.WorkoutSummary, error)
	GetEquipmentFunc      func(ctx context.Context, userID, equipmentID string) (*types.EquipmentRecord, error)
}

func (m *MockDatabase) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	if m.SetExecutionFunc != nil {
		return m.SetExecutionFunc(ctx, record)
	}
	return nil
}
func (m *MockDatabase) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateExecutionFunc != nil {
		return m.UpdateExecutionFunc(ctx, id, data)
	}
	return nil
}
func (m *MockDatabase) GetUser(ctx context.Context, id string) (*types.UserRecord, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, id)
	}
	return nil, fmt.Errorf("user not found")
}
func (m *MockDatabase) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	if m.UpdateUserFunc != nil {
		return m.UpdateUserFunc(ctx, id, data)
	}
	return nil
}
func (m *MockDatabase) GetWorkoutSummary(ctx context.Context, userID, workoutID string) (*types.WorkoutSummary, error) {
	if m.GetWorkoutSummaryFunc != nil {
		return m.GetWorkoutSummaryFunc(ctx, userID, workoutID)
	}
	return nil, fmt.Errorf("workout not found")
}
func (m *MockDatabase) GetEquipment(ctx context.Context, userID, equipmentID string) (*types.EquipmentRecord, error) {
	if m.GetEquipmentFunc != nil {
		return m.GetEquipmentFunc(ctx, userID, equipmentID)
	}
	return nil, fmt.Errorf("equipment not found")
}

// --- Mock Publisher ---
type MockPublisher struct {
	PublishCloudEventFunc func(ctx context.Context, topic string, e event.Event) (string, error)
}

func (m *MockPublisher) PublishCloudEvent(ctx context.Context, topic string, e event.Event) (string, error) {
	if m.PublishCloudEventFunc != nil {
		return m.PublishCloudEventFunc(ctx, topic, e)
	}
	return "msg-id", nil
}

// --- Mock Storage ---
type MockBlobStore struct {
	WriteFunc func(ctx context.Context, bucket, object string, data []byte) error
	ReadFunc  func(ctx context.Context, bucket, object string) ([]byte, error)
}

func (m *MockBlobStore) Write(ctx context.Context, bucket, object string, data []byte) error {
	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, bucket, object, data)
	}
	return nil
}
func (m *MockBlobStore) Read(ctx context.Context, bucket, object string) ([]byte, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(ctx, bucket, object)
	}
	return []byte("mock-data"), nil
}

// --- Mock Notifications ---
type MockNotificationService struct {
	SendPushNotificationFunc func(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error
}

func (m *MockNotificationService) SendPushNotification(ctx context.Context, userID string, title, body string, tokens []string, data map[string]string) error {
	if m.SendPushNotificationFunc != nil {
		return m.SendPushNotificationFunc(ctx, userID, title, body, tokens, data)
	}
	return nil
}
