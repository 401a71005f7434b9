package database

import (
	"context"

	"cloud.google.com/go/firestore"

	shared "github.com/fitsync/exporter/pkg"
	typed "github.com/fitsync/exporter/pkg/storage/firestore"
	"github.com/fitsync/exporter/pkg/types"
)

// FirestoreAdapter implements shared.Database on Firestore.
type FirestoreAdapter struct {
	Client *firestore.Client
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{Client: client}
}

func (a *FirestoreAdapter) executions() *typed.Collection[types.ExecutionRecord] {
	return typed.NewCollection[types.ExecutionRecord](a.Client.Collection(shared.CollectionExecutions))
}

func (a *FirestoreAdapter) users() *typed.Collection[types.UserRecord] {
	return typed.NewCollection[types.UserRecord](a.Client.Collection(shared.CollectionUsers))
}

func (a *FirestoreAdapter) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	return a.executions().Doc(record.ExecutionID).Set(ctx, record)
}

func (a *FirestoreAdapter) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	return a.executions().Doc(id).Update(ctx, data)
}

func (a *FirestoreAdapter) GetUser(ctx context.Context, id string) (*types.UserRecord, error) {
	return a.users().Doc(id).Get(ctx)
}

func (a *FirestoreAdapter) UpdateUser(ctx context.Context, id string, data map[string]interface{}) error {
	return a.users().Doc(id).Update(ctx, data)
}

func (a *FirestoreAdapter) GetWorkoutSummary(ctx context.Context, userID, workoutID string) (*types.WorkoutSummary, error) {
	ref := a.Client.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionWorkouts)
	return typed.NewCollection[types.WorkoutSummary](ref).Doc(workoutID).Get(ctx)
}

func (a *FirestoreAdapter) GetEquipment(ctx context.Context, userID, equipmentID string) (*types.EquipmentRecord, error) {
	ref := a.Client.Collection(shared.CollectionUsers).Doc(userID).Collection(shared.CollectionEquipment)
	return typed.NewCollection[types.EquipmentRecord](ref).Doc(equipmentID).Get(ctx)
}
