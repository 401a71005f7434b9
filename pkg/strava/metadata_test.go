package strava

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fitsync/exporter/pkg/testing/mocks"
	"github.com/fitsync/exporter/pkg/types"
	"github.com/fitsync/exporter/pkg/uploadrecord"
)

func newTestUpdater(mock *MockHTTPClient, records uploadrecord.Store, db *mocks.MockDatabase) *MetadataUpdater {
	return &MetadataUpdater{
		Client:  newTestClient(mock),
		DB:      db,
		Records: records,
		Backoff: testSchedule(),
		Logger:  slog.Default(),
	}
}

func seedActivityID(t *testing.T, records uploadrecord.Store, activityID int64) {
	t.Helper()
	err := records.Upsert(context.Background(), "user-1", uploadrecord.Record{
		FileBaseName: "2024-05-04_0800",
		ActivityID:   activityID,
	})
	assert.NoError(t, err)
}

func TestUpdatePushesSportTypeBeforeRemainingFields(t *testing.T) {
	var calls []string
	gets := 0

	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			switch {
			case req.Method == "PUT" && req.URL.Path == "/api/v3/activities/888":
				body, _ := io.ReadAll(req.Body)
				calls = append(calls, "PUT "+string(body))
				return jsonResponse(200, `{"id": 888, "name": "Morning Run", "sport_type": "Run"}`), nil

			case req.Method == "GET" && req.URL.Path == "/api/v3/activities/888":
				gets++
				calls = append(calls, "GET")
				if gets == 1 {
					// Remote has not converged yet.
					return jsonResponse(200, `{"id": 888, "sport_type": "Workout"}`), nil
				}
				return jsonResponse(200, `{"id": 888, "sport_type": "Run"}`), nil
			}
			t.Errorf("Unexpected request: %s %s", req.Method, req.URL.Path)
			return nil, nil
		},
	}

	db := &mocks.MockDatabase{
		GetWorkoutSummaryFunc: func(ctx context.Context, userID, workoutID string) (*types.WorkoutSummary, error) {
			return &types.WorkoutSummary{
				WorkoutID:    workoutID,
				Name:         "Morning Run",
				Description:  "Easy pace",
				ActivityType: "run",
				EquipmentID:  "shoes-1",
			}, nil
		},
		GetEquipmentFunc: func(ctx context.Context, userID, equipmentID string) (*types.EquipmentRecord, error) {
			return &types.EquipmentRecord{ID: equipmentID, StravaGearID: "g12345"}, nil
		},
	}

	records := uploadrecord.NewMemoryStore()
	seedActivityID(t, records, 888)

	res := newTestUpdater(mock, records, db).Update(context.Background(), testJob())

	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "Morning Run")

	// Sport type alone, then convergence polls, then everything else.
	assert.GreaterOrEqual(t, len(calls), 4)
	assert.Equal(t, "PUT sport_type=Run", calls[0])
	assert.Equal(t, "GET", calls[1])
	assert.Equal(t, "GET", calls[2])
	last := calls[len(calls)-1]
	assert.Contains(t, last, "name=Morning+Run")
	assert.Contains(t, last, "description=Easy+pace")
	assert.Contains(t, last, "gear_id=g12345")
	assert.NotContains(t, last, "sport_type")

	rec, _ := records.Get(context.Background(), "user-1", "2024-05-04_0800")
	assert.Equal(t, "metadata updated", rec.Status)
}

func TestUpdateOmitsEmptyOptionalFields(t *testing.T) {
	var lastPut string
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			if req.Method == "PUT" {
				body, _ := io.ReadAll(req.Body)
				lastPut = string(body)
				return jsonResponse(200, `{"id": 888, "name": "Workout", "sport_type": "Run"}`), nil
			}
			return jsonResponse(200, `{"id": 888, "sport_type": "Run"}`), nil
		},
	}

	db := &mocks.MockDatabase{
		GetWorkoutSummaryFunc: func(ctx context.Context, userID, workoutID string) (*types.WorkoutSummary, error) {
			return &types.WorkoutSummary{WorkoutID: workoutID, Name: "Workout", ActivityType: "run", Trainer: true}, nil
		},
	}

	records := uploadrecord.NewMemoryStore()
	seedActivityID(t, records, 888)

	res := newTestUpdater(mock, records, db).Update(context.Background(), testJob())

	assert.True(t, res.Success)
	assert.Contains(t, lastPut, "name=Workout")
	assert.Contains(t, lastPut, "trainer=true")
	assert.NotContains(t, lastPut, "description")
	assert.NotContains(t, lastPut, "gear_id")
	assert.NotContains(t, lastPut, "commute")
}

func TestUpdateWithoutActivityIDSkips(t *testing.T) {
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			t.Errorf("Unexpected request: %s %s", req.Method, req.URL.Path)
			return nil, nil
		},
	}

	res := newTestUpdater(mock, uploadrecord.NewMemoryStore(), &mocks.MockDatabase{}).
		Update(context.Background(), testJob())

	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "skipped")
}

func TestUpdateSportTypePushFailureIsStillSuccess(t *testing.T) {
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(500, `{"message": "server error"}`), nil
		},
	}

	db := &mocks.MockDatabase{
		GetWorkoutSummaryFunc: func(ctx context.Context, userID, workoutID string) (*types.WorkoutSummary, error) {
			return &types.WorkoutSummary{WorkoutID: workoutID, ActivityType: "run"}, nil
		},
	}

	records := uploadrecord.NewMemoryStore()
	seedActivityID(t, records, 888)

	res := newTestUpdater(mock, records, db).Update(context.Background(), testJob())

	// The upload itself already succeeded; a failed metadata push never
	// fails the job.
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "metadata update failed")
}
