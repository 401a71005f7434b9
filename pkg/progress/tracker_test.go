package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/fitsync/exporter/pkg/testing/mocks"
	"github.com/fitsync/exporter/pkg/types"
)

func TestCountsTrackStates(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(nil, nil, nil)

	tr.Set(ctx, "u1", "file_a", "community", StateWaiting)
	tr.Set(ctx, "u1", "file_b", "community", StateWaiting)
	tr.Set(ctx, "u1", "file_a", "community", StateRunning)
	tr.Set(ctx, "u1", "file_b", "community", StateSucceeded)
	tr.Set(ctx, "u2", "file_c", "community", StateFailed)

	got := tr.Counts("u1")
	if got.Running != 1 || got.Succeeded != 1 || got.Waiting != 0 || got.Failed != 0 {
		t.Errorf("Counts(u1) = %+v", got)
	}
	if c := tr.Counts("u2"); c.Failed != 1 {
		t.Errorf("Counts(u2) = %+v", c)
	}
}

func TestTerminalStateNeverRegresses(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(nil, nil, nil)

	tr.Set(ctx, "u1", "file_a", "community", StateSucceeded)
	tr.Set(ctx, "u1", "file_a", "community", StateRunning)

	got := tr.Counts("u1")
	if got.Running != 0 || got.Succeeded != 1 {
		t.Errorf("terminal state regressed: %+v", got)
	}

	tr.Set(ctx, "u1", "file_b", "community", StateFailed)
	tr.Set(ctx, "u1", "file_b", "community", StateWaiting)
	if got := tr.Counts("u1"); got.Failed != 1 || got.Waiting != 0 {
		t.Errorf("failed state regressed: %+v", got)
	}
}

func TestNotifierFailureDoesNotPropagate(t *testing.T) {
	ctx := context.Background()

	db := &mocks.MockDatabase{
		GetUserFunc: func(ctx context.Context, id string) (*types.UserRecord, error) {
			return &types.UserRecord{ID: id, FCMTokens: []string{"tok1"}}, nil
		},
	}
	notify := &mocks.MockNotificationService{
		SendPushNotificationFunc: func(ctx context.Context, userID, title, body string, tokens []string, data map[string]string) error {
			return errors.New("fcm is down")
		},
	}

	tr := NewTracker(db, notify, nil)
	tr.Set(ctx, "u1", "file_a", "community", StateRunning) // must not panic or error

	if got := tr.Counts("u1"); got.Running != 1 {
		t.Errorf("state lost after notifier failure: %+v", got)
	}
}

func TestPushIncludesSummaryCounts(t *testing.T) {
	ctx := context.Background()

	var gotBody string
	notify := &mocks.MockNotificationService{
		SendPushNotificationFunc: func(ctx context.Context, userID, title, body string, tokens []string, data map[string]string) error {
			gotBody = body
			return nil
		},
	}

	tr := NewTracker(nil, notify, nil)
	tr.Set(ctx, "u1", "file_a", "community", StateRunning)

	want := "0 waiting, 1 running, 0 succeeded, 0 failed"
	if gotBody != want {
		t.Errorf("notification body = %q, want %q", gotBody, want)
	}
}
