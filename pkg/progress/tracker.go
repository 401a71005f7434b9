// Package progress aggregates per-file, per-destination export status into
// the human-readable summary pushed to the user's devices.
package progress

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	shared "github.com/fitsync/exporter/pkg"
)

// State is one export job's position in its lifecycle.
type State int

const (
	StateWaiting State = iota
	StateRunning
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "waiting"
	}
}

func (s State) terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

type key struct {
	userID      string
	fileBase    string
	destination string
}

// Summary is the per-user count of jobs by state.
type Summary struct {
	Waiting   int
	Running   int
	Succeeded int
	Failed    int
}

func (s Summary) String() string {
	return fmt.Sprintf("%d waiting, %d running, %d succeeded, %d failed",
		s.Waiting, s.Running, s.Succeeded, s.Failed)
}

// Tracker keeps the live status map and pushes summaries through the
// notification service. Notification failures are logged and swallowed;
// they must never affect a pipeline's outcome. Once a job reaches a
// terminal state it can never regress to an in-progress one.
type Tracker struct {
	mu     sync.Mutex
	jobs   map[key]State
	db     shared.Database
	notify shared.NotificationService
	logger *slog.Logger
}

func NewTracker(db shared.Database, notify shared.NotificationService, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		jobs:   make(map[key]State),
		db:     db,
		notify: notify,
		logger: logger,
	}
}

// Set records a state transition and pushes an updated summary.
// Transitions out of a terminal state are ignored.
func (t *Tracker) Set(ctx context.Context, userID, fileBase, destination string, state State) {
	k := key{userID, fileBase, destination}

	t.mu.Lock()
	cur, seen := t.jobs[k]
	if seen && cur.terminal() && !state.terminal() {
		t.mu.Unlock()
		t.logger.Debug("Ignoring regression from terminal state",
			"file", fileBase, "from", cur.String(), "to", state.String())
		return
	}
	t.jobs[k] = state
	summary := t.summaryLocked(userID)
	t.mu.Unlock()

	t.push(ctx, userID, fileBase, destination, state, summary)
}

// Counts returns the current per-state counts for a user.
func (t *Tracker) Counts(userID string) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.summaryLocked(userID)
}

func (t *Tracker) summaryLocked(userID string) Summary {
	var s Summary
	for k, st := range t.jobs {
		if k.userID != userID {
			continue
		}
		switch st {
		case StateWaiting:
			s.Waiting++
		case StateRunning:
			s.Running++
		case StateSucceeded:
			s.Succeeded++
		case StateFailed:
			s.Failed++
		}
	}
	return s
}

// push is fire-and-forget: lookup the user's device tokens and send the
// summary; any failure is logged only.
func (t *Tracker) push(ctx context.Context, userID, fileBase, destination string, state State, summary Summary) {
	if t.notify == nil {
		return
	}

	var tokens []string
	if t.db != nil {
		user, err := t.db.GetUser(ctx, userID)
		if err != nil || user == nil {
			t.logger.Warn("Could not load user for progress notification", "user_id", userID, "error", err)
			return
		}
		tokens = user.FCMTokens
	}

	title := fmt.Sprintf("Export %s: %s", state.String(), fileBase)
	err := t.notify.SendPushNotification(ctx, userID, title, summary.String(), tokens, map[string]string{
		"file_base_name": fileBase,
		"destination":    destination,
		"state":          state.String(),
	})
	if err != nil {
		t.logger.Warn("Progress notification failed", "user_id", userID, "error", err)
	}
}
