package strava

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	shared "github.com/fitsync/exporter/pkg"
	"github.com/fitsync/exporter/pkg/backoff"
	"github.com/fitsync/exporter/pkg/domain/activity"
	"github.com/fitsync/exporter/pkg/export"
	"github.com/fitsync/exporter/pkg/uploadrecord"
)

// MetadataUpdater pushes local workout metadata onto the finished remote
// activity. By the time it runs the upload itself has succeeded, so every
// failure here downgrades to a success-with-caveat rather than failing the
// job.
type MetadataUpdater struct {
	Client  *Client
	DB      shared.Database
	Records uploadrecord.Store
	Backoff backoff.Schedule
	Logger  *slog.Logger
}

// Update runs the strictly ordered metadata push:
//
//  1. look up the persisted activity ID (absent: success, update skipped),
//  2. fetch the local summary and map sport type to the remote vocabulary,
//  3. push sport type alone, then poll the activity until the remote
//     reports it back (case-insensitive), bounded by the backoff budget.
//     Pushing sport type together with the other fields has proven
//     unreliable on the remote side,
//  4. push name/gear/description/trainer/commute in one request, omitting
//     empty optionals,
//  5. report the updated remote representation.
func (u *MetadataUpdater) Update(ctx context.Context, job export.Job) export.Result {
	base := job.Descriptor.FileBaseName

	rec, err := u.Records.Get(ctx, job.UserID, base)
	if err != nil {
		u.Logger.Warn("Record lookup failed before metadata update", "file", base, "error", err)
		return export.Successf("upload succeeded; metadata update skipped (record lookup failed)")
	}
	if rec == nil || rec.ActivityID == 0 {
		u.Logger.Info("No activity ID recorded, skipping metadata update", "file", base)
		return export.Successf("upload succeeded; metadata update skipped (no activity id)")
	}
	activityID := rec.ActivityID

	summary, err := u.DB.GetWorkoutSummary(ctx, job.UserID, job.WorkoutID)
	if err != nil || summary == nil {
		u.Logger.Warn("Workout summary unavailable, skipping metadata update", "workout_id", job.WorkoutID, "error", err)
		return export.Successf("upload succeeded (activity %d); metadata update skipped (no local summary)", activityID)
	}

	sportType := activity.StravaSportType(summary.ActivityType)

	// Sport type goes first, in isolation, then we poll until the remote
	// reflects it before touching anything else.
	if got := u.Client.PutActivity(ctx, activityID, url.Values{"sport_type": {sportType}}); got == nil {
		u.Logger.Warn("Sport type update failed", "activity_id", activityID, "sport_type", sportType)
		return export.Successf("upload succeeded (activity %d); metadata update failed", activityID)
	}

	u.awaitSportType(ctx, activityID, sportType)

	form := url.Values{}
	if summary.Name != "" {
		form.Set("name", summary.Name)
	}
	if summary.Description != "" {
		form.Set("description", summary.Description)
	}
	if gearID := u.resolveGear(ctx, job.UserID, summary.EquipmentID); gearID != "" {
		form.Set("gear_id", gearID)
	}
	if summary.Trainer {
		form.Set("trainer", "true")
	}
	if summary.Commute {
		form.Set("commute", "true")
	}

	if len(form) > 0 {
		updated := u.Client.PutActivity(ctx, activityID, form)
		if updated == nil {
			u.Logger.Warn("Metadata update failed", "activity_id", activityID)
			return export.Successf("upload succeeded (activity %d); metadata update failed", activityID)
		}
		u.Records.Upsert(ctx, job.UserID, uploadrecord.Record{
			FileBaseName: base,
			Status:       "metadata updated",
		})
		return export.Successf("activity %d uploaded and updated (%s)", activityID, updated.Name)
	}

	return export.Successf("activity %d uploaded (no metadata to update)", activityID)
}

// awaitSportType polls the activity until its reported sport type matches
// the value just pushed. On budget exhaustion we proceed anyway: the
// remaining fields are still worth pushing.
func (u *MetadataUpdater) awaitSportType(ctx context.Context, activityID int64, want string) {
	for attempt := 0; attempt < u.Backoff.MaxAttempts; attempt++ {
		got := u.Client.GetActivity(ctx, activityID)
		if got != nil && strings.EqualFold(got.SportType, want) {
			return
		}
		if err := u.Backoff.Wait(ctx, attempt); err != nil {
			return
		}
	}
	u.Logger.Warn("Sport type never converged, continuing with remaining fields",
		"activity_id", activityID, "sport_type", want)
}

func (u *MetadataUpdater) resolveGear(ctx context.Context, userID, equipmentID string) string {
	if equipmentID == "" {
		return ""
	}
	eq, err := u.DB.GetEquipment(ctx, userID, equipmentID)
	if err != nil || eq == nil {
		u.Logger.Warn("Equipment lookup failed", "equipment_id", equipmentID, "error", err)
		return ""
	}
	return eq.StravaGearID
}
