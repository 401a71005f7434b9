package strava

import (
	"context"
	"log/slog"

	"github.com/fitsync/exporter/pkg/backoff"
	"github.com/fitsync/exporter/pkg/export"
	"github.com/fitsync/exporter/pkg/uploadrecord"
)

// Poller converts a just-accepted upload into a terminal state:
// PROCESSING -> {READY, DELETED, ERROR}, or a retryable timeout once the
// attempt budget runs out. On ERROR it tries duplicate resolution before
// giving up.
type Poller struct {
	Client   *Client
	Records  uploadrecord.Store
	Metadata *MetadataUpdater
	Backoff  backoff.Schedule
	Logger   *slog.Logger
}

// Await polls the upload's processing status with geometric backoff.
// Each record-store write along the way is idempotent, so cancellation at
// any suspension point leaves no partial state behind.
func (p *Poller) Await(ctx context.Context, job export.Job, uploadID int64) export.Result {
	base := job.Descriptor.FileBaseName

	for attempt := 0; attempt < p.Backoff.MaxAttempts; attempt++ {
		if err := p.Backoff.Wait(ctx, attempt); err != nil {
			return export.RetryableFailure("polling cancelled: %v", err)
		}

		resp := p.Client.GetUpload(ctx, uploadID)
		if resp == nil {
			// Could not confirm status this round; the budget bounds us.
			p.Logger.Debug("Status poll unconfirmed", "upload_id", uploadID, "attempt", attempt)
			continue
		}

		status := ParseUploadStatus(resp)
		p.Logger.Info("Upload status", "upload_id", uploadID, "status", status.String(), "attempt", attempt)

		p.Records.Upsert(ctx, job.UserID, uploadrecord.Record{
			FileBaseName: base,
			UploadID:     uploadID,
			Status:       resp.Status,
		})

		switch status {
		case StatusProcessing:
			continue

		case StatusReady:
			if resp.ActivityID == 0 {
				// The upload itself succeeded; the missing ID only costs
				// us the metadata update.
				p.Logger.Warn("Upload ready but no activity ID in response", "upload_id", uploadID)
				return export.Successf("upload %d processed; metadata update skipped (no activity id)", uploadID)
			}
			p.Records.Upsert(ctx, job.UserID, uploadrecord.Record{
				FileBaseName: base,
				ActivityID:   resp.ActivityID,
			})
			return p.Metadata.Update(ctx, job)

		case StatusDeleted:
			return export.Failure("upload %d: activity was deleted on the remote service", uploadID)

		case StatusError:
			return p.resolveError(ctx, job, uploadID, resp.ErrorText())
		}
	}

	return export.RetryableFailure("timeout waiting for upload %d processing after %d attempts", uploadID, p.Backoff.MaxAttempts)
}

// resolveError handles a terminal ERROR status: a duplicate-upload error
// carrying an activity reference is recovered transparently, anything else
// is a permanent failure surfaced verbatim.
func (p *Poller) resolveError(ctx context.Context, job export.Job, uploadID int64, errText string) export.Result {
	activityID, ok := ExtractDuplicateActivityID(errText)
	if !ok {
		p.Records.Upsert(ctx, job.UserID, uploadrecord.Record{
			FileBaseName: job.Descriptor.FileBaseName,
			LastError:    errText,
		})
		return export.Failure("remote service rejected upload %d: %s", uploadID, errText)
	}

	p.Logger.Info("Duplicate upload resolved to existing activity",
		"upload_id", uploadID, "activity_id", activityID)

	p.Records.Upsert(ctx, job.UserID, uploadrecord.Record{
		FileBaseName: job.Descriptor.FileBaseName,
		UploadID:     uploadID,
		ActivityID:   activityID,
		Status:       "duplicate resolved",
		LastError:    errText,
	})

	return p.Metadata.Update(ctx, job)
}
