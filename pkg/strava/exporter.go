package strava

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	shared "github.com/fitsync/exporter/pkg"
	"github.com/fitsync/exporter/pkg/backoff"
	"github.com/fitsync/exporter/pkg/export"
	"github.com/fitsync/exporter/pkg/fitfile"
	infrapubsub "github.com/fitsync/exporter/pkg/infrastructure/pubsub"
	"github.com/fitsync/exporter/pkg/progress"
	"github.com/fitsync/exporter/pkg/uploadrecord"
)

// Exporter is the top-level orchestration for one export job: read the
// payload, upload it, then hand the accepted upload to the status poller
// (which may route through duplicate resolution and the metadata updater).
type Exporter struct {
	Client   *Client
	DB       shared.Database
	Blobs    shared.BlobStore
	Records  uploadrecord.Store
	Pub      shared.Publisher
	Progress *progress.Tracker
	Backoff  backoff.Schedule
	Bucket   string
	Logger   *slog.Logger

	poller *Poller
}

func NewExporter(client *Client, db shared.Database, blobs shared.BlobStore, records uploadrecord.Store, sched backoff.Schedule, bucket string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Exporter{
		Client:  client,
		DB:      db,
		Blobs:   blobs,
		Records: records,
		Backoff: sched,
		Bucket:  bucket,
		Logger:  logger,
	}
	e.poller = &Poller{
		Client:  client,
		Records: records,
		Backoff: sched,
		Logger:  logger,
		Metadata: &MetadataUpdater{
			Client:  client,
			DB:      db,
			Records: records,
			Backoff: sched,
			Logger:  logger,
		},
	}
	return e
}

// Export runs one job end to end and returns its result. The caller owns
// scheduling: a retryable result may be re-enqueued, everything else is
// final. Cancellation of ctx stops the pipeline at the next suspension
// point with no partial record-store state.
func (e *Exporter) Export(ctx context.Context, job export.Job, fileURI string) export.Result {
	base := job.Descriptor.FileBaseName

	e.setProgress(ctx, job, progress.StateRunning)

	objectName := strings.TrimPrefix(fileURI, "gs://"+e.Bucket+"/")
	payload, err := e.Blobs.Read(ctx, e.Bucket, objectName)
	if err != nil {
		e.Logger.Error("Artifact read failed", "uri", fileURI, "error", err)
		return e.finish(ctx, job, export.RetryableFailure("could not read artifact %s: %v", fileURI, err))
	}

	if job.Descriptor.Format == export.FormatFIT {
		if err := fitfile.Validate(payload); err != nil {
			e.Logger.Error("Artifact failed FIT validation", "file", base, "error", err)
			return e.finish(ctx, job, export.Failure("artifact %s is not a valid FIT activity: %v", base, err))
		}
	}

	body, status, err := e.Client.Upload(ctx, job.Descriptor.FileName(), payload, string(job.Descriptor.Format))
	if err != nil {
		// Transport-level: the remote never saw (or never answered) us.
		e.Logger.Error("Upload transport error", "file", base, "error", err)
		return e.finish(ctx, job, export.RetryableFailure("upload failed: %v", err))
	}

	if status != 200 && status != 201 {
		e.Logger.Error("Upload rejected", "file", base, "status", status, "body", string(body))
		return e.finish(ctx, job, export.Failure("remote service rejected upload (status %d): %s", status, string(body)))
	}

	var resp UploadResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.ID == 0 {
		// Ambiguous server state: accepted status but no usable body.
		// Do not guess and do not retry into a possible double upload.
		e.Logger.Error("Upload response unusable", "file", base, "body", string(body), "error", err)
		return e.finish(ctx, job, export.Failure("remote service returned an unusable upload response"))
	}

	e.Logger.Info("Upload accepted", "file", base, "upload_id", resp.ID, "status", resp.Status)

	e.Records.Upsert(ctx, job.UserID, uploadrecord.Record{
		FileBaseName: base,
		UploadID:     resp.ID,
		Status:       resp.Status,
	})

	e.publishProgress(ctx, job, "uploaded, checking result")

	return e.finish(ctx, job, e.poller.Await(ctx, job, resp.ID))
}

func (e *Exporter) finish(ctx context.Context, job export.Job, res export.Result) export.Result {
	if res.Success {
		e.setProgress(ctx, job, progress.StateSucceeded)
	} else {
		e.setProgress(ctx, job, progress.StateFailed)
	}
	return res
}

func (e *Exporter) setProgress(ctx context.Context, job export.Job, state progress.State) {
	if e.Progress == nil {
		return
	}
	e.Progress.Set(ctx, job.UserID, job.Descriptor.FileBaseName, string(job.Descriptor.Destination), state)
}

// publishProgress emits a fire-and-forget CloudEvent for observers;
// failures never affect the pipeline outcome.
func (e *Exporter) publishProgress(ctx context.Context, job export.Job, message string) {
	if e.Pub == nil {
		return
	}

	evt, err := infrapubsub.NewCloudEvent("/exporter/strava", "com.fitsync.export.progress", map[string]string{
		"user_id":        job.UserID,
		"file_base_name": job.Descriptor.FileBaseName,
		"destination":    string(job.Descriptor.Destination),
		"message":        message,
	})
	if err != nil {
		e.Logger.Warn("Could not build progress event", "error", err)
		return
	}

	if _, err := e.Pub.PublishCloudEvent(ctx, shared.TopicExportProgress, evt); err != nil {
		e.Logger.Warn("Progress publish failed", "error", err)
	}
}
