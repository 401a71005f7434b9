// Package stravaexporter is the cloud function that pushes a finished
// workout file to Strava and follows it through remote processing.
package stravaexporter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/cloudevents/sdk-go/v2/event"

	"github.com/fitsync/exporter/pkg/bootstrap"
	"github.com/fitsync/exporter/pkg/export"
	"github.com/fitsync/exporter/pkg/framework"
	"github.com/fitsync/exporter/pkg/infrastructure/oauth"
	"github.com/fitsync/exporter/pkg/strava"
	"github.com/fitsync/exporter/pkg/types"
)

var (
	svc     *bootstrap.Service
	svcOnce sync.Once
	svcErr  error
)

func init() {
	functions.CloudEvent("ExportToStrava", ExportToStrava)
}

func initService(ctx context.Context) (*bootstrap.Service, error) {
	if svc != nil {
		return svc, nil
	}
	svcOnce.Do(func() {
		baseSvc, err := bootstrap.NewService(ctx)
		if err != nil {
			slog.Error("Failed to initialize service", "error", err)
			svcErr = err
			return
		}
		svc = baseSvc
	})
	return svc, svcErr
}

// ExportToStrava is the entry point
func ExportToStrava(ctx context.Context, e event.Event) error {
	svc, err := initService(ctx)
	if err != nil {
		return fmt.Errorf("service init failed: %v", err)
	}
	return framework.WrapCloudEvent("strava-exporter", svc, exportHandler(nil))(ctx, e)
}

// exportHandler contains the business logic.
// httpClient can be injected for testing; if nil, creates OAuth client.
func exportHandler(httpClient *http.Client) framework.HandlerFunc {
	return func(ctx context.Context, e event.Event, fwCtx *framework.FrameworkContext) (interface{}, error) {
		var msg types.PubSubMessage
		if err := e.DataAs(&msg); err != nil {
			return nil, fmt.Errorf("event.DataAs: %v", err)
		}

		var req types.ExportRequestEvent
		if err := json.Unmarshal(msg.Message.Data, &req); err != nil {
			return nil, fmt.Errorf("unmarshal export request: %v", err)
		}
		if req.UserID == "" || req.FileBaseName == "" || req.FileURI == "" {
			return nil, fmt.Errorf("export request missing user_id, file_base_name or file_uri")
		}

		fwCtx.Logger.Info("Starting export", "workout_id", req.WorkoutID, "file", req.FileBaseName)

		if httpClient == nil {
			tokenSource := oauth.NewStravaTokenSource(fwCtx.Service.DB, req.UserID)
			httpClient = oauth.NewHTTPClient(tokenSource)
		}

		bucketName := fwCtx.Service.Config.GCSArtifactBucket
		if bucketName == "" {
			bucketName = "fitsync-artifacts"
		}

		job := export.Job{
			UserID:    req.UserID,
			WorkoutID: req.WorkoutID,
			Descriptor: export.Descriptor{
				FileBaseName: req.FileBaseName,
				Format:       export.ParseFileFormat(req.FileFormat),
				Destination:  export.DestinationCategory(req.Destination),
			},
		}

		exporter := strava.NewExporter(
			strava.NewClient(httpClient, fwCtx.Logger),
			fwCtx.Service.DB,
			fwCtx.Service.Store,
			fwCtx.Service.Records,
			fwCtx.Service.Config.Backoff(),
			bucketName,
			fwCtx.Logger,
		)
		exporter.Pub = fwCtx.Service.Pub
		exporter.Progress = fwCtx.Service.Progress

		res := exporter.Export(ctx, job, req.FileURI)

		rec, _ := fwCtx.Service.Records.Get(ctx, req.UserID, req.FileBaseName)
		outputs := map[string]interface{}{
			"message":        res.Message,
			"file_base_name": req.FileBaseName,
			"file_uri":       req.FileURI,
			"workout_id":     req.WorkoutID,
		}
		if rec != nil {
			outputs["strava_upload_id"] = rec.UploadID
			outputs["strava_activity_id"] = rec.ActivityID
			outputs["upload_status"] = rec.Status
		}

		if res.Success {
			outputs["status"] = types.StatusSuccess
			fwCtx.Logger.Info("Export finished", "message", res.Message)
			return outputs, nil
		}

		if res.Retryable {
			// Returning an error makes the trigger redeliver the message,
			// which is our retry scheduler.
			return outputs, fmt.Errorf("export failed (retryable): %s", res.Message)
		}

		// Permanent failure: record it, do not redeliver.
		outputs["status"] = types.StatusFailure
		fwCtx.Logger.Error("Export permanently failed", "message", res.Message)
		return outputs, nil
	}
}
