package strava

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fitsync/exporter/pkg/export"
	"github.com/fitsync/exporter/pkg/progress"
	"github.com/fitsync/exporter/pkg/testing/mocks"
	"github.com/fitsync/exporter/pkg/uploadrecord"
)

func tcxJob() export.Job {
	j := testJob()
	j.Descriptor.Format = export.FormatTCX
	return j
}

func newTestExporter(mock *MockHTTPClient, records uploadrecord.Store, blobs *mocks.MockBlobStore) *Exporter {
	httpClient := &http.Client{Transport: &mockTransport{mock}}
	return NewExporter(NewClient(httpClient, slog.Default()), &mocks.MockDatabase{}, blobs, records,
		testSchedule(), "test-bucket", slog.Default())
}

func TestExportHappyPathPersistsUploadID(t *testing.T) {
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			if req.Method == "POST" && req.URL.Path == "/api/v3/uploads" {
				return jsonResponse(201, `{"id": 999, "status": "Your activity is still being processed."}`), nil
			}
			if req.Method == "GET" && req.URL.Path == "/api/v3/uploads/999" {
				return jsonResponse(200, `{"id": 999, "status": "Your activity is ready."}`), nil
			}
			t.Errorf("Unexpected request: %s %s", req.Method, req.URL.Path)
			return nil, nil
		},
	}

	var readObject string
	blobs := &mocks.MockBlobStore{
		ReadFunc: func(ctx context.Context, bucket, object string) ([]byte, error) {
			readObject = object
			return []byte("<TrainingCenterDatabase/>"), nil
		},
	}

	records := uploadrecord.NewMemoryStore()
	e := newTestExporter(mock, records, blobs)

	res := e.Export(context.Background(), tcxJob(), "gs://test-bucket/exports/user-1/2024-05-04_0800.tcx")

	assert.True(t, res.Success)
	assert.Equal(t, "exports/user-1/2024-05-04_0800.tcx", readObject)

	rec, err := records.Get(context.Background(), "user-1", "2024-05-04_0800")
	assert.NoError(t, err)
	assert.Equal(t, int64(999), rec.UploadID)
}

func TestExportBlobReadFailureIsRetryable(t *testing.T) {
	blobs := &mocks.MockBlobStore{
		ReadFunc: func(ctx context.Context, bucket, object string) ([]byte, error) {
			return nil, errors.New("object not found")
		},
	}

	e := newTestExporter(&MockHTTPClient{}, uploadrecord.NewMemoryStore(), blobs)
	res := e.Export(context.Background(), tcxJob(), "gs://test-bucket/missing.tcx")

	assert.False(t, res.Success)
	assert.True(t, res.Retryable)
}

func TestExportTransportErrorIsRetryable(t *testing.T) {
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return nil, errors.New("connection reset")
		},
	}

	e := newTestExporter(mock, uploadrecord.NewMemoryStore(), &mocks.MockBlobStore{})
	res := e.Export(context.Background(), tcxJob(), "gs://test-bucket/f.tcx")

	assert.False(t, res.Success)
	assert.True(t, res.Retryable)
}

func TestExportRejectionIsPermanentWithBody(t *testing.T) {
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			return jsonResponse(400, `{"message": "Bad Request", "errors": [{"field": "file", "code": "invalid"}]}`), nil
		},
	}

	e := newTestExporter(mock, uploadrecord.NewMemoryStore(), &mocks.MockBlobStore{})
	res := e.Export(context.Background(), tcxJob(), "gs://test-bucket/f.tcx")

	assert.False(t, res.Success)
	assert.False(t, res.Retryable)
	assert.Contains(t, res.Message, "Bad Request")
}

func TestExportUnusableResponseIsPermanent(t *testing.T) {
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			// Accepted status but no usable body: we must not retry into a
			// possible double upload.
			return jsonResponse(201, `<html>gateway error</html>`), nil
		},
	}

	e := newTestExporter(mock, uploadrecord.NewMemoryStore(), &mocks.MockBlobStore{})
	res := e.Export(context.Background(), tcxJob(), "gs://test-bucket/f.tcx")

	assert.False(t, res.Success)
	assert.False(t, res.Retryable)
}

func TestExportInvalidFITPayloadIsPermanent(t *testing.T) {
	blobs := &mocks.MockBlobStore{
		ReadFunc: func(ctx context.Context, bucket, object string) ([]byte, error) {
			return []byte("NOT_A_FIT_FILE"), nil
		},
	}

	e := newTestExporter(&MockHTTPClient{}, uploadrecord.NewMemoryStore(), blobs)
	res := e.Export(context.Background(), testJob(), "gs://test-bucket/f.fit")

	assert.False(t, res.Success)
	assert.False(t, res.Retryable)
}

func TestExportUpdatesProgressTracker(t *testing.T) {
	mock := &MockHTTPClient{
		DoFunc: func(req *http.Request) (*http.Response, error) {
			if req.Method == "POST" {
				return jsonResponse(201, `{"id": 999, "status": "Your activity is still being processed."}`), nil
			}
			return jsonResponse(200, `{"id": 999, "status": "Your activity is ready."}`), nil
		},
	}

	e := newTestExporter(mock, uploadrecord.NewMemoryStore(), &mocks.MockBlobStore{
		ReadFunc: func(ctx context.Context, bucket, object string) ([]byte, error) {
			return []byte("<tcx/>"), nil
		},
	})
	e.Progress = progress.NewTracker(&mocks.MockDatabase{}, &mocks.MockNotificationService{}, slog.Default())
	e.Pub = &mocks.MockPublisher{}

	job := tcxJob()
	res := e.Export(context.Background(), job, "gs://test-bucket/f.tcx")

	assert.True(t, res.Success)
	summary := e.Progress.Counts(job.UserID)
	assert.Equal(t, 1, summary.Succeeded)
}
