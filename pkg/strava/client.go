// Package strava implements the remote-upload synchronization pipeline
// against the Strava v3 API: multipart upload, asynchronous processing
// polls, duplicate recovery, and the post-upload metadata update.
package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	httputil "github.com/fitsync/exporter/pkg/infrastructure/http"
)

const defaultBaseURL = "https://www.strava.com/api/v3"

// Client performs the raw authenticated calls against the remote service.
// It does no business interpretation: transport failures come back as
// errors, HTTP-level rejections as raw status codes, and failed GET/PUT
// confirmations as nil responses.
//
// Authentication lives in the injected http.Client's transport (see
// pkg/infrastructure/oauth), which fetches a fresh token per request.
type Client struct {
	http    *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{http: httpClient, baseURL: defaultBaseURL, logger: logger}
}

// Upload POSTs the workout payload as multipart form data: one data_type
// field naming the serialization and one binary file part. It returns the
// raw response body and HTTP status; err is non-nil only for
// transport-level failures (timeout, DNS, connection reset).
func (c *Client) Upload(ctx context.Context, fileName string, data []byte, dataType string) ([]byte, int, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("data_type", dataType)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, 0, err
	}
	part.Write(data)
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/uploads", body)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return respBody, resp.StatusCode, nil
}

// GetUpload polls the processing status of an accepted upload. Returns nil
// on any failure; the caller treats nil as "could not confirm status yet".
func (c *Client) GetUpload(ctx context.Context, uploadID int64) *UploadResponse {
	var out UploadResponse
	if !c.getJSON(ctx, c.uploadURL(uploadID), &out) {
		return nil
	}
	return &out
}

// GetActivity fetches the remote activity. Nil on any failure.
func (c *Client) GetActivity(ctx context.Context, activityID int64) *Activity {
	var out Activity
	if !c.getJSON(ctx, c.activityURL(activityID), &out) {
		return nil
	}
	return &out
}

// PutActivity updates the remote activity with URL-encoded form fields.
// Nil on any failure; metadata pushes are never retried at this level.
func (c *Client) PutActivity(ctx context.Context, activityID int64, form url.Values) *Activity {
	req, err := http.NewRequestWithContext(ctx, "PUT", c.activityURL(activityID), strings.NewReader(form.Encode()))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("Activity update failed", "activity_id", activityID, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if httpErr := httputil.ParseErrorResponse(resp); httpErr != nil {
		c.logger.Warn("Activity update rejected", "activity_id", activityID, "error", httpErr)
		return nil
	}

	var out Activity
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil
	}
	return &out
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("GET failed", "url", url, "error", err)
		return false
	}
	defer resp.Body.Close()

	if httpErr := httputil.ParseErrorResponse(resp); httpErr != nil {
		c.logger.Warn("GET rejected", "url", url, "error", httpErr)
		return false
	}
	return json.NewDecoder(resp.Body).Decode(out) == nil
}

func (c *Client) uploadURL(uploadID int64) string {
	return fmt.Sprintf("%s/uploads/%d", c.baseURL, uploadID)
}

func (c *Client) activityURL(activityID int64) string {
	return fmt.Sprintf("%s/activities/%d", c.baseURL, activityID)
}
