package strava

import "strings"

// UploadResponse is the JSON shape of both the initial upload acceptance
// and subsequent status polls. The error field may hold the literal string
// "null", which the API uses to mean "no error".
type UploadResponse struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
	ActivityID int64  `json:"activity_id"`
	Status     string `json:"status"`
	Error      string `json:"error"`
}

// ErrorText returns the response's error text, treating the literal "null"
// the same as an absent field.
func (r *UploadResponse) ErrorText() string {
	if r.Error == "" || r.Error == "null" {
		return ""
	}
	return r.Error
}

// Activity is the remote activity representation we read back and update.
type Activity struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SportType   string `json:"sport_type"`
	Type        string `json:"type"`
	GearID      string `json:"gear_id"`
	Trainer     bool   `json:"trainer"`
	Commute     bool   `json:"commute"`
}

// UploadStatus is the enumerated processing state of an accepted upload.
type UploadStatus int

const (
	StatusProcessing UploadStatus = iota
	StatusReady
	StatusDeleted
	StatusError
)

func (s UploadStatus) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusDeleted:
		return "deleted"
	case StatusError:
		return "error"
	default:
		return "processing"
	}
}

// Literal phrases the remote service puts in the status field. Kept in one
// place so a wording change only touches this file.
const (
	phraseProcessing = "still being processed"
	phraseReady      = "is ready"
	phraseDeleted    = "has been deleted"
	phraseError      = "error processing"
)

// ParseUploadStatus maps a poll response onto an UploadStatus. A populated
// error field always wins. Unrecognized status text parses as
// StatusProcessing: the poller's attempt cap bounds the loop, so unknown
// wording degrades to a timeout rather than a wrong terminal state.
func ParseUploadStatus(r *UploadResponse) UploadStatus {
	if r.ErrorText() != "" {
		return StatusError
	}

	status := strings.ToLower(r.Status)
	switch {
	case strings.Contains(status, phraseError):
		return StatusError
	case strings.Contains(status, phraseDeleted):
		return StatusDeleted
	case strings.Contains(status, phraseReady):
		return StatusReady
	case strings.Contains(status, phraseProcessing):
		return StatusProcessing
	default:
		return StatusProcessing
	}
}
