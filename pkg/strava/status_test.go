package strava

import "testing"

func TestParseUploadStatus(t *testing.T) {
	tests := []struct {
		name string
		resp UploadResponse
		want UploadStatus
	}{
		{"processing", UploadResponse{Status: "Your activity is still being processed."}, StatusProcessing},
		{"ready", UploadResponse{Status: "Your activity is ready.", ActivityID: 888}, StatusReady},
		{"deleted", UploadResponse{Status: "The created activity has been deleted."}, StatusDeleted},
		{"error phrase", UploadResponse{Status: "There was an error processing your activity."}, StatusError},
		{"error field wins", UploadResponse{Status: "Your activity is ready.", Error: "duplicate of activity 1"}, StatusError},
		{"literal null error is no error", UploadResponse{Status: "Your activity is ready.", Error: "null"}, StatusReady},
		{"empty status keeps polling", UploadResponse{}, StatusProcessing},
		{"unknown wording keeps polling", UploadResponse{Status: "We are thinking about it"}, StatusProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseUploadStatus(&tt.resp); got != tt.want {
				t.Errorf("ParseUploadStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorTextTreatsNullAsAbsent(t *testing.T) {
	for _, raw := range []string{"", "null"} {
		r := UploadResponse{Error: raw}
		if r.ErrorText() != "" {
			t.Errorf("ErrorText(%q) = %q, want empty", raw, r.ErrorText())
		}
	}

	r := UploadResponse{Error: "something broke"}
	if r.ErrorText() != "something broke" {
		t.Errorf("ErrorText() = %q", r.ErrorText())
	}
}
