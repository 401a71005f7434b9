package strava

import "testing"

func TestExtractDuplicateActivityID(t *testing.T) {
	tests := []struct {
		name    string
		errText string
		wantID  int64
		wantOK  bool
	}{
		{
			name:    "html link form",
			errText: `workout_123.fit duplicate of <a href='/activities/16877339482'>another activity</a>`,
			wantID:  16877339482,
			wantOK:  true,
		},
		{
			name:    "plain activity form",
			errText: "duplicate of activity 119487747",
			wantID:  119487747,
			wantOK:  true,
		},
		{
			name:    "plural activities form",
			errText: "this file is a Duplicate Of your existing activities (1234567)",
			wantID:  1234567,
			wantOK:  true,
		},
		{
			name:    "case insensitive",
			errText: "DUPLICATE OF ACTIVITY 42",
			wantID:  42,
			wantOK:  true,
		},
		{
			name:    "no numeric reference",
			errText: "duplicate of a previously uploaded activity",
			wantOK:  false,
		},
		{
			name:    "unrelated error",
			errText: "The file is malformed",
			wantOK:  false,
		},
		{
			name:    "empty",
			errText: "",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractDuplicateActivityID(tt.errText)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && id != tt.wantID {
				t.Errorf("id = %d, want %d", id, tt.wantID)
			}
		})
	}
}
