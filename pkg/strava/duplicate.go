package strava

import (
	"regexp"
	"strconv"
)

// The remote service reports duplicates with error text like
//
//	"activity_file.fit duplicate of activity 119487747"
//	"duplicate of <a href='/activities/16877339482'>...</a>"
//
// Wording and markup vary; the numeric activity reference after
// "duplicate of" is the stable part.
var duplicateActivityRe = regexp.MustCompile(`(?i)duplicate\s+of\b[^0-9]*activit(?:y|ies)\D*?(\d+)`)

// ExtractDuplicateActivityID recovers an existing remote activity ID from
// a duplicate-upload error message. Returns false when the text does not
// reference a numeric activity, in which case the error stays unresolved.
func ExtractDuplicateActivityID(errText string) (int64, bool) {
	m := duplicateActivityRe.FindStringSubmatch(errText)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
