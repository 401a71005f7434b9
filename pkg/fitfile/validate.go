// Package fitfile sanity-checks FIT payloads before they are spent on an
// upload. A corrupt artifact fails here as a permanent, local error
// instead of a confusing remote rejection.
package fitfile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/muktihari/fit/decoder"
	"github.com/muktihari/fit/profile/mesgdef"
	"github.com/muktihari/fit/profile/typedef"
)

// Validate decodes the payload and confirms it is a well-formed FIT
// activity file.
func Validate(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty FIT data")
	}

	dec := decoder.New(bytes.NewReader(data))

	decoded := false
	for dec.Next() {
		fitData, err := dec.Decode()
		if err != nil {
			return fmt.Errorf("malformed FIT file: %w", err)
		}
		decoded = true

		for _, msg := range fitData.Messages {
			if msg.Num != typedef.MesgNumFileId {
				continue
			}
			fileId := mesgdef.NewFileId(&msg)
			if fileId.Type != typedef.FileActivity {
				return fmt.Errorf("FIT file type is %s, expected activity", fileId.Type)
			}
		}
	}

	if !decoded {
		return errors.New("no FIT file sequence found")
	}
	return nil
}
