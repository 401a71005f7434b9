// fit-validate checks that a FIT file on disk decodes as an activity
// recording, mirroring the validation exports go through before upload.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fitsync/exporter/pkg/fitfile"
)

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: fit-validate <file.fit> [...]")
		os.Exit(2)
	}

	failed := false
	for _, path := range flag.Args() {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}
		if err := fitfile.Validate(data); err != nil {
			fmt.Fprintf(os.Stderr, "%s: INVALID: %v\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("%s: OK (%d bytes)\n", path, len(data))
	}

	if failed {
		os.Exit(1)
	}
}
