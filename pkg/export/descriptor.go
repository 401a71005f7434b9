// Package export defines the value objects shared across the remote-upload
// pipeline: what to export, for whom, and how an attempt ended.
package export

// FileFormat is the serialization of the workout payload.
type FileFormat string

const (
	FormatFIT FileFormat = "fit"
	FormatTCX FileFormat = "tcx"
	FormatGPX FileFormat = "gpx"
)

// DestinationCategory classifies where an export goes.
type DestinationCategory string

const (
	DestinationFile       DestinationCategory = "file"
	DestinationCloudDrive DestinationCategory = "cloud_drive"
	DestinationCommunity  DestinationCategory = "community"
)

// Descriptor is the immutable description of one export job. FileBaseName
// uniquely identifies the workout export and keys the upload record store
// for the job's whole lifetime.
type Descriptor struct {
	FileBaseName string
	Format       FileFormat
	Destination  DestinationCategory
}

// FileName returns the payload file name sent to the remote service.
func (d Descriptor) FileName() string {
	return d.FileBaseName + "." + string(d.Format)
}

// ParseFileFormat maps a free-text format name onto a FileFormat,
// defaulting to FIT for unknown input.
func ParseFileFormat(s string) FileFormat {
	switch s {
	case "tcx", "TCX":
		return FormatTCX
	case "gpx", "GPX":
		return FormatGPX
	default:
		return FormatFIT
	}
}

// Job binds a Descriptor to the user and workout it belongs to.
type Job struct {
	UserID     string
	WorkoutID  string
	Descriptor Descriptor
}
