// Package activity maps the local activity-type vocabulary onto the
// strings the remote community service understands.
package activity

import "strings"

// stravaSportTypes maps local activity type names to Strava sport_type
// strings. Local names are matched case-insensitively.
var stravaSportTypes = map[string]string{
	"run":               "Run",
	"trail_run":         "TrailRun",
	"virtual_run":       "VirtualRun",
	"ride":              "Ride",
	"bike":              "Ride",
	"mountain_bike":     "MountainBikeRide",
	"gravel_ride":       "GravelRide",
	"virtual_ride":      "VirtualRide",
	"swim":              "Swim",
	"walk":              "Walk",
	"hike":              "Hike",
	"weight_training":   "WeightTraining",
	"yoga":              "Yoga",
	"hiit":              "HighIntensityIntervalTraining",
	"crossfit":          "Crossfit",
	"elliptical":        "Elliptical",
	"rowing":            "Rowing",
	"pilates":           "Pilates",
	"tennis":            "Tennis",
	"soccer":            "Soccer",
	"workout":           "Workout",
}

// StravaSportType returns the Strava API sport_type string for a local
// activity type name. Unknown types fall back to "Workout".
func StravaSportType(localType string) string {
	key := strings.ToLower(strings.TrimSpace(localType))
	key = strings.ReplaceAll(key, " ", "_")
	if v, ok := stravaSportTypes[key]; ok {
		return v
	}
	return "Workout"
}
