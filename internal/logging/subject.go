package logging

import "strings"

// FormatSubject builds the stage/archive subject string used in console output.
func FormatSubject(stage, archive string) string {
	stage = strings.TrimSpace(stage)
	archive = strings.TrimSpace(archive)
	switch {
	case stage != "" && archive != "":
		return stage + " · " + archive
	case stage != "":
		return stage
	default:
		return archive
	}
}
