package common

import "regexp"

// Event is the immutable payload pushed to status subscribers.
type Event struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	File     string `json:"file,omitempty"`
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename strips everything outside [A-Za-z0-9_.-] from a
// user-provided title so it is safe to use as a filename.
func SanitizeFilename(title string) string {
	if title == "" {
		return "video"
	}
	return unsafeFilenameChars.ReplaceAllString(title, "_")
}

// FileRef builds the retrieval path for a completed job's output.
func FileRef(jobID string) string {
	return "/download-file/" + jobID
}
