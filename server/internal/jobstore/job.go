package jobstore

import "slices"

// Status of a download job. Jobs move starting -> downloading ->
// merging -> complete, with failed reachable from any non-terminal state.
type Status string

const (
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusMerging     Status = "merging"
	StatusComplete    Status = "complete"
	StatusFailed      Status = "failed"
)

var transitions = map[Status][]Status{
	StatusStarting:    {StatusDownloading, StatusFailed},
	StatusDownloading: {StatusMerging, StatusFailed},
	StatusMerging:     {StatusComplete, StatusFailed},
}

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

func (s Status) canBecome(next Status) bool {
	if next == s {
		// same-state updates carry progress ticks
		return true
	}
	return slices.Contains(transitions[s], next)
}

type Job struct {
	Id       string `json:"id"`
	Title    string `json:"title"`
	Status   Status `json:"status"`
	Progress int    `json:"progress"`

	// OutputPath is reserved at creation and never serialized.
	OutputPath string `json:"-"`
}
