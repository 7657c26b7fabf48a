package archive

import "time"

// Entity is one archived completed download.
type Entity struct {
	Id        string    `json:"id"`
	JobId     string    `json:"job_id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	Format    string    `json:"format"`
	Path      string    `json:"path"`
	Filesize  int64     `json:"filesize"`
	CreatedAt time.Time `json:"created_at"`
}
