package ytdlp

import "github.com/dustin/go-humanize"

type VideoInfo struct {
	Title     string   `json:"title"`
	Thumbnail string   `json:"thumbnail"`
	Formats   []Format `json:"formats"`
}

// Format as reported by the downloader's dump-json mode.
type Format struct {
	FormatId   string  `json:"format_id"`
	Ext        string  `json:"ext"`
	Resolution string  `json:"resolution"`
	Fps        float64 `json:"fps"`
	Vcodec     string  `json:"vcodec"`
	Acodec     string  `json:"acodec"`
	Filesize   int64   `json:"filesize"`
	FormatNote string  `json:"format_note"`
	URL        string  `json:"url"`
}

// FormatProjection is the reduced view served to clients.
type FormatProjection struct {
	FormatId       string  `json:"format_id"`
	Resolution     string  `json:"resolution"`
	Fps            float64 `json:"fps"`
	HasVideo       bool    `json:"has_video"`
	HasAudio       bool    `json:"has_audio"`
	Filesize       int64   `json:"filesize"`
	FilesizePretty string  `json:"filesize_pretty"`
	Note           string  `json:"note"`
	URL            string  `json:"url"`
}

// MP4Formats filters the raw format list down to mp4 containers that
// actually carry video and/or audio and maps them to the client view.
func (v *VideoInfo) MP4Formats() []FormatProjection {
	projections := make([]FormatProjection, 0, len(v.Formats))

	for _, f := range v.Formats {
		if f.Ext != "mp4" {
			continue
		}

		hasVideo := f.Vcodec != "none"
		hasAudio := f.Acodec != "none"
		if !hasVideo && !hasAudio {
			continue
		}

		pretty := "N/A"
		if f.Filesize > 0 {
			pretty = humanize.Bytes(uint64(f.Filesize))
		}

		projections = append(projections, FormatProjection{
			FormatId:       f.FormatId,
			Resolution:     f.Resolution,
			Fps:            f.Fps,
			HasVideo:       hasVideo,
			HasAudio:       hasAudio,
			Filesize:       f.Filesize,
			FilesizePretty: pretty,
			Note:           f.FormatNote,
			URL:            f.URL,
		})
	}

	return projections
}
