package rest

import (
	"context"
	"io"
	"log/slog"

	"github.com/mrosello/videograb/server/archive"
	"github.com/mrosello/videograb/server/internal/jobstore"
	"github.com/mrosello/videograb/server/internal/notifier"
	"github.com/mrosello/videograb/server/internal/orchestrator"
	"github.com/mrosello/videograb/server/internal/ytdlp"
	"github.com/mrosello/videograb/server/sys"
)

type VideoInfoResponse struct {
	Title     string                   `json:"title"`
	Thumbnail string                   `json:"thumbnail"`
	Formats   []ytdlp.FormatProjection `json:"formats"`
}

type Service struct {
	store        *jobstore.Store
	hub          *notifier.Hub
	orchestrator *orchestrator.Orchestrator
	tool         MediaTool
	archive      archive.Service
	downloadDir  string
}

func NewService(args *ContainerArgs) *Service {
	return &Service{
		store:        args.Store,
		hub:          args.Hub,
		orchestrator: args.Orchestrator,
		tool:         args.Tool,
		archive:      args.Archive,
		downloadDir:  args.DownloadDir,
	}
}

// VideoInfo queries the downloader for metadata and reduces the format
// list to the client projection.
func (s *Service) VideoInfo(ctx context.Context, url string) (*VideoInfoResponse, error) {
	info, err := s.tool.Metadata(ctx, url)
	if err != nil {
		return nil, err
	}

	return &VideoInfoResponse{
		Title:     info.Title,
		Thumbnail: info.Thumbnail,
		Formats:   info.MP4Formats(),
	}, nil
}

// StreamDownload pipes the downloader's output directly to w.
func (s *Service) StreamDownload(ctx context.Context, url, format string, w io.Writer) error {
	return s.tool.Stream(ctx, url, format, w)
}

// StartDownload hands the request to the orchestrator.
func (s *Service) StartDownload(url, format, title string) (string, error) {
	return s.orchestrator.Start(url, format, title)
}

// Subscribe attaches a new sink to a job's event feed.
func (s *Service) Subscribe(jobID string) *notifier.Subscription {
	return s.hub.Subscribe(jobID)
}

// Job returns a snapshot of a single job.
func (s *Service) Job(id string) (jobstore.Job, error) {
	return s.store.Get(id)
}

// Jobs returns a snapshot of every job.
func (s *Service) Jobs(ctx context.Context) []jobstore.Job {
	select {
	case <-ctx.Done():
		return nil
	default:
		return s.store.All()
	}
}

// Archived lists the completed downloads recorded so far.
func (s *Service) Archived(ctx context.Context) ([]archive.Entity, error) {
	if s.archive == nil {
		return []archive.Entity{}, nil
	}
	return s.archive.All(ctx)
}

// FreeSpace reports the bytes available in the download directory.
func (s *Service) FreeSpace() uint64 {
	free, err := sys.FreeSpace(s.downloadDir)
	if err != nil {
		slog.Warn("failed to read free space", slog.Any("err", err))
		return 0
	}
	return free
}
