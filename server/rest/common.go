package rest

import (
	"context"
	"io"

	"github.com/mrosello/videograb/server/archive"
	"github.com/mrosello/videograb/server/internal/jobstore"
	"github.com/mrosello/videograb/server/internal/notifier"
	"github.com/mrosello/videograb/server/internal/orchestrator"
	"github.com/mrosello/videograb/server/internal/ytdlp"
)

// MediaTool is the read side of the external downloader: metadata
// queries and direct streaming.
type MediaTool interface {
	Metadata(ctx context.Context, url string) (*ytdlp.VideoInfo, error)
	Stream(ctx context.Context, url, format string, w io.Writer) error
}

type ContainerArgs struct {
	Store        *jobstore.Store
	Hub          *notifier.Hub
	Orchestrator *orchestrator.Orchestrator
	Tool         MediaTool
	Archive      archive.Service
	DownloadDir  string
}
