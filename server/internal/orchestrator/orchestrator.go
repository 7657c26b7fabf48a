package orchestrator

import (
	"context"
	"log/slog"
	"os"

	"github.com/mrosello/videograb/server/archiver"
	"github.com/mrosello/videograb/server/common"
	"github.com/mrosello/videograb/server/internal/jobstore"
	"github.com/mrosello/videograb/server/internal/notifier"
	"golang.org/x/sync/semaphore"
)

// Tool is the fetch-to-path mode of the external downloader.
type Tool interface {
	Download(ctx context.Context, url, format, output string, onProgress func(percent int)) error
}

// Orchestrator drives each job from creation to a terminal state,
// keeping the store authoritative and publishing every transition.
type Orchestrator struct {
	store *jobstore.Store
	hub   *notifier.Hub
	tool  Tool

	// bounds how many downloads run at once
	sem *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
}

func New(store *jobstore.Store, hub *notifier.Hub, tool Tool, queueSize int) *Orchestrator {
	if queueSize <= 0 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Orchestrator{
		store:  store,
		hub:    hub,
		tool:   tool,
		sem:    semaphore.NewWeighted(int64(queueSize)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start validates the request, reserves a job and returns its id
// immediately. Exactly one background task is spawned per call.
func (o *Orchestrator) Start(url, format, title string) (string, error) {
	if url == "" || format == "" {
		return "", common.ErrInvalidRequest
	}

	job, err := o.store.Create(common.SanitizeFilename(title))
	if err != nil {
		return "", err
	}

	slog.Info("job accepted",
		slog.String("id", job.Id),
		slog.String("url", url),
		slog.String("format", format),
	)

	go o.run(job, url, format)

	return job.Id, nil
}

// Shutdown cancels the orchestrator's root context. Running downloader
// processes are terminated through their command contexts.
func (o *Orchestrator) Shutdown() {
	o.cancel()
}

func (o *Orchestrator) run(job jobstore.Job, url, format string) {
	if err := o.sem.Acquire(o.ctx, 1); err != nil {
		slog.Warn("orchestrator stopped before job could start", slog.String("id", job.Id))
		o.fail(job.Id)
		return
	}
	defer o.sem.Release(1)

	o.transition(job.Id, jobstore.StatusDownloading, 0, "Starting download...")

	err := o.tool.Download(o.ctx, url, format, job.OutputPath, func(percent int) {
		o.progress(job.Id, percent)
	})
	if err != nil {
		slog.Error("download failed",
			slog.String("id", job.Id),
			slog.String("url", url),
			slog.Any("err", err),
		)
		o.fail(job.Id)
		return
	}

	o.transition(job.Id, jobstore.StatusMerging, 99, "Merging formats...")
	completed := o.transition(job.Id, jobstore.StatusComplete, 100, "Download complete!")

	slog.Info("download complete",
		slog.String("id", job.Id),
		slog.String("path", completed.OutputPath),
	)

	o.archive(completed, url, format)
}

// transition applies a store update and broadcasts the resulting state.
func (o *Orchestrator) transition(id string, status jobstore.Status, progress int, message string) jobstore.Job {
	job, err := o.store.Update(id, status, progress)
	if err != nil {
		slog.Error("job transition rejected",
			slog.String("id", id),
			slog.String("status", string(status)),
			slog.Any("err", err),
		)
		return job
	}

	event := common.Event{
		Status:   string(job.Status),
		Progress: job.Progress,
		Message:  message,
	}
	if job.Status == jobstore.StatusComplete {
		event.File = common.FileRef(job.Id)
	}

	o.hub.Publish(id, event)

	return job
}

// progress republishes percent ticks from the downloader. 100 is
// reserved for the complete transition.
func (o *Orchestrator) progress(id string, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 99 {
		percent = 99
	}

	job, err := o.store.Update(id, jobstore.StatusDownloading, percent)
	if err != nil {
		return
	}

	o.hub.Publish(id, common.Event{
		Status:   string(job.Status),
		Progress: job.Progress,
		Message:  "Downloading...",
	})
}

func (o *Orchestrator) fail(id string) {
	// a generic message only: internal detail stays in the logs
	o.transition(id, jobstore.StatusFailed, 0, "An error occurred during download.")
}

func (o *Orchestrator) archive(job jobstore.Job, url, format string) {
	var size int64
	if fi, err := os.Stat(job.OutputPath); err == nil {
		size = fi.Size()
	}

	archiver.Publish(&archiver.Message{
		JobId:    job.Id,
		Title:    job.Title,
		Source:   url,
		Format:   format,
		Path:     job.OutputPath,
		Filesize: size,
	})
}
