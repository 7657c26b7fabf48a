package orchestrator

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/mrosello/videograb/server/common"
	"github.com/mrosello/videograb/server/internal/jobstore"
	"github.com/mrosello/videograb/server/internal/notifier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTool struct {
	gate    chan struct{}
	ticks   []int
	payload []byte
	err     error
}

func (f *fakeTool) Download(ctx context.Context, url, format, output string, onProgress func(percent int)) error {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for _, p := range f.ticks {
		if onProgress != nil {
			onProgress(p)
		}
	}

	if f.err != nil {
		return f.err
	}

	if f.payload != nil {
		return os.WriteFile(output, f.payload, 0o644)
	}
	return nil
}

func newFixture(t *testing.T, tool Tool, queueSize int) (*Orchestrator, *jobstore.Store, *notifier.Hub) {
	t.Helper()

	store := jobstore.NewStore(t.TempDir())
	hub := notifier.NewHub(store)
	o := New(store, hub, tool, queueSize)
	t.Cleanup(o.Shutdown)

	return o, store, hub
}

// collectUntilTerminal drains events until a terminal status or timeout.
func collectUntilTerminal(t *testing.T, sub *notifier.Subscription) []common.Event {
	t.Helper()

	var events []common.Event
	timeout := time.After(2 * time.Second)

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return events
			}
			events = append(events, ev)
			if ev.Status == "complete" || ev.Status == "failed" {
				return events
			}
		case <-timeout:
			t.Fatalf("no terminal event, got %+v", events)
		}
	}
}

func TestStartValidation(t *testing.T) {
	o, _, _ := newFixture(t, &fakeTool{}, 2)

	_, err := o.Start("", "18", "video")
	assert.ErrorIs(t, err, common.ErrInvalidRequest)

	_, err = o.Start("https://example.com/v", "", "video")
	assert.ErrorIs(t, err, common.ErrInvalidRequest)
}

func TestHappyPath(t *testing.T) {
	tool := &fakeTool{
		gate:    make(chan struct{}),
		ticks:   []int{10, 55, 100},
		payload: []byte("media"),
	}
	o, store, hub := newFixture(t, tool, 2)

	id, err := o.Start("https://example.com/v", "18", "My Video! 2024")
	require.NoError(t, err)

	// the id is issued before the download finishes
	job, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "My_Video__2024", job.Title)
	assert.NotEqual(t, jobstore.StatusComplete, job.Status)

	sub := hub.Subscribe(id)
	defer sub.Close()

	close(tool.gate)
	events := collectUntilTerminal(t, sub)
	require.NotEmpty(t, events)

	// observed statuses must be a subsequence of the happy path,
	// whatever the snapshot caught at subscribe time
	var statuses []string
	for _, ev := range events {
		if len(statuses) == 0 || statuses[len(statuses)-1] != ev.Status {
			statuses = append(statuses, ev.Status)
		}
	}
	if statuses[0] == "starting" {
		statuses = statuses[1:]
	}
	assert.Equal(t, []string{"downloading", "merging", "complete"}, statuses)

	last := events[len(events)-1]
	assert.Equal(t, 100, last.Progress)
	assert.Equal(t, "Download complete!", last.Message)
	assert.Equal(t, common.FileRef(id), last.File)

	// progress never decreases along the way
	progress := 0
	for _, ev := range events {
		assert.GreaterOrEqual(t, ev.Progress, progress)
		progress = ev.Progress
	}

	job, _ = store.Get(id)
	assert.Equal(t, jobstore.StatusComplete, job.Status)
	assert.Equal(t, 100, job.Progress)

	written, err := os.ReadFile(job.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, "media", string(written))
}

func TestToolFailure(t *testing.T) {
	tool := &fakeTool{
		gate:  make(chan struct{}),
		ticks: []int{10},
		err:   errors.New("exit status 1"),
	}
	o, store, hub := newFixture(t, tool, 2)

	id, err := o.Start("https://example.com/v", "18", "video")
	require.NoError(t, err)

	sub := hub.Subscribe(id)
	defer sub.Close()

	close(tool.gate)
	events := collectUntilTerminal(t, sub)

	last := events[len(events)-1]
	assert.Equal(t, "failed", last.Status)
	assert.Equal(t, "An error occurred during download.", last.Message)
	assert.Empty(t, last.File)

	// failed is terminal, nothing follows
	select {
	case ev, ok := <-sub.Events():
		if ok {
			t.Fatalf("unexpected event after terminal state: %+v", ev)
		}
	case <-time.After(100 * time.Millisecond):
	}

	job, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, jobstore.StatusFailed, job.Status)
}

func TestProgressTicksAreClamped(t *testing.T) {
	tool := &fakeTool{
		gate:  make(chan struct{}),
		ticks: []int{150, -5},
	}
	o, _, hub := newFixture(t, tool, 2)

	id, err := o.Start("https://example.com/v", "18", "video")
	require.NoError(t, err)

	sub := hub.Subscribe(id)
	defer sub.Close()

	close(tool.gate)
	events := collectUntilTerminal(t, sub)

	for _, ev := range events {
		if ev.Status == "downloading" {
			assert.LessOrEqual(t, ev.Progress, 99, "100 is reserved for completion")
		}
	}
}

func TestShutdownFailsQueuedJobs(t *testing.T) {
	// never opened: the first job occupies the only slot forever
	tool := &fakeTool{gate: make(chan struct{})}
	o, store, _ := newFixture(t, tool, 1)

	first, err := o.Start("https://example.com/a", "18", "a")
	require.NoError(t, err)
	second, err := o.Start("https://example.com/b", "18", "b")
	require.NoError(t, err)

	o.Shutdown()

	require.Eventually(t, func() bool {
		a, _ := store.Get(first)
		b, _ := store.Get(second)
		return a.Status == jobstore.StatusFailed && b.Status == jobstore.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}
