package jobstore

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

var (
	ErrJobNotFound       = errors.New("no job found for the given id")
	ErrIllegalTransition = errors.New("illegal status transition")
)

// In-memory thread-safe job storage. Entries are kept for the process
// lifetime, there is no deletion.
type Store struct {
	downloadDir string

	table map[string]*Job
	mu    sync.RWMutex
}

func NewStore(downloadDir string) *Store {
	return &Store{
		downloadDir: downloadDir,
		table:       make(map[string]*Job),
	}
}

// newID returns 128 bits of randomness, hex-encoded.
func newID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Create reserves a new job in starting state. The output path embeds
// the job id so concurrent jobs never collide even on equal titles.
func (s *Store) Create(title string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newID()
	for _, taken := s.table[id]; taken; _, taken = s.table[id] {
		id = newID()
	}

	job := &Job{
		Id:         id,
		Title:      title,
		Status:     StatusStarting,
		Progress:   0,
		OutputPath: filepath.Join(s.downloadDir, fmt.Sprintf("%s_%s.mp4", id, title)),
	}
	s.table[id] = job

	return *job, nil
}

// Get a snapshot of a job given its id
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.table[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}

	return *entry, nil
}

// Update atomically transitions a job. Transitions out of a terminal
// state are rejected and progress never moves backwards.
func (s *Store) Update(id string, status Status, progress int) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.table[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}

	if entry.Status.Terminal() {
		return Job{}, fmt.Errorf("%w: %s is terminal", ErrIllegalTransition, entry.Status)
	}

	if !entry.Status.canBecome(status) {
		return Job{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, entry.Status, status)
	}

	entry.Status = status
	if progress > entry.Progress {
		entry.Progress = progress
	}

	return *entry, nil
}

// All returns a snapshot of every stored job
func (s *Store) All() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0, len(s.table))
	for _, entry := range s.table {
		jobs = append(jobs, *entry)
	}

	return jobs
}
