// internal/api/job/store.go
package job

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/invert50/internal/core"
)

// Status represents job status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Done reports whether the job reached a final state.
func (s Status) Done() bool {
	return s == StatusComplete || s == StatusFailed
}

// Job represents an async job.
type Job struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Status    Status      `json:"status"`
	Progress  int         `json:"progress"`
	Result    any         `json:"result,omitempty"`
	Error     *core.Error `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Store manages async jobs in memory. Finished jobs expire after ttl; when the
// store is full the oldest finished job is evicted. Pending and running jobs are
// never evicted.
type Store struct {
	jobs    map[string]*Job
	order   []string // insertion order for eviction
	maxSize int
	ttl     time.Duration
	mu      sync.RWMutex
	now     func() time.Time
}

// NewStore creates a new job store.
func NewStore(maxSize int, ttl time.Duration) *Store {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Store{
		jobs:    make(map[string]*Job),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Create creates a new job and returns a copy of it. It fails with JOBS_BUSY when
// the store is full and every job is still pending or running.
func (s *Store) Create(jobType string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expireLocked()

	for len(s.jobs) >= s.maxSize {
		id, ok := s.oldestFinishedLocked()
		if !ok {
			return Job{}, core.WrapError(core.ErrJobsBusy, fmt.Errorf("%d jobs in progress", len(s.jobs)))
		}
		s.removeLocked(id)
	}

	now := s.now()
	job := &Job{
		ID:        uuid.NewString(),
		Type:      jobType,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)

	return *job, nil
}

// Get retrieves a copy of a job by ID.
func (s *Store) Get(id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok || s.expired(job) {
		return nil, core.WrapError(core.ErrJobNotFound, nil)
	}

	jobCopy := *job
	return &jobCopy, nil
}

// Update modifies a job using an update function.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return core.WrapError(core.ErrJobNotFound, nil)
	}

	fn(job)
	job.UpdatedAt = s.now()
	return nil
}

// List returns all live jobs, newest first.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if !s.expired(job) {
			result = append(result, *job)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

// Active counts jobs that are pending or running.
func (s *Store) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, job := range s.jobs {
		if !job.Status.Done() {
			n++
		}
	}
	return n
}

func (s *Store) expired(job *Job) bool {
	return s.ttl > 0 && job.Status.Done() && s.now().Sub(job.UpdatedAt) > s.ttl
}

func (s *Store) expireLocked() {
	for _, id := range append([]string(nil), s.order...) {
		if s.expired(s.jobs[id]) {
			s.removeLocked(id)
		}
	}
}

func (s *Store) oldestFinishedLocked() (string, bool) {
	for _, id := range s.order {
		if s.jobs[id].Status.Done() {
			return id, true
		}
	}
	return "", false
}

func (s *Store) removeLocked(id string) {
	delete(s.jobs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
