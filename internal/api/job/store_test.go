package job

import (
	"errors"
	"testing"
	"time"

	"github.com/newthinker/invert50/internal/core"
)

func mustCreate(t *testing.T, store *Store, jobType string) Job {
	t.Helper()
	j, err := store.Create(jobType)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return j
}

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore(100, time.Hour)

	job := mustCreate(t, store, "backtest")
	if job.ID == "" {
		t.Error("expected job ID")
	}
	if job.Status != StatusPending {
		t.Errorf("expected pending, got %s", job.Status)
	}

	retrieved, err := store.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if retrieved.ID != job.ID {
		t.Error("IDs don't match")
	}
}

func TestStore_UniqueIDs(t *testing.T) {
	store := NewStore(100, time.Hour)
	a := mustCreate(t, store, "backtest")
	b := mustCreate(t, store, "backtest")
	if a.ID == b.ID {
		t.Errorf("expected distinct ids, got %s twice", a.ID)
	}
}

func TestStore_Update(t *testing.T) {
	store := NewStore(100, time.Hour)
	job := mustCreate(t, store, "backtest")

	err := store.Update(job.ID, func(j *Job) {
		j.Status = StatusRunning
		j.Progress = 50
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retrieved, _ := store.Get(job.ID)
	if retrieved.Status != StatusRunning {
		t.Errorf("expected running, got %s", retrieved.Status)
	}
	if retrieved.Progress != 50 {
		t.Errorf("expected 50, got %d", retrieved.Progress)
	}
	if store.Active() != 1 {
		t.Errorf("expected 1 active job, got %d", store.Active())
	}
}

func TestStore_MaxSizeEvictsOldestFinished(t *testing.T) {
	store := NewStore(2, time.Hour)

	running := mustCreate(t, store, "backtest")
	store.Update(running.ID, func(j *Job) { j.Status = StatusRunning })
	done := mustCreate(t, store, "backtest")
	store.Update(done.ID, func(j *Job) { j.Status = StatusComplete })

	mustCreate(t, store, "backtest") // evicts done, not the older running job

	if _, err := store.Get(done.ID); err == nil {
		t.Error("expected finished job to be evicted")
	}
	if _, err := store.Get(running.ID); err != nil {
		t.Errorf("running job must survive eviction: %v", err)
	}
	if len(store.List()) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(store.List()))
	}
}

func TestStore_FullOfUnfinishedJobs(t *testing.T) {
	store := NewStore(2, time.Hour)
	first := mustCreate(t, store, "backtest")
	mustCreate(t, store, "backtest")

	if _, err := store.Create("backtest"); !errors.Is(err, core.ErrJobsBusy) {
		t.Fatalf("expected JOBS_BUSY, got %v", err)
	}
	if _, err := store.Get(first.ID); err != nil {
		t.Errorf("pending job must not be evicted: %v", err)
	}

	store.Update(first.ID, func(j *Job) { j.Status = StatusFailed })
	if _, err := store.Create("backtest"); err != nil {
		t.Errorf("expected room once a job finished, got %v", err)
	}
}

func TestStore_NotFound(t *testing.T) {
	store := NewStore(100, time.Hour)

	_, err := store.Get("nonexistent")
	if !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected JOB_NOT_FOUND, got %v", err)
	}
	if err := store.Update("nonexistent", func(*Job) {}); !errors.Is(err, core.ErrJobNotFound) {
		t.Errorf("expected JOB_NOT_FOUND, got %v", err)
	}
}

func TestStore_FinishedJobsExpire(t *testing.T) {
	store := NewStore(100, time.Minute)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return clock }

	done := mustCreate(t, store, "backtest")
	store.Update(done.ID, func(j *Job) { j.Status = StatusComplete })
	running := mustCreate(t, store, "backtest")
	store.Update(running.ID, func(j *Job) { j.Status = StatusRunning })

	clock = clock.Add(2 * time.Minute)

	if _, err := store.Get(done.ID); err == nil {
		t.Error("expected finished job to expire")
	}
	if _, err := store.Get(running.ID); err != nil {
		t.Errorf("running job must not expire: %v", err)
	}

	mustCreate(t, store, "backtest")
	if len(store.jobs) != 2 {
		t.Errorf("expected expired job to be dropped on create, have %d", len(store.jobs))
	}
}

func TestStore_List(t *testing.T) {
	store := NewStore(100, time.Hour)
	mustCreate(t, store, "backtest")
	mustCreate(t, store, "analysis")

	jobs := store.List()
	if len(jobs) != 2 {
		t.Errorf("expected 2 jobs, got %d", len(jobs))
	}
}
