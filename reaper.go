package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofrs/uuid/v5"
)

type jobKind int

const (
	jobKeepAlive jobKind = iota
	jobQueueDelete
	jobDrain
)

type job struct {
	kind    jobKind
	session uuid.UUID
}

// Reaper deletes abandoned sessions with a mark-then-sweep policy: a
// session whose last participant leaves is queued, and a periodic drain
// removes everything still queued. A join between the mark and the sweep
// rescues the session via KeepAlive, so a quick leave/rejoin never loses
// it. A single worker goroutine owns the queued set; everyone else talks
// to it through the job channel.
type Reaper struct {
	registry *Registry
	interval time.Duration
	log      *slog.Logger

	jobs   chan job
	queued map[uuid.UUID]bool
}

func NewReaper(registry *Registry, interval time.Duration, log *slog.Logger) *Reaper {
	return &Reaper{
		registry: registry,
		interval: interval,
		log:      log,
		jobs:     make(chan job, 100),
		queued:   map[uuid.UUID]bool{},
	}
}

// KeepAlive cancels any pending deletion for id. No-op if id is not queued.
func (r *Reaper) KeepAlive(id uuid.UUID) {
	r.jobs <- job{kind: jobKeepAlive, session: id}
}

// QueueDelete marks id as a deletion candidate. Idempotent.
func (r *Reaper) QueueDelete(id uuid.UUID) {
	r.jobs <- job{kind: jobQueueDelete, session: id}
}

// Run consumes the job stream until ctx is cancelled, draining the
// queued set every interval.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Debug("reaper stopping")
			return ctx.Err()
		case j := <-r.jobs:
			r.apply(j)
		case <-ticker.C:
			r.apply(job{kind: jobDrain})
		}
	}
}

// apply is only ever called from the Run goroutine, so the queued set
// needs no lock.
func (r *Reaper) apply(j job) {
	switch j.kind {
	case jobKeepAlive:
		delete(r.queued, j.session)
	case jobQueueDelete:
		r.queued[j.session] = true
	case jobDrain:
		for id := range r.queued {
			r.registry.Remove(id)
			r.log.Debug("session reaped", "session", id)
		}
		clear(r.queued)
	}
}
