package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"scriptgen/internal/generation"
)

const (
	DefaultInterval = 2 * time.Second
	DefaultDeadline = 60 * time.Second
)

// Runner owns jobs while they are polled: it waits a fixed interval between
// polls and abandons a job once the deadline measured from submission has
// passed, including while a poll is in flight. Cancelling ctx stops the loop.
type Runner struct {
	poller   *Poller
	interval time.Duration
	deadline time.Duration
}

func NewRunner(poller *Poller, interval, deadline time.Duration) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	return &Runner{poller: poller, interval: interval, deadline: deadline}
}

// Await polls job until it is terminal or the deadline passes. The returned
// error is the job's failure, a Timeout, or ctx.Err().
func (r *Runner) Await(ctx context.Context, credential string, job Job) (Job, error) {
	if job.State.IsTerminal() {
		return job, job.Err
	}

	clock := r.poller.clock
	deadline := job.SubmittedAt.Add(r.deadline)

	for {
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-clock.After(r.interval):
		}

		remaining := deadline.Sub(clock.Now())
		if remaining <= 0 {
			return r.timeout(job)
		}

		// A poll in flight is bounded by the time left before the deadline.
		pollCtx, cancel := context.WithTimeout(ctx, remaining)
		job, _ = r.poller.Poll(pollCtx, credential, job)
		expired := errors.Is(pollCtx.Err(), context.DeadlineExceeded)
		cancel()

		if job.State.IsTerminal() {
			return job, job.Err
		}
		if err := ctx.Err(); err != nil {
			return job, err
		}
		if expired {
			return r.timeout(job)
		}
		// Transient failures are retried on the next tick.
	}
}

func (r *Runner) timeout(job Job) (Job, error) {
	job = job.advance(StateTimedOut)
	job.Err = generation.Timeout(job.ProviderID, fmt.Sprintf("no result after %s", r.deadline))
	return job, job.Err
}

// Generate submits params and awaits the artifact URL.
func (r *Runner) Generate(ctx context.Context, credential string, params ImageParams) (*generation.Result, error) {
	job := r.poller.Submit(ctx, credential, params)
	job, err := r.Await(ctx, credential, job)
	if err != nil {
		return nil, err
	}
	return &generation.Result{ProviderID: job.ProviderID, ArtifactURL: job.ArtifactURL}, nil
}
