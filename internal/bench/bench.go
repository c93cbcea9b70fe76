// Package bench contains the benchmark worker. The worker probes the
// targets one at a time in input order and reports what happened over
// a buffered channel of events. One [ResultEvent] and one
// [ProgressEvent] are emitted per probed target, followed by exactly
// one [DoneEvent], after which the channel is closed.
package bench

import (
	"context"
	"sync/atomic"

	"github.com/SoroushMB/DNS-Master/internal/model"
)

// Event is an entry in the stream emitted by [*Worker]. The possible
// events are [ResultEvent], [ProgressEvent], and [DoneEvent].
type Event interface {
	isEvent()
}

// ResultEvent carries the terminal result for a single target. Each
// target produces exactly one such event per run.
type ResultEvent struct {
	// Index is the target's position in the input ordering.
	Index int

	// Result is the probe result.
	Result *model.ProbeResult
}

func (ResultEvent) isEvent() {}

// ProgressEvent reports how far into the run we are. It follows
// each [ResultEvent].
type ProgressEvent struct {
	// Completed is the number of targets probed so far.
	Completed int

	// Total is the overall number of targets.
	Total int
}

func (ProgressEvent) isEvent() {}

// DoneEvent is the final event of a run.
type DoneEvent struct {
	// Status is [model.RunCompleted] when we probed every target
	// and [model.RunCancelled] when termination was requested.
	Status model.RunStatus
}

func (DoneEvent) isEvent() {}

// Worker probes targets sequentially. The zero value is invalid;
// use [NewWorker].
type Worker struct {
	// events is the buffered channel over which we emit events.
	events chan Event

	// logger is the logger to use.
	logger model.Logger

	// prober measures each target.
	prober model.Prober

	// targets is the snapshotted input list.
	targets []model.Target

	// terminated is nonzero after Terminate has been called.
	terminated atomic.Int64
}

// NewWorker creates a [*Worker] probing the given targets with the
// given prober. The target list is snapshotted. The event channel is
// buffered to hold the whole run so the probing goroutine never
// blocks on a slow consumer.
func NewWorker(logger model.Logger, prober model.Prober, targets []model.Target) *Worker {
	return &Worker{
		events:     make(chan Event, 2*len(targets)+2),
		logger:     model.ValidLoggerOrDefault(logger),
		prober:     prober,
		targets:    append([]model.Target{}, targets...),
		terminated: atomic.Int64{},
	}
}

// Events returns the channel over which events are emitted. The
// channel is closed right after the [DoneEvent] is emitted, so
// consumers may simply range over it.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Terminate requests the run to stop. The worker only honors the
// request between targets: a probe already in flight runs to its own
// deadline. Calling this method multiple times or before [*Worker.Start]
// is safe.
func (w *Worker) Terminate() {
	w.terminated.Store(1)
}

// Terminated returns whether [*Worker.Terminate] has been called.
func (w *Worker) Terminated() bool {
	return w.terminated.Load() != 0
}

// Start spawns the goroutine probing the targets. The session layer
// guarantees a worker is started at most once.
func (w *Worker) Start(ctx context.Context) {
	go w.mainloop(ctx)
}

func (w *Worker) mainloop(ctx context.Context) {
	// no matter how the loop ends, the done event is the final
	// event and the channel is closed right after it
	status := model.RunCompleted
	defer func() {
		w.events <- DoneEvent{Status: status}
		close(w.events)
	}()

	for index, target := range w.targets {
		// we honor termination only at target boundaries
		if w.Terminated() || ctx.Err() != nil {
			status = model.RunCancelled
			return
		}

		w.logger.Infof("probing %s", target.String())
		result := w.prober.Probe(ctx, target)
		w.logger.Infof("probed %s: %s", target.String(), result.Status)

		w.events <- ResultEvent{Index: index, Result: result}
		w.events <- ProgressEvent{Completed: index + 1, Total: len(w.targets)}
	}
}
