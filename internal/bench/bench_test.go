package bench

import (
	"context"
	"testing"
	"time"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/model/mocks"
	"github.com/SoroushMB/DNS-Master/internal/runtimex"
	"github.com/google/go-cmp/cmp"
)

// newTargetsForTest creates a list of distinct DNS targets.
func newTargetsForTest(t *testing.T, addresses ...string) []model.Target {
	t.Helper()
	var targets []model.Target
	for _, address := range addresses {
		target, err := model.NewDNSTarget(address, "")
		if err != nil {
			t.Fatal(err)
		}
		targets = append(targets, target)
	}
	return targets
}

// successProber returns a prober that always succeeds with a
// latency derived from the target address.
func successProber() model.Prober {
	return &mocks.Prober{
		MockProbe: func(ctx context.Context, target model.Target) *model.ProbeResult {
			return &model.ProbeResult{
				Target:     target,
				Status:     model.ProbeStatusSuccess,
				Latency:    time.Millisecond,
				Throughput: 1e6,
				Elapsed:    2 * time.Millisecond,
			}
		},
	}
}

// collectEvents drains the worker's channel into a slice.
func collectEvents(w *Worker) []Event {
	var events []Event
	for ev := range w.Events() {
		events = append(events, ev)
	}
	return events
}

func TestWorkerCompleteRun(t *testing.T) {
	targets := newTargetsForTest(t, "1.1.1.1", "8.8.8.8", "9.9.9.9")
	w := NewWorker(model.DiscardLogger, successProber(), targets)
	w.Start(context.Background())
	events := collectEvents(w)

	// a complete run over three targets emits seven events: one
	// result and one progress per target, then the done event
	if len(events) != 7 {
		t.Fatal("unexpected number of events", len(events))
	}
	for idx := 0; idx < 3; idx++ {
		rev, good := events[2*idx].(ResultEvent)
		if !good {
			t.Fatalf("event %d: expected a result event", 2*idx)
		}
		if rev.Index != idx {
			t.Fatal("unexpected result index", rev.Index)
		}
		if !rev.Result.Succeeded() {
			t.Fatal("expected a successful result")
		}
		if rev.Result.Target.Address != targets[idx].Address {
			t.Fatal("unexpected result target", rev.Result.Target.Address)
		}
		pev, good := events[2*idx+1].(ProgressEvent)
		if !good {
			t.Fatalf("event %d: expected a progress event", 2*idx+1)
		}
		if diff := cmp.Diff(ProgressEvent{Completed: idx + 1, Total: 3}, pev); diff != "" {
			t.Fatal(diff)
		}
	}
	dev, good := events[6].(DoneEvent)
	if !good {
		t.Fatal("expected a done event")
	}
	if dev.Status != model.RunCompleted {
		t.Fatal("unexpected done status", dev.Status)
	}
}

func TestWorkerEmptyTargetList(t *testing.T) {
	w := NewWorker(model.DiscardLogger, successProber(), nil)
	w.Start(context.Background())
	events := collectEvents(w)
	if diff := cmp.Diff([]Event{DoneEvent{Status: model.RunCompleted}}, events); diff != "" {
		t.Fatal(diff)
	}
}

func TestWorkerTerminateBeforeStart(t *testing.T) {
	targets := newTargetsForTest(t, "1.1.1.1", "8.8.8.8")
	probed := 0
	prober := &mocks.Prober{
		MockProbe: func(ctx context.Context, target model.Target) *model.ProbeResult {
			probed++
			return &model.ProbeResult{Target: target, Status: model.ProbeStatusSuccess}
		},
	}
	w := NewWorker(model.DiscardLogger, prober, targets)
	w.Terminate()
	w.Terminate() // the second call is a no-op
	w.Start(context.Background())
	events := collectEvents(w)
	if diff := cmp.Diff([]Event{DoneEvent{Status: model.RunCancelled}}, events); diff != "" {
		t.Fatal(diff)
	}
	if probed != 0 {
		t.Fatal("expected no probes", probed)
	}
}

func TestWorkerTerminateMidRun(t *testing.T) {
	targets := newTargetsForTest(t, "1.1.1.1", "8.8.8.8", "9.9.9.9", "94.140.14.14")
	w := NewWorker(model.DiscardLogger, nil, targets)
	calls := 0
	w.prober = &mocks.Prober{
		MockProbe: func(ctx context.Context, target model.Target) *model.ProbeResult {
			calls++
			if calls == 2 {
				// termination requested while the second probe is
				// in flight: the probe itself still completes
				w.Terminate()
			}
			return &model.ProbeResult{Target: target, Status: model.ProbeStatusSuccess}
		},
	}
	w.Start(context.Background())
	events := collectEvents(w)

	// two completed targets yield two results, two progress
	// events, and a cancelled done event
	if len(events) != 5 {
		t.Fatal("unexpected number of events", len(events))
	}
	dev, good := events[4].(DoneEvent)
	if !good {
		t.Fatal("expected a done event")
	}
	if dev.Status != model.RunCancelled {
		t.Fatal("unexpected done status", dev.Status)
	}
	if calls != 2 {
		t.Fatal("unexpected number of probe calls", calls)
	}
}

func TestWorkerContextCancellation(t *testing.T) {
	targets := newTargetsForTest(t, "1.1.1.1", "8.8.8.8")
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel before starting
	w := NewWorker(model.DiscardLogger, successProber(), targets)
	w.Start(ctx)
	events := collectEvents(w)
	if diff := cmp.Diff([]Event{DoneEvent{Status: model.RunCancelled}}, events); diff != "" {
		t.Fatal(diff)
	}
}

func TestWorkerSnapshotsTargets(t *testing.T) {
	targets := newTargetsForTest(t, "1.1.1.1", "8.8.8.8")
	w := NewWorker(model.DiscardLogger, successProber(), targets)

	// mutating the input list after construction must not
	// change what the worker probes
	targets[0] = runtimex.Try1(model.NewDNSTarget("10.0.0.1", ""))

	w.Start(context.Background())
	events := collectEvents(w)
	rev := events[0].(ResultEvent)
	if rev.Result.Target.Address != "1.1.1.1" {
		t.Fatal("unexpected target", rev.Result.Target.Address)
	}
}

func TestWorkerChannelCapacity(t *testing.T) {
	targets := newTargetsForTest(t, "1.1.1.1", "8.8.8.8", "9.9.9.9")
	w := NewWorker(model.DiscardLogger, successProber(), targets)
	if cap(w.events) != 8 {
		t.Fatal("unexpected channel capacity", cap(w.events))
	}
}

func TestWorkerTerminated(t *testing.T) {
	w := NewWorker(model.DiscardLogger, successProber(), nil)
	if w.Terminated() {
		t.Fatal("expected false before Terminate")
	}
	w.Terminate()
	if !w.Terminated() {
		t.Fatal("expected true after Terminate")
	}
}
