package model

//
// Probe results and run lifecycle
//

import (
	"context"
	"time"
)

// ProbeStatus is the terminal verdict of probing a single target. A
// target that has not been probed yet has no [ProbeResult] at all, so
// there is no pending status here.
type ProbeStatus string

const (
	// ProbeStatusSuccess means both measurements completed.
	ProbeStatusSuccess = ProbeStatus("success")

	// ProbeStatusTimeout means the per-target deadline expired.
	ProbeStatusTimeout = ProbeStatus("timeout")

	// ProbeStatusFailed means some measurement failed before the
	// per-target deadline.
	ProbeStatusFailed = ProbeStatus("failed")
)

// ProbeResult is the terminal result of probing a single target.
type ProbeResult struct {
	// Target is the target this result belongs to.
	Target Target

	// Status is the MANDATORY terminal verdict.
	Status ProbeStatus

	// Latency is the measured latency: the test-domain lookup time
	// for resolvers, the time to first response byte for mirrors.
	// Partial failures keep the latency measured before the failure.
	Latency time.Duration

	// Throughput is the measured download speed in bit/s. Zero
	// unless Status is success.
	Throughput float64

	// Elapsed is the total wall-clock time spent on this target.
	// For timeouts this is at least the per-target deadline.
	Elapsed time.Duration

	// FailureReason is the one-line reason when Status is not
	// success, and empty otherwise.
	FailureReason string
}

// Succeeded is a convenience accessor for Status == success that is
// also safe to call on a nil result, which stands for pending.
func (r *ProbeResult) Succeeded() bool {
	return r != nil && r.Status == ProbeStatusSuccess
}

// RunStatus is the lifecycle state of a benchmark run.
type RunStatus string

const (
	// RunIdle means no run has started yet.
	RunIdle = RunStatus("idle")

	// RunActive means the worker is probing targets.
	RunActive = RunStatus("active")

	// RunCompleted means every target was probed.
	RunCompleted = RunStatus("completed")

	// RunCancelled means the run was terminated at a target
	// boundary before probing every target.
	RunCancelled = RunStatus("cancelled")
)

// Prober measures a single target. Implementations never return an
// error: failures are part of the result. Implementations honor ctx
// and return early, with a timeout or failed result, when it dies.
type Prober interface {
	Probe(ctx context.Context, target Target) *ProbeResult
}
