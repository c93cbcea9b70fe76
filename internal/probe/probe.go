// Package probe measures candidate targets. For a DNS resolver we
// measure the query latency and the throughput obtained when fetching
// a reference payload through names resolved by that resolver. For a
// package mirror we measure the time to first byte and the throughput
// of a bounded download.
//
// The zero value of [Prober] is invalid; construct using [New].
package probe

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/settings"
)

// errUnknownTargetKind means the target kind is not one we can measure.
var errUnknownTargetKind = errors.New("probe: unknown target kind")

// errHTTPRequestFailed means the server returned an unexpected status code.
var errHTTPRequestFailed = errors.New("probe: HTTP request failed")

// Prober measures targets. The zero value is invalid; use [New].
type Prober struct {
	// Dialer is the MANDATORY dialer for DNS and payload connections.
	Dialer model.Dialer

	// Logger is the MANDATORY logger to use.
	Logger model.Logger

	// PayloadMaxBytes is the MANDATORY maximum number of payload
	// bytes we read when measuring throughput.
	PayloadMaxBytes int64

	// PayloadURL is the MANDATORY URL of the reference payload.
	PayloadURL string

	// QueryTimeout is the MANDATORY timeout for a single DNS lookup.
	QueryTimeout time.Duration

	// TargetTimeout is the MANDATORY deadline for the whole target.
	TargetTimeout time.Duration

	// TestDomain is the MANDATORY domain we resolve to measure latency.
	TestDomain string

	// resolverEndpoint obtains the UDP endpoint for a DNS target
	// and is a hook allowing tests to redirect queries.
	resolverEndpoint func(target model.Target) string
}

// New creates a [*Prober] using the given logger and the
// defaults published by the settings package.
func New(logger model.Logger) *Prober {
	return &Prober{
		Dialer:          &net.Dialer{},
		Logger:          model.ValidLoggerOrDefault(logger),
		PayloadMaxBytes: settings.PayloadMaxBytes(),
		PayloadURL:      settings.PayloadURL(),
		QueryTimeout:    settings.QueryTimeout(),
		TargetTimeout:   settings.TargetTimeout(),
		TestDomain:      settings.TestDomain(),
		resolverEndpoint: func(target model.Target) string {
			return target.Endpoint()
		},
	}
}

var _ model.Prober = &Prober{}

// Probe measures the given target. This function does not return
// errors: any failure is folded into the result's Status and
// FailureReason fields. The target measurement as a whole runs
// under the TargetTimeout deadline and a target that is still
// being measured when the deadline expires yields a result with
// [model.ProbeStatusTimeout] and an Elapsed not smaller than the
// deadline itself.
func (p *Prober) Probe(ctx context.Context, target model.Target) *model.ProbeResult {
	// apply the whole-target deadline
	begin := time.Now()
	ctx, cancel := context.WithTimeout(ctx, p.TargetTimeout)
	defer cancel()

	// measure in the background so we can honor the deadline even
	// when the measurement itself is slow to observe cancellation
	resch := make(chan *model.ProbeResult, 1) // buffered so the goroutine never leaks
	go func() {
		resch <- p.probeAny(ctx, target)
	}()

	var result *model.ProbeResult
	select {
	case result = <-resch:
	case <-ctx.Done():
		result = &model.ProbeResult{
			Target:        target,
			Status:        model.ProbeStatusFailed,
			FailureReason: ctx.Err().Error(),
		}
	}
	result.Elapsed = time.Since(begin)

	// a measurement that was still incomplete when the deadline
	// expired is a timeout regardless of which select branch
	// observed the expiration first, and partial measurements
	// from the interrupted probe are discarded
	if result.Status != model.ProbeStatusSuccess && result.Elapsed >= p.TargetTimeout {
		result.Status = model.ProbeStatusTimeout
		result.FailureReason = "timeout"
		result.Latency = 0
		result.Throughput = 0
	}
	return result
}

func (p *Prober) probeAny(ctx context.Context, target model.Target) *model.ProbeResult {
	switch target.Kind {
	case model.TargetKindDNS:
		return p.probeDNS(ctx, target)
	case model.TargetKindMirror:
		return p.probeMirror(ctx, target)
	default:
		return &model.ProbeResult{
			Target:        target,
			Status:        model.ProbeStatusFailed,
			FailureReason: errUnknownTargetKind.Error(),
		}
	}
}

// throughputBits computes the throughput in bits per second given the
// number of bytes moved and the time the transfer took. Transfers too
// fast for the clock to notice yield zero rather than infinity.
func throughputBits(count int64, elapsed time.Duration) float64 {
	if count <= 0 || elapsed <= 0 {
		return 0
	}
	return float64(count*8) / elapsed.Seconds()
}
