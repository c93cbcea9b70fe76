// Package session implements the interactive state machine. A session
// moves between three screens: the input screen where the target list
// is edited, the running screen while the benchmark worker is active,
// and the results screen where the table is browsed, re-sorted, and
// possibly applied to the system DNS configuration.
//
// The session is single goroutine. The only cross goroutine
// interaction is the worker's event channel and the worker's atomic
// termination flag.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/SoroushMB/DNS-Master/internal/bench"
	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/optional"
	"github.com/SoroushMB/DNS-Master/internal/probe"
	"github.com/SoroushMB/DNS-Master/internal/results"
	"github.com/SoroushMB/DNS-Master/internal/sysdns"
)

// Screen identifies a screen of the interactive interface.
type Screen string

const (
	// ScreenInput is where the target list is edited.
	ScreenInput = Screen("input")

	// ScreenRunning is shown while the worker probes targets.
	ScreenRunning = Screen("running")

	// ScreenResults is where the finished run is browsed.
	ScreenResults = Screen("results")
)

// Errors returned by session operations.
var (
	// ErrRunActive means the operation is not allowed while the
	// worker is probing targets.
	ErrRunActive = errors.New("session: a run is active")

	// ErrNoTargets means the current mode's target list is empty.
	ErrNoTargets = errors.New("session: the target list is empty")

	// ErrNoSuccessfulResult means no target succeeded, hence there
	// is nothing to apply.
	ErrNoSuccessfulResult = errors.New("session: no successful result")

	// ErrDuplicateTarget means the target is already in the list.
	ErrDuplicateTarget = errors.New("session: duplicate target")

	// ErrInvalidScreen means the operation is not allowed on the
	// current screen.
	ErrInvalidScreen = errors.New("session: operation not allowed on this screen")

	// ErrTargetKindMismatch means a bulk-loaded target does not
	// match the current mode.
	ErrTargetKindMismatch = errors.New("session: target kind does not match the mode")

	// ErrNotDNSMode means the operation requires DNS mode.
	ErrNotDNSMode = errors.New("session: not in DNS mode")
)

// Applier applies a DNS resolver address to the system configuration
// and returns the name of the mechanism it used.
type Applier interface {
	Apply(ctx context.Context, address string) (mechanism string, err error)
}

// Deps contains the session dependencies.
type Deps struct {
	// Applier is the OPTIONAL system DNS applier, defaulting
	// to [sysdns.New].
	Applier Applier

	// NewProber is the OPTIONAL factory used to create the prober
	// for each run, defaulting to [probe.New].
	NewProber func(logger model.Logger) model.Prober
}

// statusMessage is the transient message shown by the interface.
type statusMessage struct {
	text    string
	isError bool
	present bool
}

// Session is the state machine. The zero value is invalid; use
// [NewSession].
type Session struct {
	// aggregator collects results for the current run.
	aggregator *results.Aggregator

	// applier applies the best resolver to the system.
	applier Applier

	// dnsTargets is the DNS mode target list.
	dnsTargets []model.Target

	// logger is the logger to use.
	logger model.Logger

	// mirrorTargets is the mirror mode target list.
	mirrorTargets []model.Target

	// mode selects which family of targets we benchmark.
	mode model.TargetKind

	// newProber creates the prober for each run.
	newProber func(logger model.Logger) model.Prober

	// screen is the current screen.
	screen Screen

	// status is the transient status message.
	status statusMessage

	// worker is the live worker, nil unless running.
	worker *bench.Worker
}

// NewSession creates a [*Session] on the input screen in DNS mode.
func NewSession(logger model.Logger, deps Deps) *Session {
	logger = model.ValidLoggerOrDefault(logger)
	applier := deps.Applier
	if applier == nil {
		applier = sysdns.New(logger)
	}
	newProber := deps.NewProber
	if newProber == nil {
		newProber = func(logger model.Logger) model.Prober {
			return probe.New(logger)
		}
	}
	return &Session{
		aggregator: results.NewAggregator(),
		applier:    applier,
		logger:     logger,
		mode:       model.TargetKindDNS,
		newProber:  newProber,
		screen:     ScreenInput,
	}
}

// Screen returns the current screen.
func (s *Session) Screen() Screen {
	return s.screen
}

// Mode returns the current mode.
func (s *Session) Mode() model.TargetKind {
	return s.mode
}

// Aggregator returns the results aggregator for rendering views.
func (s *Session) Aggregator() *results.Aggregator {
	return s.aggregator
}

// Targets returns a copy of the current mode's target list.
func (s *Session) Targets() []model.Target {
	return append([]model.Target{}, *s.currentTargets()...)
}

// currentTargets returns the list backing the current mode.
func (s *Session) currentTargets() *[]model.Target {
	if s.mode == model.TargetKindMirror {
		return &s.mirrorTargets
	}
	return &s.dnsTargets
}

// StatusMessage returns the transient status message. State changing
// operations replace it; it is not cleared by reading.
func (s *Session) StatusMessage() (text string, isError bool, present bool) {
	return s.status.text, s.status.isError, s.status.present
}

func (s *Session) setStatus(text string, isError bool) {
	s.status = statusMessage{text: text, isError: isError, present: true}
}

// AddTarget validates raw per the current mode and appends it to the
// current mode's target list. Everything after the first whitespace
// inside raw becomes the target label. Duplicates are rejected.
func (s *Session) AddTarget(raw string) error {
	if s.screen != ScreenInput {
		return ErrInvalidScreen
	}
	fields := strings.Fields(raw)
	var address, label string
	if len(fields) > 0 {
		address = fields[0]
		label = strings.Join(fields[1:], " ")
	}
	target, err := model.NewTarget(s.mode, address, label)
	if err != nil {
		s.setStatus(err.Error(), true)
		return err
	}
	list := s.currentTargets()
	for _, existing := range *list {
		if existing.Address == target.Address {
			s.setStatus(ErrDuplicateTarget.Error(), true)
			return ErrDuplicateTarget
		}
	}
	*list = append(*list, target)
	return nil
}

// RemoveLastTarget removes and returns the most recently added target
// of the current mode, or None when there is nothing to remove or the
// screen is not the input screen.
func (s *Session) RemoveLastTarget() optional.Value[model.Target] {
	if s.screen != ScreenInput {
		return optional.None[model.Target]()
	}
	list := s.currentTargets()
	if len(*list) < 1 {
		return optional.None[model.Target]()
	}
	last := (*list)[len(*list)-1]
	*list = (*list)[:len(*list)-1]
	return optional.Some(last)
}

// SetTargets bulk loads the current mode's target list, replacing it.
// Every target must match the current mode. Duplicate addresses are
// silently collapsed, first occurrence wins.
func (s *Session) SetTargets(targets []model.Target) error {
	if s.screen != ScreenInput {
		return ErrInvalidScreen
	}
	seen := make(map[string]bool)
	var list []model.Target
	for _, target := range targets {
		if target.Kind != s.mode {
			return ErrTargetKindMismatch
		}
		if seen[target.Address] {
			continue
		}
		seen[target.Address] = true
		list = append(list, target)
	}
	*s.currentTargets() = list
	return nil
}

// ToggleMode switches between DNS and mirror mode. Each mode's target
// list is preserved across switches. Toggling while a run is active
// is rejected with [ErrRunActive] and does not disturb the run.
func (s *Session) ToggleMode() error {
	if s.screen == ScreenRunning {
		s.setStatus(ErrRunActive.Error(), true)
		return ErrRunActive
	}
	if s.mode == model.TargetKindDNS {
		s.mode = model.TargetKindMirror
	} else {
		s.mode = model.TargetKindDNS
	}
	return nil
}

// Start begins a benchmark run over the current mode's targets and
// moves to the running screen. Allowed from the input screen and from
// the results screen, where it implies starting over.
func (s *Session) Start() error {
	if s.screen != ScreenInput && s.screen != ScreenResults {
		return ErrInvalidScreen
	}
	targets := s.Targets()
	if len(targets) < 1 {
		s.setStatus(ErrNoTargets.Error(), true)
		return ErrNoTargets
	}
	prober := s.newProber(s.logger)
	s.worker = bench.NewWorker(s.logger, prober, targets)
	s.aggregator.StartRun(targets)
	s.screen = ScreenRunning
	s.worker.Start(context.Background())
	return nil
}

// Cancel requests the active run to stop. The screen moves to the
// results screen only when the worker's final event arrives, since
// termination is observed at a target boundary and results produced
// in the meantime still land. Calling Cancel while not running is a
// no-op.
func (s *Session) Cancel() {
	if s.worker != nil {
		s.worker.Terminate()
		s.setStatus("cancelling at the next target boundary", false)
	}
}

// HandleEvents drains without blocking whatever events the worker has
// emitted so far, updating the aggregator and possibly moving to the
// results screen. The rendering loop calls this on every tick.
func (s *Session) HandleEvents() {
	for s.worker != nil {
		select {
		case ev, open := <-s.worker.Events():
			if !open {
				s.worker = nil
				return
			}
			s.handleEvent(ev)
		default:
			return
		}
	}
}

// AwaitDone blocks until the run finishes, forwarding progress to the
// given optional callback. When ctx is cancelled the worker is asked
// to terminate and we keep draining until its final event. Returns
// the final run status.
func (s *Session) AwaitDone(ctx context.Context, onProgress func(completed, total int)) model.RunStatus {
	if s.worker == nil {
		return s.aggregator.Status()
	}
	w := s.worker
	stop := context.AfterFunc(ctx, w.Terminate)
	defer stop()
	for ev := range w.Events() {
		s.handleEvent(ev)
		if pev, good := ev.(bench.ProgressEvent); good && onProgress != nil {
			onProgress(pev.Completed, pev.Total)
		}
	}
	s.worker = nil
	return s.aggregator.Status()
}

// handleEvent applies a single worker event to the session.
func (s *Session) handleEvent(ev bench.Event) {
	switch ev := ev.(type) {
	case bench.ResultEvent:
		s.aggregator.Record(ev)
	case bench.ProgressEvent:
		s.aggregator.SetProgress(ev.Completed, ev.Total)
	case bench.DoneEvent:
		s.aggregator.Finish(ev.Status)
		s.worker = nil
		s.screen = ScreenResults
		switch ev.Status {
		case model.RunCancelled:
			s.setStatus("run cancelled", false)
		default:
			s.setStatus("run completed", false)
		}
	}
}

// Reset clears the results and returns to the input screen. The
// target lists of both modes are preserved.
func (s *Session) Reset() error {
	if s.screen != ScreenResults {
		return ErrInvalidScreen
	}
	s.aggregator.Reset()
	s.screen = ScreenInput
	return nil
}

// CycleSortColumn advances the results view sort column. It only has
// effect on the results screen.
func (s *Session) CycleSortColumn() {
	if s.screen == ScreenResults {
		s.aggregator.CycleSortColumn()
	}
}

// ToggleSortDirection inverts the results view sort direction. It
// only has effect on the results screen.
func (s *Session) ToggleSortDirection() {
	if s.screen == ScreenResults {
		s.aggregator.ToggleSortDirection()
	}
}

// ApplyBest applies the best ranked resolver, the successful row with
// the lowest latency, to the system DNS configuration. Allowed on the
// results screen in DNS mode only. When no row succeeded this returns
// [ErrNoSuccessfulResult] without touching the system.
func (s *Session) ApplyBest(ctx context.Context) (string, error) {
	if s.screen != ScreenResults {
		return "", ErrInvalidScreen
	}
	if s.mode != model.TargetKindDNS {
		s.setStatus(ErrNotDNSMode.Error(), true)
		return "", ErrNotDNSMode
	}
	best := s.aggregator.Best()
	if best.IsNone() {
		s.setStatus(ErrNoSuccessfulResult.Error(), true)
		return "", ErrNoSuccessfulResult
	}
	address := best.Unwrap().Target.Address
	mechanism, err := s.applier.Apply(ctx, address)
	if err != nil {
		s.setStatus(err.Error(), true)
		return "", err
	}
	message := fmt.Sprintf("system DNS set to %s via %s", address, mechanism)
	s.setStatus(message, false)
	return message, nil
}

// Quit prepares for process exit. An active run is terminated and
// drained so the worker goroutine is gone when we return.
func (s *Session) Quit() {
	if s.worker != nil {
		w := s.worker
		w.Terminate()
		for ev := range w.Events() {
			s.handleEvent(ev)
		}
		s.worker = nil
	}
}
