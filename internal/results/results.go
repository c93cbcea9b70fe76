// Package results collects probe results during a run and computes
// the views shown to the user: the sorted table, the best target, and
// the run summary. The aggregator is owned by a single goroutine and
// performs no locking.
package results

import (
	"sort"
	"time"

	"github.com/SoroushMB/DNS-Master/internal/bench"
	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/optional"
	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
)

// SortColumn selects the primary key used to sort the results table.
type SortColumn string

const (
	// ColumnTarget sorts by the target identifier.
	ColumnTarget = SortColumn("target")

	// ColumnLatency sorts by measured latency.
	ColumnLatency = SortColumn("latency")

	// ColumnThroughput sorts by measured throughput.
	ColumnThroughput = SortColumn("throughput")
)

// SortSpec describes how to sort the results table.
type SortSpec struct {
	// Column is the primary sort key.
	Column SortColumn

	// Ascending is the sort direction.
	Ascending bool
}

// Row is an entry of the sorted results table.
type Row struct {
	// Index is the target's position in the input ordering, which
	// lets views correlate rows with the canonical list.
	Index int

	// Target is the probed target.
	Target model.Target

	// Result is the probe result, nil when still pending.
	Result *model.ProbeResult
}

// Summary contains aggregate statistics for a run. Medians are
// computed over successful rows only.
type Summary struct {
	// Probed is the number of targets with a recorded result.
	Probed int

	// Succeeded is the number of successful results.
	Succeeded int

	// TimedOut is the number of results that hit the deadline.
	TimedOut int

	// Failed is the number of results that failed otherwise.
	Failed int

	// MedianLatencyMs is the median latency in milliseconds.
	MedianLatencyMs float64

	// MedianThroughputBps is the median throughput in bits per second.
	MedianThroughputBps float64

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
}

// Aggregator aggregates the results of a benchmark run. The zero
// value is invalid; use [NewAggregator].
type Aggregator struct {
	// completed counts the non-nil entries of results.
	completed int

	// finishedAt is when Finish was called.
	finishedAt time.Time

	// results is index-aligned with targets, nil meaning pending.
	results []*model.ProbeResult

	// runID identifies the current run.
	runID string

	// sortSpec is the current view sort. It survives Reset.
	sortSpec SortSpec

	// startedAt is when StartRun was called.
	startedAt time.Time

	// status is the run lifecycle state.
	status model.RunStatus

	// targets is the snapshotted input ordering.
	targets []model.Target
}

// NewAggregator creates an empty [*Aggregator] whose initial view
// sorts by ascending latency.
func NewAggregator() *Aggregator {
	return &Aggregator{
		sortSpec: SortSpec{Column: ColumnLatency, Ascending: true},
		status:   model.RunIdle,
	}
}

// StartRun prepares for a new run over the given targets: fresh run
// ID, all results pending, zero completed count.
func (agg *Aggregator) StartRun(targets []model.Target) {
	agg.completed = 0
	agg.finishedAt = time.Time{}
	agg.results = make([]*model.ProbeResult, len(targets))
	agg.runID = uuid.NewString()
	agg.startedAt = time.Now()
	agg.status = model.RunActive
	agg.targets = append([]model.Target{}, targets...)
}

// Record stores the result carried by the given event at its index.
// The last write for an index wins but only the first one increments
// the completed count. Events whose index is out of range are ignored.
func (agg *Aggregator) Record(ev bench.ResultEvent) {
	if ev.Index < 0 || ev.Index >= len(agg.results) {
		return
	}
	if agg.results[ev.Index] == nil && ev.Result != nil {
		agg.completed++
	}
	agg.results[ev.Index] = ev.Result
}

// SetProgress reconciles the completed count with a progress event.
// The counts recorded through [Aggregator.Record] are authoritative
// so this method only ever moves the count forward.
func (agg *Aggregator) SetProgress(completed, total int) {
	if total == len(agg.targets) && completed > agg.completed && completed <= total {
		agg.completed = completed
	}
}

// Finish marks the run as finished with the given status.
func (agg *Aggregator) Finish(status model.RunStatus) {
	agg.finishedAt = time.Now()
	agg.status = status
}

// Reset clears the recorded results and counters. The view sort
// preference survives.
func (agg *Aggregator) Reset() {
	agg.completed = 0
	agg.finishedAt = time.Time{}
	agg.results = nil
	agg.runID = ""
	agg.startedAt = time.Time{}
	agg.status = model.RunIdle
	agg.targets = nil
}

// Status returns the run lifecycle state.
func (agg *Aggregator) Status() model.RunStatus {
	return agg.status
}

// RunID returns the identifier of the current run, which is the
// empty string before the first run and after a reset.
func (agg *Aggregator) RunID() string {
	return agg.runID
}

// Progress returns the completed and total target counts.
func (agg *Aggregator) Progress() (completed, total int) {
	return agg.completed, len(agg.targets)
}

// SortSpec returns the current view sort.
func (agg *Aggregator) SortSpec() SortSpec {
	return agg.sortSpec
}

// SetSortSpec replaces the view sort.
func (agg *Aggregator) SetSortSpec(spec SortSpec) {
	agg.sortSpec = spec
}

// CycleSortColumn advances the view sort to the next column.
func (agg *Aggregator) CycleSortColumn() {
	switch agg.sortSpec.Column {
	case ColumnTarget:
		agg.sortSpec.Column = ColumnLatency
	case ColumnLatency:
		agg.sortSpec.Column = ColumnThroughput
	default:
		agg.sortSpec.Column = ColumnTarget
	}
}

// ToggleSortDirection inverts the view sort direction.
func (agg *Aggregator) ToggleSortDirection() {
	agg.sortSpec.Ascending = !agg.sortSpec.Ascending
}

// Sorted returns the results table sorted per the current view sort.
// The returned slice is a fresh copy and sorting is stable. Rows
// without a successful result sort below all successful rows in both
// directions and keep their input order among themselves.
func (agg *Aggregator) Sorted() []Row {
	return agg.sortedWith(agg.sortSpec)
}

func (agg *Aggregator) sortedWith(spec SortSpec) []Row {
	rows := make([]Row, 0, len(agg.targets))
	for idx, target := range agg.targets {
		rows = append(rows, Row{Index: idx, Target: target, Result: agg.results[idx]})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return lessRows(rows[i], rows[j], spec)
	})
	return rows
}

// lessRows compares two rows under the given spec. Equal keys return
// false so the stable sort preserves the input order.
func lessRows(left, right Row, spec SortSpec) bool {
	lok, rok := left.Result.Succeeded(), right.Result.Succeeded()
	if lok != rok {
		return lok
	}
	if !lok {
		return false
	}
	switch spec.Column {
	case ColumnTarget:
		if left.Target.Address == right.Target.Address {
			return false
		}
		if spec.Ascending {
			return left.Target.Address < right.Target.Address
		}
		return left.Target.Address > right.Target.Address
	case ColumnThroughput:
		if left.Result.Throughput == right.Result.Throughput {
			return false
		}
		if spec.Ascending {
			return left.Result.Throughput < right.Result.Throughput
		}
		return left.Result.Throughput > right.Result.Throughput
	default:
		if left.Result.Latency == right.Result.Latency {
			return false
		}
		if spec.Ascending {
			return left.Result.Latency < right.Result.Latency
		}
		return left.Result.Latency > right.Result.Latency
	}
}

// Best returns the successful row with the lowest latency no matter
// what the current view sort is, or None when no row succeeded.
func (agg *Aggregator) Best() optional.Value[Row] {
	rows := agg.sortedWith(SortSpec{Column: ColumnLatency, Ascending: true})
	if len(rows) < 1 || !rows[0].Result.Succeeded() {
		return optional.None[Row]()
	}
	return optional.Some(rows[0])
}

// Summary computes aggregate statistics over the recorded results.
func (agg *Aggregator) Summary() Summary {
	summary := Summary{}
	var latencies, throughputs []float64
	for _, result := range agg.results {
		if result == nil {
			continue
		}
		summary.Probed++
		switch result.Status {
		case model.ProbeStatusSuccess:
			summary.Succeeded++
			latencies = append(latencies, float64(result.Latency)/float64(time.Millisecond))
			throughputs = append(throughputs, result.Throughput)
		case model.ProbeStatusTimeout:
			summary.TimedOut++
		default:
			summary.Failed++
		}
	}
	summary.MedianLatencyMs = medianOrZero(latencies)
	summary.MedianThroughputBps = medianOrZero(throughputs)
	if !agg.startedAt.IsZero() && !agg.finishedAt.IsZero() {
		summary.Elapsed = agg.finishedAt.Sub(agg.startedAt)
	}
	return summary
}

// medianOrZero computes the median of the given values with zero
// standing for no values at all.
func medianOrZero(values []float64) float64 {
	median, err := stats.Median(values)
	if err != nil {
		return 0
	}
	return median
}
