package main

//
// Results rendering
//

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/SoroushMB/DNS-Master/internal/humanize"
	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/results"
)

// Colors used for the status column of the results table.
var statusColors = map[model.ProbeStatus]*color.Color{
	model.ProbeStatusSuccess: color.New(color.FgGreen),
	model.ProbeStatusTimeout: color.New(color.FgYellow),
	model.ProbeStatusFailed:  color.New(color.FgRed),
}

// renderResults writes the sorted results table, the run summary, and
// the best ranked target to the given writer.
func renderResults(w io.Writer, mode model.TargetKind, agg *results.Aggregator, status model.RunStatus) {
	renderTable(w, mode, agg)
	renderSummary(w, agg, status)
	renderBest(w, agg)
}

// renderTable writes the results table sorted per the view sort.
func renderTable(w io.Writer, mode model.TargetKind, agg *results.Aggregator) {
	identifier := "resolver"
	if mode == model.TargetKindMirror {
		identifier = "mirror"
	}
	fmt.Fprintf(w, "\n%4s  %-39s  %-22s  %11s  %13s  %s\n",
		"#", identifier, "label", "latency", "throughput", "status")
	for rank, row := range agg.Sorted() {
		fmt.Fprintf(w, "%4d  %-39s  %-22s  %11s  %13s  %s\n",
			rank+1,
			row.Target.Address,
			row.Target.Label,
			formatLatency(row.Result),
			formatThroughput(row.Result),
			formatStatus(row.Result),
		)
	}
}

// renderSummary writes the one-line run summary.
func renderSummary(w io.Writer, agg *results.Aggregator, status model.RunStatus) {
	summary := agg.Summary()
	fmt.Fprintf(w, "\nrun %s: %d probed, %d ok, %d timeout, %d failed",
		status, summary.Probed, summary.Succeeded, summary.TimedOut, summary.Failed)
	if summary.Succeeded > 0 {
		fmt.Fprintf(w, ", median latency %.1f ms, median speed %s",
			summary.MedianLatencyMs,
			strings.TrimSpace(humanize.SI(summary.MedianThroughputBps, "bit/s")))
	}
	fmt.Fprintf(w, ", elapsed %s\n", summary.Elapsed.Round(time.Millisecond))
}

// renderBest writes the best ranked target, when there is one.
func renderBest(w io.Writer, agg *results.Aggregator) {
	best := agg.Best()
	if best.IsNone() {
		return
	}
	fmt.Fprintf(w, "best: %s\n", best.Unwrap().Target.String())
}

// formatLatency formats the latency cell.
func formatLatency(result *model.ProbeResult) string {
	if !result.Succeeded() {
		return "-"
	}
	return humanize.Latency(result.Latency)
}

// formatThroughput formats the throughput cell.
func formatThroughput(result *model.ProbeResult) string {
	if !result.Succeeded() {
		return "-"
	}
	return humanize.SI(result.Throughput, "bit/s")
}

// formatStatus formats and colors the status cell. A nil result means
// the target was never probed because the run was cancelled first.
func formatStatus(result *model.ProbeResult) string {
	if result == nil {
		return "pending"
	}
	text := string(result.Status)
	if result.Status == model.ProbeStatusFailed && result.FailureReason != "" {
		text = fmt.Sprintf("%s: %s", text, result.FailureReason)
	}
	if col := statusColors[result.Status]; col != nil {
		return col.Sprint(text)
	}
	return text
}
