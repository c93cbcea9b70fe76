package main

//
// The run subcommand: seed targets, benchmark, render results
//

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/SoroushMB/DNS-Master/internal/mirrors"
	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/probe"
	"github.com/SoroushMB/DNS-Master/internal/results"
	"github.com/SoroushMB/DNS-Master/internal/session"
	"github.com/SoroushMB/DNS-Master/internal/targetloading"
)

// Errors caused by invalid flag combinations.
var (
	// errUnknownMode means the --mode flag value is not a mode.
	errUnknownMode = errors.New("unknown mode")

	// errUnknownSortColumn means the --sort flag value is not a column.
	errUnknownSortColumn = errors.New("unknown sort column")

	// errWellKnownRequiresDNS means --well-known was used outside DNS mode.
	errWellKnownRequiresDNS = errors.New("the --well-known flag requires DNS mode")

	// errDistroRequiresMirror means --distro was used outside mirror mode.
	errDistroRequiresMirror = errors.New("the --distro flag requires mirror mode")

	// errApplyBestRequiresDNS means --apply-best was used outside DNS mode.
	errApplyBestRequiresDNS = errors.New("the --apply-best flag requires DNS mode")
)

// registerRun registers the run subcommand
func registerRun(rootCmd *cobra.Command, globalOptions *Options) {
	subCmd := &cobra.Command{
		Use:   "run",
		Short: "Benchmarks the configured targets and ranks them",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logger := newLogger(globalOptions)
			fatalOnError(logger, runMain(context.Background(), logger, globalOptions), "run failed")
		},
	}
	rootCmd.AddCommand(subCmd)
	flags := subCmd.Flags()

	flags.StringVarP(
		&globalOptions.Mode,
		"mode",
		"m",
		"dns",
		"what to benchmark (one of: dns, mirror)",
	)

	flags.StringVarP(
		&globalOptions.Targets,
		"targets",
		"t",
		"",
		"comma-separated list of targets to benchmark",
	)

	flags.StringVarP(
		&globalOptions.File,
		"file",
		"f",
		"",
		"path of a CSV or JSON file listing targets",
	)

	flags.BoolVar(
		&globalOptions.WellKnown,
		"well-known",
		false,
		"also benchmark the well known public resolvers (DNS mode)",
	)

	flags.StringVar(
		&globalOptions.Distro,
		"distro",
		"",
		"benchmark the catalog mirrors of the given distribution (mirror mode)",
	)

	flags.BoolVar(
		&globalOptions.ApplyBest,
		"apply-best",
		false,
		"after the run, set the system DNS to the best resolver",
	)

	flags.StringVar(
		&globalOptions.TestDomain,
		"test-domain",
		"",
		"domain to resolve when measuring resolver latency",
	)

	flags.StringVar(
		&globalOptions.PayloadURL,
		"payload-url",
		"",
		"URL of the payload fetched when measuring throughput",
	)

	flags.DurationVar(
		&globalOptions.Timeout,
		"timeout",
		0,
		"per-target deadline (for example: 5s); zero uses the default",
	)

	flags.StringVar(
		&globalOptions.SortBy,
		"sort",
		"latency",
		"results table sort column (one of: target, latency, throughput)",
	)

	flags.BoolVar(
		&globalOptions.Descending,
		"desc",
		false,
		"sort the results table in descending order",
	)
}

// runMain implements the run subcommand.
func runMain(ctx context.Context, logger *log.Logger, currentOptions *Options) error {
	mode, err := parseMode(currentOptions.Mode)
	if err != nil {
		return err
	}
	sortSpec, err := parseSortSpec(currentOptions)
	if err != nil {
		return err
	}
	if currentOptions.WellKnown && mode != model.TargetKindDNS {
		return errWellKnownRequiresDNS
	}
	if currentOptions.Distro != "" && mode != model.TargetKindMirror {
		return errDistroRequiresMirror
	}
	if currentOptions.ApplyBest && mode != model.TargetKindDNS {
		return errApplyBestRequiresDNS
	}

	sess := session.NewSession(logger, session.Deps{
		NewProber: newProberFactory(currentOptions),
	})
	if mode == model.TargetKindMirror {
		if err := sess.ToggleMode(); err != nil {
			return err
		}
	}

	seeded, err := seedTargets(sess, logger, currentOptions)
	if err != nil {
		return err
	}
	if !seeded {
		if currentOptions.Batch {
			return session.ErrNoTargets
		}
		if err := promptForTargets(sess); err != nil {
			return err
		}
	}
	if len(sess.Targets()) < 1 {
		// finishing interactive entry with an empty list is
		// the user's way of changing their mind
		logger.Info("nothing to benchmark")
		return nil
	}

	// stop at the next target boundary when interrupted
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigch
		logger.Info("interrupted, stopping at the next target boundary")
		cancel()
	}()

	if err := sess.Start(); err != nil {
		return err
	}
	bar := newProgressBar(len(sess.Targets()))
	status := sess.AwaitDone(ctx, func(completed, total int) {
		bar.Add(1)
	})
	if status != model.RunCompleted {
		// the completion callback already printed the newline
		// ending the bar on the happy path
		fmt.Fprint(os.Stdout, "\n")
	}

	agg := sess.Aggregator()
	agg.SetSortSpec(sortSpec)
	renderResults(os.Stdout, mode, agg, status)

	if currentOptions.ApplyBest {
		if status != model.RunCompleted {
			logger.Info("run interrupted, not applying the best resolver")
			return nil
		}
		applyBestResult(ctx, sess, logger, currentOptions)
	}
	return nil
}

// parseMode maps the --mode flag onto a target kind.
func parseMode(mode string) (model.TargetKind, error) {
	switch mode {
	case "dns":
		return model.TargetKindDNS, nil
	case "mirror":
		return model.TargetKindMirror, nil
	default:
		return "", fmt.Errorf("%w: %s", errUnknownMode, mode)
	}
}

// parseSortSpec maps the --sort and --desc flags onto a sort spec.
func parseSortSpec(currentOptions *Options) (results.SortSpec, error) {
	spec := results.SortSpec{Ascending: !currentOptions.Descending}
	switch currentOptions.SortBy {
	case "target":
		spec.Column = results.ColumnTarget
	case "latency":
		spec.Column = results.ColumnLatency
	case "throughput":
		spec.Column = results.ColumnThroughput
	default:
		return results.SortSpec{}, fmt.Errorf("%w: %s", errUnknownSortColumn, currentOptions.SortBy)
	}
	return spec, nil
}

// newProberFactory creates the prober factory honoring the
// measurement flags. Flags left at their zero value defer to the
// defaults published by the settings package.
func newProberFactory(currentOptions *Options) func(model.Logger) model.Prober {
	return func(logger model.Logger) model.Prober {
		prober := probe.New(logger)
		if currentOptions.TestDomain != "" {
			prober.TestDomain = currentOptions.TestDomain
		}
		if currentOptions.PayloadURL != "" {
			prober.PayloadURL = currentOptions.PayloadURL
		}
		if currentOptions.Timeout > 0 {
			prober.TargetTimeout = currentOptions.Timeout
		}
		return prober
	}
}

// seedTargets fills the session target list from the command line
// options. It returns whether any seeding source produced targets, so
// the caller knows whether to fall back to interactive entry.
func seedTargets(sess *session.Session, logger model.Logger, currentOptions *Options) (bool, error) {
	loader := targetloading.NewLoader(logger)
	var all []model.Target

	if currentOptions.Targets != "" {
		targets, skipped := loader.ParseList(sess.Mode(), currentOptions.Targets)
		warnSkipped(logger, skipped)
		all = append(all, targets...)
	}

	if currentOptions.File != "" {
		targets, skipped, err := loader.LoadFile(sess.Mode(), currentOptions.File)
		if err != nil {
			return false, err
		}
		warnSkipped(logger, skipped)
		all = append(all, targets...)
	}

	if currentOptions.WellKnown {
		all = append(all, targetloading.WellKnownResolvers()...)
	}

	if currentOptions.Distro != "" {
		distro, err := mirrors.ParseDistro(currentOptions.Distro)
		if err != nil {
			return false, err
		}
		all = append(all, mirrors.ForDistro(distro)...)
	}

	// in mirror mode with no explicit seeding we try the mirrors
	// of the distribution we are running on
	if len(all) < 1 && sess.Mode() == model.TargetKindMirror {
		if distro := mirrors.Detect(); !distro.IsNone() {
			logger.Infof("detected distribution: %s", distro.Unwrap())
			all = append(all, mirrors.ForDistro(distro.Unwrap())...)
		}
	}

	if len(all) < 1 {
		return false, nil
	}
	return true, sess.SetTargets(all)
}

// warnSkipped reports how many malformed entries were skipped.
func warnSkipped(logger model.Logger, skipped int) {
	if skipped > 0 {
		logger.Warnf("skipped %d malformed entries", skipped)
	}
}

// newProgressBar creates the progress bar tracking the run.
func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		int64(total),
		progressbar.OptionSetDescription("probing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stdout, "\n")
		}),
		progressbar.OptionSetWriter(os.Stdout),
	)
}

// applyBestResult applies the best resolver after a run. Failures are
// reported without changing the exit code: the benchmark itself
// already completed and its results are on the screen.
func applyBestResult(ctx context.Context, sess *session.Session, logger *log.Logger, currentOptions *Options) {
	best := sess.Aggregator().Best()
	if best.IsNone() {
		logger.Warn(session.ErrNoSuccessfulResult.Error())
		return
	}
	if !currentOptions.Batch {
		ok, err := confirmApply(best.Unwrap().Target.Address)
		if err != nil {
			logger.Warnf("apply: %s", err.Error())
			return
		}
		if !ok {
			logger.Info("leaving the system DNS alone")
			return
		}
	}
	message, err := sess.ApplyBest(ctx)
	if err != nil {
		logger.Warnf("apply: %s", err.Error())
		return
	}
	logger.Info(message)
}
