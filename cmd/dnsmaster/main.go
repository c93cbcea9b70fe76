// Command dnsmaster benchmarks DNS resolvers and package mirrors,
// ranks them by measured latency and throughput, and optionally
// points the system DNS configuration at the best resolver.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/SoroushMB/DNS-Master/internal/version"

	// each tunable read by the settings package can also live
	// in a .env file next to the binary
	_ "github.com/joho/godotenv/autoload"
)

// Options contains the options you can set from the CLI.
type Options struct {
	ApplyBest  bool
	Batch      bool
	Descending bool
	Distro     string
	File       string
	Mode       string
	PayloadURL string
	SortBy     string
	Targets    string
	TestDomain string
	Timeout    time.Duration
	Verbose    bool
	WellKnown  bool
}

// main is the main function of dnsmaster.
func main() {
	var globalOptions Options
	rootCmd := &cobra.Command{
		Use:     "dnsmaster",
		Short:   "dnsmaster ranks DNS resolvers and package mirrors by speed",
		Args:    cobra.NoArgs,
		Version: version.Version,
	}
	rootCmd.SetVersionTemplate("{{ .Version }}\n")
	flags := rootCmd.PersistentFlags()

	flags.BoolVarP(
		&globalOptions.Batch,
		"batch",
		"b",
		false,
		"never prompt: skip interactive questions and confirmations",
	)

	flags.BoolVarP(
		&globalOptions.Verbose,
		"verbose",
		"v",
		false,
		"increase verbosity level",
	)

	registerRun(rootCmd, &globalOptions)
	registerApply(rootCmd, &globalOptions)
	registerMirrors(rootCmd, &globalOptions)
	registerVersion(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerVersion registers the version subcommand
func registerVersion(rootCmd *cobra.Command) {
	subCmd := &cobra.Command{
		Use:   "version",
		Short: "Prints the dnsmaster version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Version)
		},
	}
	rootCmd.AddCommand(subCmd)
}

// fatalOnError logs err and terminates the process with a nonzero
// exit code when err is not nil.
func fatalOnError(logger *log.Logger, err error, message string) {
	if err != nil {
		logger.WithError(err).Fatal(message)
	}
}
