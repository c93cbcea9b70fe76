package main

//
// The mirrors subcommand
//

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SoroushMB/DNS-Master/internal/mirrors"
)

// registerMirrors registers the mirrors subcommand
func registerMirrors(rootCmd *cobra.Command, globalOptions *Options) {
	subCmd := &cobra.Command{
		Use:   "mirrors",
		Short: "Prints the bundled package mirror catalog",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			logger := newLogger(globalOptions)
			fatalOnError(logger, mirrorsMain(globalOptions), "mirrors failed")
		},
	}
	rootCmd.AddCommand(subCmd)
	flags := subCmd.Flags()

	flags.StringVar(
		&globalOptions.Distro,
		"distro",
		"",
		"only print the mirrors of the given distribution",
	)
}

// mirrorsMain implements the mirrors subcommand.
func mirrorsMain(currentOptions *Options) error {
	selected := mirrors.Distros()
	if currentOptions.Distro != "" {
		distro, err := mirrors.ParseDistro(currentOptions.Distro)
		if err != nil {
			return err
		}
		selected = []mirrors.Distro{distro}
	}
	detected := mirrors.Detect()
	for _, distro := range selected {
		marker := ""
		if !detected.IsNone() && detected.Unwrap() == distro {
			marker = " (detected)"
		}
		fmt.Printf("%s%s:\n", distro, marker)
		for _, target := range mirrors.ForDistro(distro) {
			fmt.Printf("    %-28s %s\n", target.Label, target.Address)
		}
		fmt.Printf("\n")
	}
	return nil
}
