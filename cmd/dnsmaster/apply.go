package main

//
// The apply subcommand
//

import (
	"context"

	"github.com/apex/log"
	"github.com/spf13/cobra"

	"github.com/SoroushMB/DNS-Master/internal/model"
	"github.com/SoroushMB/DNS-Master/internal/sysdns"
)

// registerApply registers the apply subcommand
func registerApply(rootCmd *cobra.Command, globalOptions *Options) {
	subCmd := &cobra.Command{
		Use:   "apply <resolver-ip>",
		Short: "Sets the system DNS to the given resolver",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			logger := newLogger(globalOptions)
			fatalOnError(logger, applyMain(context.Background(), logger, args[0]), "apply failed")
		},
	}
	rootCmd.AddCommand(subCmd)
}

// applyMain implements the apply subcommand.
func applyMain(ctx context.Context, logger *log.Logger, rawAddress string) error {
	target, err := model.NewDNSTarget(rawAddress, "")
	if err != nil {
		return err
	}
	mechanism, err := sysdns.New(logger).Apply(ctx, target.Address)
	if err != nil {
		return err
	}
	logger.Infof("system DNS set to %s via %s", target.Address, mechanism)
	return nil
}
