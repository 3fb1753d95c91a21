package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/opscart/tariff-optimizer/pkg/output"
)

var historyLimit int

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <supply-id>",
		Short: "View past simulations of a supply point",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistory,
	}
	cmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of simulations to show")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: text, json")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	format := cfg.OutputFormat
	if outputFormat != "" {
		format = outputFormat
	}
	handler, err := output.NewHandler(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	svc, cleanup, err := newService(true)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	summary, records, err := svc.History(ctx, args[0], historyLimit)
	if err != nil {
		return err
	}
	return handler.DisplayHistory(ctx, summary, records)
}
