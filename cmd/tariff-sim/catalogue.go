package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opscart/tariff-optimizer/pkg/pricing"
)

func newCatalogueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalogue",
		Short: "Manage the tariff catalogue",
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a YAML or JSON catalogue into the database",
		Args:  cobra.ExactArgs(1),
		RunE:  runCatalogueImport,
	}

	listCmd := &cobra.Command{
		Use:   "list [access-tariff]",
		Short: "List active tariffs from the configured catalogue",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCatalogueList,
	}

	cmd.AddCommand(importCmd, listCmd)
	return cmd
}

func runCatalogueImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read catalogue: %w", err)
	}
	candidates, err := pricing.ParseCatalogue(data, filepath.Ext(args[0]))
	if err != nil {
		return fmt.Errorf("failed to parse catalogue %s: %w", args[0], err)
	}

	svc, cleanup, err := newService(true)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := svc.ImportCatalogue(context.Background(), candidates)
	if err != nil {
		return err
	}
	logger.Info().Int("tariffs", n).Str("file", args[0]).Msg("Catalogue imported")
	return nil
}

func runCatalogueList(cmd *cobra.Command, args []string) error {
	accessTariff := ""
	if len(args) == 1 {
		accessTariff = args[0]
	}

	svc, cleanup, err := newService(false)
	if err != nil {
		return err
	}
	defer cleanup()

	candidates, err := svc.Catalogue(context.Background(), accessTariff)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-20s %-16s %-8s %-8s %10s\n", "ID", "SUPPLIER", "KIND", "CLASS", "FEE/MONTH")
	for _, c := range candidates {
		class := c.AccessTariff
		if class == "" {
			class = "any"
		}
		fmt.Fprintf(w, "%-20s %-16s %-8s %-8s %10.2f\n", c.ID, c.Supplier, c.Kind, class, c.MonthlyFee)
	}
	return nil
}
