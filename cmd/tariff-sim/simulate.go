package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/opscart/tariff-optimizer/pkg/normalizer"
	"github.com/opscart/tariff-optimizer/pkg/output"
	"github.com/opscart/tariff-optimizer/pkg/reporter"
	"github.com/opscart/tariff-optimizer/pkg/simulation"
)

var (
	// Simulate flags
	invoicePath    string
	overridesPath  string
	cataloguePath  string
	outputFormat   string
	saveResults    bool
	createdBy      string
	measuredDemand bool
	reportFormat   string
	reportOutput   string
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate an invoice against the tariff catalogue",
		RunE:  runSimulate,
	}

	cmd.Flags().StringVarP(&invoicePath, "invoice", "i", "", "Invoice fields as JSON or YAML")
	cmd.Flags().StringVar(&overridesPath, "overrides", "", "Manual max-demand overrides as JSON or YAML")
	cmd.Flags().StringVarP(&cataloguePath, "catalogue", "c", "", "Tariff catalogue file (overrides CATALOGUE_PATH)")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", "", "Output format: text, json")
	cmd.Flags().BoolVar(&saveResults, "save", false, "Save the simulation to the database")
	cmd.Flags().StringVar(&createdBy, "created-by", os.Getenv("USER"), "Author recorded with saved simulations")
	cmd.Flags().BoolVar(&measuredDemand, "measured-demand", false, "Fill missing max demand from Prometheus")
	cmd.Flags().StringVar(&reportFormat, "report-format", "", "Also write a report: markdown, csv")
	cmd.Flags().StringVar(&reportOutput, "report-output", "tariff-report.md", "Output file for the report")
	_ = cmd.MarkFlagRequired("invoice")

	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	if cataloguePath != "" {
		cfg.CatalogueSource = "file"
		cfg.CataloguePath = cataloguePath
	}
	format := cfg.OutputFormat
	if outputFormat != "" {
		format = outputFormat
	}
	handler, err := output.NewHandler(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	req := &simulation.Request{
		Save:              saveResults,
		CreatedBy:         createdBy,
		UseMeasuredDemand: measuredDemand,
	}
	if err := decodeFile(invoicePath, &req.Invoice); err != nil {
		return fmt.Errorf("failed to read invoice: %w", err)
	}
	if overridesPath != "" {
		req.Overrides = &normalizer.Overrides{}
		if err := decodeFile(overridesPath, req.Overrides); err != nil {
			return fmt.Errorf("failed to read overrides: %w", err)
		}
	}

	svc, cleanup, err := newService(saveResults)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	resp, err := svc.Simulate(ctx, req)
	if err != nil {
		return err
	}
	if resp.ID != "" {
		logger.Info().Str("id", resp.ID).Msg("Saved simulation")
	}

	if err := handler.DisplayResult(ctx, resp.Result); err != nil {
		return err
	}

	if reportFormat != "" {
		if err := writeReport(resp, reporter.ReportFormat(reportFormat), reportOutput); err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		logger.Info().Str("file", reportOutput).Str("format", reportFormat).Msg("Report generated")
	}
	return nil
}

func writeReport(resp *simulation.Response, format reporter.ReportFormat, path string) error {
	var buf bytes.Buffer
	if err := reporter.New(format).Write(resp.Result, &buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// decodeFile reads JSON (".json") or YAML into v. JSON numbers are kept as
// json.Number so the normalizer sees the exact digits.
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		return dec.Decode(v)
	}
	return yaml.Unmarshal(data, v)
}
