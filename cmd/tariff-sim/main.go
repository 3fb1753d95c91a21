package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opscart/tariff-optimizer/pkg/analyzer"
	"github.com/opscart/tariff-optimizer/pkg/config"
	"github.com/opscart/tariff-optimizer/pkg/datasource"
	"github.com/opscart/tariff-optimizer/pkg/engine"
	"github.com/opscart/tariff-optimizer/pkg/logging"
	"github.com/opscart/tariff-optimizer/pkg/normalizer"
	"github.com/opscart/tariff-optimizer/pkg/observability/metrics"
	"github.com/opscart/tariff-optimizer/pkg/optimizer"
	"github.com/opscart/tariff-optimizer/pkg/pricing"
	"github.com/opscart/tariff-optimizer/pkg/recommender"
	"github.com/opscart/tariff-optimizer/pkg/simulation"
	"github.com/opscart/tariff-optimizer/pkg/storage"
)

var (
	// Global flags
	verbose bool
	preset  string

	// Global config
	cfg    *config.Config
	logger zerolog.Logger
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tariff-sim",
		Short:         "Electricity tariff simulator",
		Long:          `Compare an electricity invoice against a tariff catalogue, optimize contracted power and flag savings opportunities.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "Optimization preset: strict, buffered")

	rootCmd.AddCommand(newSimulateCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newCatalogueCmd())

	return rootCmd
}

func setup() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch preset {
	case "":
	case "strict":
		cfg.UseStrictPreset()
	case "buffered":
		cfg.UseBufferedPreset()
	default:
		return fmt.Errorf("unknown preset: %s", preset)
	}

	level := cfg.LogLevel
	if verbose || cfg.Verbose {
		level = "debug"
	}
	logger = logging.New(logging.Config{Level: level, Pretty: cfg.LogPretty})
	logging.SetGlobalLogger(logger)
	metrics.Init()
	return nil
}

func newEngine() *engine.Engine {
	return engine.New(
		engine.WithLogger(logger),
		engine.WithNormalizer(normalizer.New(normalizer.WithDefaultPeriodDays(cfg.DefaultPeriodDays))),
		engine.WithOptimizer(optimizer.New(cfg.OptimizerRules())),
		engine.WithRecommender(recommender.New(cfg.Thresholds())),
	)
}

// newService wires the simulation service from configuration. The returned
// cleanup closes the store, if one was opened.
func newService(requireStore bool) (*simulation.Service, func(), error) {
	cleanup := func() {}
	opts := []simulation.Option{simulation.WithLogger(logger)}

	var lister pricing.TariffLister
	if cfg.StorageEnabled || requireStore {
		store, err := storage.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to initialize storage: %w", err)
		}
		cleanup = func() { _ = store.Close() }
		lister = store
		opts = append(opts, simulation.WithStore(store))
	}

	provider, err := pricing.NewProvider(cfg.CatalogueConfig(), lister)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	opts = append(opts, simulation.WithCatalogue(provider))
	logger.Debug().Str("catalogue", provider.Name()).Msg("catalogue provider ready")

	if cfg.PrometheusURL != "" {
		src, err := datasource.NewPrometheusSource(cfg.DataSourceConfig(), logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Prometheus initialization failed, measured demand disabled")
		} else {
			opts = append(opts, simulation.WithDemandSource(src, cfg.DemandLookback(), analyzer.Statistic(cfg.DemandStatistic)))
		}
	}

	return simulation.New(newEngine(), opts...), cleanup, nil
}
