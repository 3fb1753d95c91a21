// Package simulation wires the engine to its collaborators: the tariff
// catalogue, measured demand, persistence and metrics. The CLI and the HTTP
// API both go through a Service.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/opscart/tariff-optimizer/pkg/analyzer"
	"github.com/opscart/tariff-optimizer/pkg/converter"
	"github.com/opscart/tariff-optimizer/pkg/datasource"
	"github.com/opscart/tariff-optimizer/pkg/engine"
	"github.com/opscart/tariff-optimizer/pkg/models"
	"github.com/opscart/tariff-optimizer/pkg/normalizer"
	"github.com/opscart/tariff-optimizer/pkg/observability/metrics"
	"github.com/opscart/tariff-optimizer/pkg/pricing"
	"github.com/opscart/tariff-optimizer/pkg/storage"
)

// ErrStorageDisabled is returned by operations that need a store when none
// is configured.
var ErrStorageDisabled = errors.New("storage is disabled")

// Request is one simulation call.
type Request struct {
	Invoice   normalizer.RawInvoice `json:"invoice"`
	Overrides *normalizer.Overrides `json:"overrides,omitempty"`

	// Candidates replaces the configured catalogue when non-empty.
	Candidates []models.TariffCandidate `json:"candidates,omitempty"`

	// UseMeasuredDemand fills periods without a manual override from the
	// demand source.
	UseMeasuredDemand bool `json:"use_measured_demand,omitempty"`

	Save      bool   `json:"save,omitempty"`
	CreatedBy string `json:"created_by,omitempty"`
}

type Response struct {
	ID     string               `json:"id,omitempty"`
	Result *models.EngineResult `json:"result"`
}

type Service struct {
	engine    *engine.Engine
	catalogue pricing.Provider
	demand    datasource.DemandSource
	store     storage.Store
	lookback  time.Duration
	statistic analyzer.Statistic
	log       zerolog.Logger
	now       func() time.Time
}

type Option func(*Service)

func WithCatalogue(p pricing.Provider) Option {
	return func(s *Service) { s.catalogue = p }
}

func WithStore(st storage.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithDemandSource enables measured demand over the given lookback window.
func WithDemandSource(src datasource.DemandSource, lookback time.Duration, stat analyzer.Statistic) Option {
	return func(s *Service) {
		s.demand = src
		if lookback > 0 {
			s.lookback = lookback
		}
		if stat != "" {
			s.statistic = stat
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log.With().Str("component", "simulation").Logger() }
}

func New(eng *engine.Engine, opts ...Option) *Service {
	s := &Service{
		engine:    eng,
		lookback:  30 * 24 * time.Hour,
		statistic: analyzer.StatisticPeak,
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	if s.engine == nil {
		s.engine = engine.New()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StorageEnabled reports whether history operations are available.
func (s *Service) StorageEnabled() bool {
	return s.store != nil
}

// Simulate normalizes the invoice, resolves candidates and runs the engine.
// Engine errors are returned unwrapped.
func (s *Service) Simulate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := s.simulate(ctx, req)
	metrics.ObserveSimulation(metrics.ResultFor(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	metrics.ObserveResult(resp.Result)
	return resp, nil
}

func (s *Service) simulate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, &models.InvalidInputError{Reason: "simulation request is missing"}
	}
	if req.Save && s.store == nil {
		return nil, ErrStorageDisabled
	}

	inv, err := s.engine.Normalize(req.Invoice, req.Overrides)
	if err != nil {
		return nil, err
	}
	var analysis *analyzer.DemandAnalysis
	if req.UseMeasuredDemand {
		analysis = s.applyMeasuredDemand(ctx, inv, req.Overrides)
	}

	candidates := req.Candidates
	if len(candidates) == 0 {
		candidates, err = s.Catalogue(ctx, inv.AccessTariff)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.engine.Run(inv, candidates)
	if err != nil {
		return nil, err
	}
	result.Opportunities = append(result.Opportunities, s.engine.Outlook(inv, analysis)...)

	resp := &Response{Result: result}
	if req.Save {
		rec := converter.ResultToRecord(result, req.CreatedBy)
		if err := s.store.SaveSimulation(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to save simulation: %w", err)
		}
		resp.ID = rec.ID
		s.log.Info().
			Str("id", rec.ID).
			Str("supply_id", rec.SupplyID).
			Float64("best_savings", rec.BestSavings).
			Msg("simulation saved")
	}
	return resp, nil
}

// applyMeasuredDemand fills periods the consultant left empty and returns
// the analysis it used, or nil. A failing source only degrades the result,
// it never fails the simulation.
func (s *Service) applyMeasuredDemand(ctx context.Context, inv *models.NormalizedInvoice, manual *normalizer.Overrides) *analyzer.DemandAnalysis {
	if s.demand == nil || inv.SupplyID == "" {
		return nil
	}
	if !s.demand.IsAvailable(ctx) {
		s.log.Warn().Str("supply_id", inv.SupplyID).Str("source", s.demand.Name()).Msg("demand source not reachable, skipping measured demand")
		return nil
	}
	analysis, err := datasource.MaxDemand(ctx, s.demand, inv.SupplyID, s.now(), s.lookback, s.statistic)
	if err != nil {
		s.log.Warn().Err(err).Str("supply_id", inv.SupplyID).Str("source", s.demand.Name()).Msg("measured demand unavailable")
		return nil
	}
	measured := converter.AnalysisToOverrides(analysis)
	if measured == nil {
		s.log.Debug().Str("supply_id", inv.SupplyID).Msg("no measured demand in window")
		return nil
	}
	for _, p := range models.Periods {
		if manual != nil && manual.MaxDemand[p] > 0 {
			continue
		}
		if v := measured.MaxDemand[p]; v > 0 {
			inv.MaxDemand[p] = v
		}
	}
	s.log.Debug().
		Str("supply_id", inv.SupplyID).
		Float64("data_quality", analysis.DataQuality).
		Str("profile", analysis.Profile).
		Msg("applied measured demand")
	return analysis
}

// Catalogue lists candidates for an access-tariff class.
func (s *Service) Catalogue(ctx context.Context, accessTariff string) ([]models.TariffCandidate, error) {
	if s.catalogue == nil {
		return nil, &models.NoCandidatesError{}
	}
	candidates, err := s.catalogue.ListCandidates(ctx, accessTariff)
	if err != nil {
		metrics.IncCatalogueLoad(s.catalogue.Name(), metrics.ResultError)
		return nil, fmt.Errorf("failed to load catalogue from %s: %w", s.catalogue.Name(), err)
	}
	metrics.IncCatalogueLoad(s.catalogue.Name(), metrics.ResultSuccess)
	return candidates, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.SimulationRecord, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	return s.store.GetSimulation(ctx, id)
}

// History returns the savings summary and the newest simulations of a
// supply point.
func (s *Service) History(ctx context.Context, supplyID string, limit int) (*models.SavingsSummary, []*models.SimulationRecord, error) {
	if s.store == nil {
		return nil, nil, ErrStorageDisabled
	}
	summary, err := s.store.GetSavingsSummary(ctx, supplyID)
	if err != nil {
		return nil, nil, err
	}
	records, err := s.store.ListSimulations(ctx, supplyID, limit)
	if err != nil {
		return nil, nil, err
	}
	return summary, records, nil
}

// invalidator is implemented by catalogues that cache their source.
type invalidator interface {
	Invalidate()
}

// ImportCatalogue writes candidates into the store's tariff table. A
// caching catalogue is invalidated once any row was written, so later
// simulations see the imported tariffs.
func (s *Service) ImportCatalogue(ctx context.Context, candidates []models.TariffCandidate) (n int, err error) {
	if s.store == nil {
		return 0, ErrStorageDisabled
	}
	defer func() {
		if n == 0 {
			return
		}
		if inv, ok := s.catalogue.(invalidator); ok {
			inv.Invalidate()
			s.log.Debug().Str("catalogue", s.catalogue.Name()).Int("imported", n).Msg("catalogue cache invalidated")
		}
	}()
	for i := range candidates {
		if err := candidates[i].Validate(); err != nil {
			return i, &models.InvalidInputError{Reason: fmt.Sprintf("tariff %d: %v", i, err)}
		}
		if err := s.store.UpsertTariff(ctx, &candidates[i]); err != nil {
			return i, fmt.Errorf("failed to import tariff %s: %w", candidates[i].ID, err)
		}
	}
	return len(candidates), nil
}

// Ping checks the store when one is configured.
func (s *Service) Ping(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Ping(ctx)
}
