// Package engine runs a tariff simulation: it costs every candidate against
// one normalized invoice, optimizes contracted power, ranks the offers by
// annual savings and attaches detected opportunities.
//
// The engine performs no I/O and keeps no state between runs, so a single
// Engine may serve concurrent callers.
package engine

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/opscart/tariff-optimizer/pkg/analyzer"
	"github.com/opscart/tariff-optimizer/pkg/models"
	"github.com/opscart/tariff-optimizer/pkg/normalizer"
	"github.com/opscart/tariff-optimizer/pkg/optimizer"
	"github.com/opscart/tariff-optimizer/pkg/pricing"
	"github.com/opscart/tariff-optimizer/pkg/recommender"
)

type Engine struct {
	normalizer  *normalizer.Normalizer
	optimizer   *optimizer.Optimizer
	recommender *recommender.Recommender
	log         zerolog.Logger
}

type Option func(*Engine)

func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log.With().Str("component", "engine").Logger() }
}

func WithNormalizer(n *normalizer.Normalizer) Option {
	return func(e *Engine) { e.normalizer = n }
}

func WithOptimizer(o *optimizer.Optimizer) Option {
	return func(e *Engine) { e.optimizer = o }
}

func WithRecommender(r *recommender.Recommender) Option {
	return func(e *Engine) { e.recommender = r }
}

func New(opts ...Option) *Engine {
	e := &Engine{
		normalizer:  normalizer.New(),
		optimizer:   optimizer.New(optimizer.DefaultRules()),
		recommender: recommender.New(recommender.DefaultThresholds()),
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Normalize applies the engine's normalizer without running a simulation.
func (e *Engine) Normalize(raw normalizer.RawInvoice, overrides *normalizer.Overrides) (*models.NormalizedInvoice, error) {
	return e.normalizer.Normalize(raw, overrides)
}

// Outlook returns the opportunities that need a measured load curve.
func (e *Engine) Outlook(inv *models.NormalizedInvoice, analysis *analyzer.DemandAnalysis) []models.Opportunity {
	return e.recommender.Outlook(inv, analysis)
}

// Simulate normalizes a raw invoice and runs it.
func (e *Engine) Simulate(raw normalizer.RawInvoice, overrides *normalizer.Overrides, candidates []models.TariffCandidate) (*models.EngineResult, error) {
	inv, err := e.Normalize(raw, overrides)
	if err != nil {
		return nil, err
	}
	return e.Run(inv, candidates)
}

// Run ranks candidates for a normalized invoice. Errors from the calculator
// are returned unchanged so callers can tell the error kinds apart.
func (e *Engine) Run(inv *models.NormalizedInvoice, candidates []models.TariffCandidate) (*models.EngineResult, error) {
	if inv == nil {
		return nil, &models.InvalidInputError{Reason: "normalized invoice is missing"}
	}
	if len(candidates) == 0 {
		return nil, &models.NoCandidatesError{}
	}

	current, err := pricing.CurrentAnnualCost(inv)
	if err != nil {
		return nil, err
	}

	offers := make([]models.Offer, 0, len(candidates))
	for i := range candidates {
		c := candidates[i]
		if err := c.Validate(); err != nil {
			return nil, &models.InvalidInputError{Reason: err.Error()}
		}
		offer, err := e.evaluate(inv, &c, current)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}

	// Stable: equal savings keep catalogue order.
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].AnnualSavings > offers[j].AnnualSavings
	})

	result := &models.EngineResult{
		SupplyID:          inv.SupplyID,
		AccessTariff:      inv.AccessTariff,
		PeriodDays:        inv.PeriodDays,
		CurrentAnnualCost: current,
		Offers:            offers,
		Methodology:       pricing.Methodology,
	}
	result.Opportunities = e.recommender.Detect(inv, offers[0].Optimization)

	e.log.Debug().
		Str("supply_id", inv.SupplyID).
		Str("access_tariff", inv.AccessTariff).
		Int("candidates", len(offers)).
		Str("best", offers[0].Candidate.ID).
		Int("opportunities", len(result.Opportunities)).
		Msg("simulation complete")

	return result, nil
}

func (e *Engine) evaluate(inv *models.NormalizedInvoice, c *models.TariffCandidate, current float64) (models.Offer, error) {
	cost, err := pricing.ComputeCost(inv, c)
	if err != nil {
		return models.Offer{}, err
	}

	offer := models.Offer{
		Candidate:       *c,
		Cost:            cost,
		OfferAnnualCost: cost.Total,
		AnnualSavings:   current - cost.Total,
		Optimization:    e.optimizer.OptimizePower(inv, c),
	}
	if current > 0 {
		offer.SavingsPercent = offer.AnnualSavings / current * 100
	}
	offer.PotentialAnnualSavings = offer.AnnualSavings
	if offer.Optimization != nil && offer.Optimization.AnnualSavings > 0 {
		offer.PotentialAnnualSavings += offer.Optimization.AnnualSavings
	}
	return offer, nil
}
