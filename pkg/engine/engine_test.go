package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/tariff-optimizer/pkg/logging"
	"github.com/opscart/tariff-optimizer/pkg/models"
	"github.com/opscart/tariff-optimizer/pkg/normalizer"
)

func catalogue() []models.TariffCandidate {
	return []models.TariffCandidate{
		{
			ID: "acme", Supplier: "Acme", Kind: models.PricingFixed,
			PowerPrice:  models.PeriodValues{0.08, 0.004},
			EnergyPrice: models.PeriodValues{0.25, 0.17, 0.12},
			MonthlyFee:  3,
		},
		{
			ID: "volt", Supplier: "Volt", Kind: models.PricingIndexed,
			PowerPrice:  models.PeriodValues{0.07, 0.003},
			EnergyPrice: models.PeriodValues{0.22, 0.15, 0.10},
		},
		{
			ID: "grid", Supplier: "Grid", Kind: models.PricingFixed,
			PowerPrice:  models.PeriodValues{0.09, 0.01},
			EnergyPrice: models.PeriodValues{0.30, 0.20, 0.15},
			MonthlyFee:  8,
		},
	}
}

func rawInvoice() normalizer.RawInvoice {
	return normalizer.RawInvoice{
		"CUPS":             "ES0021000000000001AA",
		"TARIFA_ACCESO":    "2.0TD",
		"DIAS_FACTURADOS":  "31",
		"POTENCIA_P1":      "5,75",
		"POTENCIA_P2":      "5,75",
		"MAXIMETRO_P1":     "3,62",
		"MAXIMETRO_P2":     "2,1",
		"CONSUMO_P1":       "120",
		"CONSUMO_P2":       "95",
		"CONSUMO_P3":       "180",
		"IMPORTE_POTENCIA": "190,50",
		"IMPORTE_ENERGIA":  "92,30",
		"CARGOS_FIJOS":     "4,10",
	}
}

func TestRunFixedFeeScenario(t *testing.T) {
	inv := &models.NormalizedInvoice{PeriodDays: 365, EnergyCost: 1200}
	candidates := []models.TariffCandidate{{ID: "flat", Supplier: "Flat", MonthlyFee: 10}}

	result, err := New().Run(inv, candidates)
	require.NoError(t, err)
	require.Len(t, result.Offers, 1)

	offer := result.Offers[0]
	assert.InDelta(t, 1200, result.CurrentAnnualCost, 1e-9)
	assert.InDelta(t, 120, offer.OfferAnnualCost, 1e-9)
	assert.InDelta(t, 1080, offer.AnnualSavings, 1e-9)
	assert.InDelta(t, 90, offer.SavingsPercent, 1e-9)
	assert.Nil(t, offer.Optimization)
	assert.Equal(t, offer.AnnualSavings, offer.PotentialAnnualSavings)
}

func TestRunNoCandidates(t *testing.T) {
	inv := &models.NormalizedInvoice{PeriodDays: 30}
	for _, candidates := range [][]models.TariffCandidate{nil, {}} {
		result, err := New().Run(inv, candidates)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, models.ErrNoCandidates))
	}
}

func TestRunPropagatesDomainError(t *testing.T) {
	inv := &models.NormalizedInvoice{PeriodDays: 0}
	_, err := New().Run(inv, catalogue())

	var domain *models.DomainError
	require.True(t, errors.As(err, &domain), "got %v", err)
	assert.False(t, errors.Is(err, models.ErrInvalidInput))
}

func TestRunRejectsInvalidCandidate(t *testing.T) {
	candidates := catalogue()
	candidates[1].EnergyPrice[models.P1] = -0.1
	_, err := New().Run(&models.NormalizedInvoice{PeriodDays: 30}, candidates)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestRunRejectsNonFiniteCandidate(t *testing.T) {
	inv := &models.NormalizedInvoice{PeriodDays: 30, EnergyCost: 50, Energy: models.PeriodValues{100}}
	for _, v := range []float64{math.NaN(), math.Inf(1)} {
		candidates := catalogue()
		candidates[2].EnergyPrice[models.P1] = v

		result, err := New().Run(inv, candidates)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, models.ErrInvalidInput), "price %v", v)
	}
}

func TestSimulateNilInvoice(t *testing.T) {
	_, err := New().Simulate(nil, nil, catalogue())
	assert.True(t, errors.Is(err, models.ErrInvalidInput))

	_, err = New().Run(nil, catalogue())
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestSimulateRanksBySavings(t *testing.T) {
	result, err := New().Simulate(rawInvoice(), nil, catalogue())
	require.NoError(t, err)
	require.Len(t, result.Offers, 3)

	for i := 0; i+1 < len(result.Offers); i++ {
		assert.GreaterOrEqual(t, result.Offers[i].AnnualSavings, result.Offers[i+1].AnnualSavings)
	}
	assert.Equal(t, "volt", result.Best().Candidate.ID)
	assert.Equal(t, "ES0021000000000001AA", result.SupplyID)
	assert.Equal(t, "2.0TD", result.AccessTariff)
	assert.Equal(t, 31, result.PeriodDays)
	assert.NotEmpty(t, result.Methodology)

	for _, offer := range result.Offers {
		require.NotNil(t, offer.Optimization)
		assert.InDelta(t, 3.7, offer.Optimization.SuggestedPower[models.P1], 1e-9)
		assert.InDelta(t, 2.1, offer.Optimization.SuggestedPower[models.P2], 1e-9)
		assert.Greater(t, offer.Optimization.AnnualSavings, 0.0)
		assert.InDelta(t, offer.AnnualSavings+offer.Optimization.AnnualSavings, offer.PotentialAnnualSavings, 1e-9)
	}
}

func TestRunTiesKeepCatalogueOrder(t *testing.T) {
	inv := &models.NormalizedInvoice{PeriodDays: 30, EnergyCost: 100}
	candidates := []models.TariffCandidate{
		{ID: "b", MonthlyFee: 5},
		{ID: "a", MonthlyFee: 5},
		{ID: "cheap", MonthlyFee: 1},
		{ID: "c", MonthlyFee: 5},
	}
	result, err := New().Run(inv, candidates)
	require.NoError(t, err)

	ids := make([]string, 0, len(result.Offers))
	for _, o := range result.Offers {
		ids = append(ids, o.Candidate.ID)
	}
	assert.Equal(t, []string{"cheap", "b", "a", "c"}, ids)
}

func TestRunIsDeterministic(t *testing.T) {
	e := New()
	first, err := e.Simulate(rawInvoice(), nil, catalogue())
	require.NoError(t, err)
	want, err := json.Marshal(first)
	require.NoError(t, err)

	var wg sync.WaitGroup
	outputs := make([][]byte, 16)
	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := e.Simulate(rawInvoice(), nil, catalogue())
			if err == nil {
				outputs[i], _ = json.Marshal(result)
			}
		}(i)
	}
	wg.Wait()

	for _, got := range outputs {
		assert.Equal(t, string(want), string(got))
	}
}

func TestRunDoesNotMutateCandidates(t *testing.T) {
	candidates := catalogue()
	before := catalogue()
	_, err := New().Run(&models.NormalizedInvoice{PeriodDays: 30, ContractedPower: models.PeriodValues{4}, MaxDemand: models.PeriodValues{2}}, candidates)
	require.NoError(t, err)
	assert.Equal(t, before, candidates)
}

func TestRunAttachesOpportunitiesFromBestOffer(t *testing.T) {
	inv := &models.NormalizedInvoice{
		AccessTariff:    "3.0TD",
		PeriodDays:      30,
		ContractedPower: models.PeriodValues{40},
		MaxDemand:       models.PeriodValues{22},
		Energy:          models.PeriodValues{900},
		PowerCost:       1600,
		EnergyCost:      200,
	}
	result, err := New().Run(inv, catalogue())
	require.NoError(t, err)

	var tooHigh *models.Opportunity
	for i := range result.Opportunities {
		if result.Opportunities[i].Kind == models.OpportunityPowerTooHigh {
			tooHigh = &result.Opportunities[i]
		}
	}
	require.NotNil(t, tooHigh)
	assert.InDelta(t, result.Best().Optimization.AnnualSavings, tooHigh.EstimatedAnnualSavings, 1e-9)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	e := New(WithLogger(logging.New(logging.Config{Level: "debug", Output: &buf})))

	_, err := e.Simulate(rawInvoice(), nil, catalogue())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"component":"engine"`)
	assert.Contains(t, buf.String(), "simulation complete")
}
