package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/tariff-optimizer/pkg/engine"
	"github.com/opscart/tariff-optimizer/pkg/models"
	"github.com/opscart/tariff-optimizer/pkg/pricing"
	"github.com/opscart/tariff-optimizer/pkg/simulation"
	"github.com/opscart/tariff-optimizer/pkg/storage"
)

type memStore struct {
	records map[string]*models.SimulationRecord
	tariffs []models.TariffCandidate
	pingErr error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*models.SimulationRecord{}}
}

func (m *memStore) SaveSimulation(ctx context.Context, rec *models.SimulationRecord) error {
	rec.ID = "11111111-2222-3333-4444-555555555555"
	m.records[rec.ID] = rec
	return nil
}

func (m *memStore) GetSimulation(ctx context.Context, id string) (*models.SimulationRecord, error) {
	rec, ok := m.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return rec, nil
}

func (m *memStore) ListSimulations(ctx context.Context, supplyID string, limit int) ([]*models.SimulationRecord, error) {
	var out []*models.SimulationRecord
	for _, r := range m.records {
		if r.SupplyID == supplyID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) GetSavingsSummary(ctx context.Context, supplyID string) (*models.SavingsSummary, error) {
	return &models.SavingsSummary{SupplyID: supplyID, Simulations: len(m.records)}, nil
}

func (m *memStore) ListActiveTariffs(ctx context.Context, accessTariff string) ([]models.TariffCandidate, error) {
	return m.tariffs, nil
}

func (m *memStore) UpsertTariff(ctx context.Context, c *models.TariffCandidate) error {
	m.tariffs = append(m.tariffs, *c)
	return nil
}

func (m *memStore) Ping(ctx context.Context) error { return m.pingErr }
func (m *memStore) Close() error                   { return nil }

func testCatalogue() []models.TariffCandidate {
	return []models.TariffCandidate{
		{ID: "acme", Supplier: "Acme", PowerPrice: models.PeriodValues{0.08, 0.004}, EnergyPrice: models.PeriodValues{0.25, 0.17, 0.12}, MonthlyFee: 3},
		{ID: "volt", Supplier: "Volt", PowerPrice: models.PeriodValues{0.07, 0.003}, EnergyPrice: models.PeriodValues{0.22, 0.15, 0.10}},
	}
}

func newTestServer(opts ...simulation.Option) http.Handler {
	base := []simulation.Option{simulation.WithCatalogue(pricing.NewStaticProvider(testCatalogue()))}
	svc := simulation.New(engine.New(), append(base, opts...)...)
	return New(Config{Addr: ":0", Log: zerolog.Nop(), Service: svc}).Handler()
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

const invoiceBody = `{
	"invoice": {
		"CUPS": "ES0021000000000001AA",
		"TARIFA_ACCESO": "2.0TD",
		"DIAS_FACTURADOS": 31,
		"POTENCIA_P1": "5,75",
		"POTENCIA_P2": 5.75,
		"MAXIMETRO_P1": "3,62",
		"CONSUMO_P1": 120,
		"CONSUMO_P2": "95",
		"IMPORTE_POTENCIA": "190,50",
		"IMPORTE_ENERGIA": "92,30"
	}
}`

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	store := newMemStore()
	store.pingErr = errors.New("connection refused")
	rec = do(t, newTestServer(simulation.WithStore(store)), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSimulate(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/api/v1/simulations", invoiceBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp simulation.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Result.Offers, 2)
	assert.Equal(t, "volt", resp.Result.Offers[0].Candidate.ID)
	assert.Equal(t, 31, resp.Result.PeriodDays)
	assert.NotEmpty(t, resp.Result.Methodology)
	assert.Empty(t, resp.ID)
}

func TestSimulateErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		h    http.Handler
		body string
		code int
		kind string
	}{
		{"malformed json", newTestServer(), `{"invoice":`, http.StatusBadRequest, "invalid_json"},
		{"missing invoice", newTestServer(), `{}`, http.StatusBadRequest, "invalid_input"},
		{"empty catalogue", New(Config{Log: zerolog.Nop(), Service: simulation.New(nil)}).Handler(), invoiceBody, http.StatusUnprocessableEntity, "no_candidates"},
		{"save without storage", newTestServer(), `{"invoice":{},"save":true}`, http.StatusServiceUnavailable, "storage_disabled"},
		{"negative price", newTestServer(), `{"invoice":{},"candidates":[{"id":"x","monthly_fee":-1}]}`, http.StatusBadRequest, "invalid_input"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, tt.h, http.MethodPost, "/api/v1/simulations", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body.Kind)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestSaveAndFetchSimulation(t *testing.T) {
	store := newMemStore()
	h := newTestServer(simulation.WithStore(store))

	body := `{"save": true, "created_by": "api-test", ` + invoiceBody[1:]
	rec := do(t, h, http.MethodPost, "/api/v1/simulations", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp simulation.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)

	rec = do(t, h, http.MethodGet, "/api/v1/simulations/"+resp.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stored models.SimulationRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "volt", stored.BestOfferID)
	assert.Equal(t, "api-test", stored.CreatedBy)

	rec = do(t, h, http.MethodGet, "/api/v1/simulations/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/supplies/ES0021000000000001AA/simulations?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	assert.Equal(t, 1, history.Summary.Simulations)
	assert.Len(t, history.Simulations, 1)
}

func TestTariffEndpoints(t *testing.T) {
	store := newMemStore()
	h := newTestServer(simulation.WithStore(store))

	rec := do(t, h, http.MethodGet, "/api/v1/tariffs?access_tariff=2.0TD", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []models.TariffCandidate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 2)

	rec = do(t, h, http.MethodPut, "/api/v1/tariffs", testCatalogue())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"imported":2}`, rec.Body.String())
	assert.Len(t, store.tariffs, 2)

	rec = do(t, newTestServer(), http.MethodPut, "/api/v1/tariffs", testCatalogue())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
