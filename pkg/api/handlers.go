package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/opscart/tariff-optimizer/pkg/models"
	"github.com/opscart/tariff-optimizer/pkg/simulation"
	"github.com/opscart/tariff-optimizer/pkg/storage"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type historyResponse struct {
	Summary     *models.SavingsSummary     `json:"summary"`
	Simulations []*models.SimulationRecord `json:"simulations"`
}

type importResponse struct {
	Imported int `json:"imported"`
}

// handleHealth reports liveness and store reachability
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"storage": s.service.StorageEnabled(),
	}
	if err := s.service.Ping(r.Context()); err != nil {
		status["status"] = "degraded"
		status["error"] = err.Error()
		s.writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

// handleSimulate runs one simulation
// POST /api/v1/simulations
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulation.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}

	resp, err := s.service.Simulate(r.Context(), &req)
	if err != nil {
		s.handleError(w, err)
		return
	}

	status := http.StatusOK
	if resp.ID != "" {
		status = http.StatusCreated
	}
	s.writeJSON(w, status, resp)
}

// GET /api/v1/simulations/{id}
func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	rec, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// GET /api/v1/supplies/{supplyID}/simulations?limit=N
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	summary, records, err := s.service.History(r.Context(), chi.URLParam(r, "supplyID"), limit)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if records == nil {
		records = []*models.SimulationRecord{}
	}
	s.writeJSON(w, http.StatusOK, historyResponse{Summary: summary, Simulations: records})
}

// GET /api/v1/tariffs?access_tariff=2.0TD
func (s *Server) handleListTariffs(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.service.Catalogue(r.Context(), r.URL.Query().Get("access_tariff"))
	if err != nil {
		s.handleError(w, err)
		return
	}
	if candidates == nil {
		candidates = []models.TariffCandidate{}
	}
	s.writeJSON(w, http.StatusOK, candidates)
}

// PUT /api/v1/tariffs
func (s *Server) handleImportTariffs(w http.ResponseWriter, r *http.Request) {
	var candidates []models.TariffCandidate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&candidates); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid_json", err)
		return
	}
	n, err := s.service.ImportCatalogue(r.Context(), candidates)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, importResponse{Imported: n})
}

func (s *Server) handleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, "invalid_input", err)
	case errors.Is(err, models.ErrNoCandidates):
		s.writeError(w, http.StatusUnprocessableEntity, "no_candidates", err)
	case errors.Is(err, storage.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, simulation.ErrStorageDisabled):
		s.writeError(w, http.StatusServiceUnavailable, "storage_disabled", err)
	case errors.Is(err, models.ErrDomain):
		s.log.Error().Err(err).Msg("domain invariant violated")
		s.writeError(w, http.StatusInternalServerError, "domain_error", err)
	default:
		s.log.Error().Err(err).Msg("request failed")
		s.writeError(w, http.StatusInternalServerError, "internal", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind string, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
