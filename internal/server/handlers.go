package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"tandem-recipes/internal/location"
	"tandem-recipes/internal/planner"
)

// uploadLimit caps recipe upload bodies at 1 MiB.
const uploadLimit = 1 << 20

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req planner.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.service.Plan(r.Context(), req)
	if err != nil {
		if errors.Is(err, planner.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("http.plan_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "plan failed")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSKUStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.SKUStatus(r.Context())
	if err != nil {
		s.logger.Error("http.sku_status_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "sku status failed")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleUploadRecipes(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, uploadLimit))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty body")
		return
	}
	source := r.URL.Query().Get("source")
	if source == "" {
		source = "upload"
	}

	report, err := s.service.IngestRecipeText(r.Context(), source, string(body))
	if err != nil {
		s.logger.Error("http.upload_failed", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleRefreshPrices(w http.ResponseWriter, r *http.Request) {
	postalCode := r.URL.Query().Get("postal_code")
	if postalCode == "" && s.resolver != nil {
		postalCode = s.resolver.PostalCode(r.Context(), location.ClientIP(r))
	}

	count, err := s.service.RefreshPrices(r.Context(), postalCode)
	if err != nil {
		s.logger.Error("http.refresh_prices_failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"skus_cached": count, "postal_code": postalCode})
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	ip := location.ClientIP(r)
	postal := ""
	if s.resolver != nil {
		postal = s.resolver.PostalCode(r.Context(), ip)
	}
	writeJSON(w, http.StatusOK, map[string]string{"ip": ip, "postal_code": postal})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Clear(r.Context()); err != nil {
		s.logger.Error("http.clear_failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "clear failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
