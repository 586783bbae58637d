package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/xaenox/tonebuddy/internal/analyzer"
	"github.com/xaenox/tonebuddy/internal/models"
)

const (
	msgNoText         = "No text"
	msgInvalidBody    = "Invalid request body"
	msgBodyTooLarge   = "Request body too large"
	msgEmptyResponse  = "Empty AI response"
	msgInvalidJSON    = "Invalid JSON from model"
	msgSchemaMismatch = "Model response does not match schema"
)

// handleAnalyze serves POST /api/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	var text string
	raw, ok := body["text"]
	if !ok || json.Unmarshal(raw, &text) != nil || strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, msgNoText)
		return
	}

	analysis, err := s.apiAnalyzer.Analyze(r.Context(), text)
	if err != nil {
		s.logger.Warn("Analysis failed",
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.String("outcome", analyzer.Outcome(err)),
			zap.Error(err))
		status, message := errorResponse(err)
		writeError(w, status, message)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(analysis.Raw); err != nil {
		s.logger.Error("Failed to write response", zap.Error(err))
	}
}

// errorResponse maps an analysis failure to the status and message the
// API returns. Provider failures keep the provider's status and body.
func errorResponse(err error) (int, string) {
	var providerErr *analyzer.ProviderError
	switch {
	case errors.As(err, &providerErr):
		return providerErr.StatusCode, providerErr.Body
	case errors.Is(err, analyzer.ErrEmptyResponse):
		return http.StatusInternalServerError, msgEmptyResponse
	case errors.Is(err, analyzer.ErrInvalidJSON):
		return http.StatusInternalServerError, msgInvalidJSON
	case errors.Is(err, analyzer.ErrSchemaMismatch):
		return http.StatusInternalServerError, msgSchemaMismatch
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
