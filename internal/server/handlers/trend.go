// internal/server/handlers/trend.go

package handlers

import (
	"net/http"
	"strconv"

	"tagpulse/internal/domain/trend"
	"tagpulse/internal/service/listening"
)

// TrendHandler handles trend-related HTTP requests
type TrendHandler struct {
	analyzer *listening.Analyzer
}

// NewTrendHandler creates a new trend handler
func NewTrendHandler(analyzer *listening.Analyzer) *TrendHandler {
	return &TrendHandler{
		analyzer: analyzer,
	}
}

type analyzeItemsRequest struct {
	Items []trend.Item `json:"items" validate:"required"`
}

// GetTrending ranks the current snapshot of the content source
func (h *TrendHandler) GetTrending(w http.ResponseWriter, r *http.Request) {
	topN, err := intParam(r, "top")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid top parameter", err)
		return
	}

	report, err := h.analyzer.Trending(r.Context(), topN)
	if err != nil {
		respondWithSourceError(w, "Failed to compute trending", err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// GetRecommendations returns the labels that co-occur with a target label
func (h *TrendHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")
	if label == "" {
		respondWithError(w, http.StatusBadRequest, "Missing label", nil)
		return
	}

	threshold := h.analyzer.Config().Threshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid threshold", err)
			return
		}
		threshold = v
	}

	topK, err := intParam(r, "top_k")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid top_k parameter", err)
		return
	}

	recs, err := h.analyzer.Recommend(r.Context(), label, threshold, topK)
	if err != nil {
		respondWithSourceError(w, "Failed to compute recommendations", err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"label":           label,
		"recommendations": recs,
	})
}

// AnalyzeItems ranks a batch of items posted by the caller
func (h *TrendHandler) AnalyzeItems(w http.ResponseWriter, r *http.Request) {
	topN, err := intParam(r, "top")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid top parameter", err)
		return
	}

	var req analyzeItemsRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	respondWithJSON(w, http.StatusOK, h.analyzer.AnalyzeItems(req.Items, topN))
}
