// internal/server/handlers/respond.go

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"tagpulse/internal/logging"
	"tagpulse/internal/service/listening"
)

// maxBodyBytes bounds request bodies of the analyze endpoints.
const maxBodyBytes = 10 << 20

var validate = validator.New()

// Helper for JSON responses
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Failed to marshal response"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper for error responses
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	response := map[string]string{"error": message}

	if err != nil && code >= 500 {
		logging.Error().Err(err).Int("code", code).Str("message", message).Msg("HTTP error")
	}

	jsonResponse, _ := json.Marshal(response)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(jsonResponse)
}

// respondWithSourceError maps content source failures to status codes.
func respondWithSourceError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, listening.ErrInvalidPostID):
		respondWithError(w, http.StatusBadRequest, "Invalid post ID", err)
	case errors.Is(err, listening.ErrSourceUnavailable):
		respondWithError(w, http.StatusBadGateway, message, err)
	default:
		respondWithError(w, http.StatusInternalServerError, message, err)
	}
}

// decodeBody reads a JSON body into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// intParam parses an optional integer query parameter. A missing parameter
// yields 0 so the analyzer default applies.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, errors.New("invalid " + name)
	}
	return v, nil
}
