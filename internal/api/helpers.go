package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/hermes/internal/models"
	"github.com/UnknownOlympus/hermes/internal/repository"
	"github.com/UnknownOlympus/hermes/internal/service"
	"github.com/UnknownOlympus/hermes/internal/store"
)

// maxBodyBytes caps request bodies; a few thousand stops fit comfortably.
const maxBodyBytes = 4 << 20

var errEmptyBody = errors.New("request body is empty")

func writeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorContext(r.Context(), "Failed to encode response", "path", r.URL.Path, "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, status int, msg string) {
	writeJSON(w, r, log, status, map[string]string{"error": msg})
}

// writeFailure maps an error returned by the planner or the order store to a response.
func writeFailure(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidPoint), errors.Is(err, models.ErrInvalidOrder):
		writeError(w, r, log, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrOrderExists):
		writeError(w, r, log, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrPlanNotFound), errors.Is(err, repository.ErrOrderNotFound):
		writeError(w, r, log, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrPlanStoreDisabled):
		writeError(w, r, log, http.StatusNotImplemented, err.Error())
	default:
		log.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		writeError(w, r, log, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads exactly one JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must contain only one JSON object")
	}

	return nil
}
