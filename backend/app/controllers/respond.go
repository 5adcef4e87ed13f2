package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"compliance-feed/backend/app/dto"
	"compliance-feed/backend/app/services"
	"compliance-feed/backend/global"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers 400 for caller errors and 500 for everything else.
// Server errors are logged and not echoed to the caller.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrInvalidRequest) {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	global.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
}
