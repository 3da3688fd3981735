package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Pharbi/arachnid/errs"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps an engine error's Kind to an HTTP status and writes it
// as a JSON error body (spec §7: NotFound, InvalidTransition,
// ProviderUnavailable, ProviderError, BoundExceeded, ValidationFailed,
// StorageError, Timeout).
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsKind(err, errs.NotFound):
		status = http.StatusNotFound
	case errs.IsKind(err, errs.InvalidTransition), errs.IsKind(err, errs.ValidationFailed):
		status = http.StatusConflict
	case errs.IsKind(err, errs.BoundExceeded):
		status = http.StatusUnprocessableEntity
	case errs.IsKind(err, errs.ProviderUnavailable), errs.IsKind(err, errs.ProviderError):
		status = http.StatusBadGateway
	case errs.IsKind(err, errs.Timeout):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
