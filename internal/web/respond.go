package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Nestorservice/vente-voiture/internal/apperr"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// writeError maps domain errors to status codes. Unexpected errors are
// logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		apiJSON(w, map[string]interface{}{"error": "invalid input", "fields": verr.Fields}, http.StatusBadRequest)
	case errors.Is(err, apperr.ErrNotFound):
		apiError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperr.ErrForbidden):
		apiError(w, "forbidden", http.StatusForbidden)
	default:
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		apiError(w, "internal error", http.StatusInternalServerError)
	}
}

// seeOther redirects a successful POST.
func seeOther(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// pathID reads a numeric route variable. Routes constrain these to digits,
// so a parse failure only happens on overflow.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, apperr.Invalid(name, "must be a number")
	}
	return id, nil
}
