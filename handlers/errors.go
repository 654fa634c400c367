package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"viz-query-service/services"
)

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNodeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrFacadeDisallowed):
		status = http.StatusConflict
	case errors.Is(err, services.ErrInvalidFacade),
		errors.Is(err, services.ErrBaseQueryMismatch),
		errors.Is(err, services.ErrQueryMismatch):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	jsonResponse, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Error converting response to JSON: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonResponse)
}
