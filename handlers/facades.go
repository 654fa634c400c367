package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"viz-query-service/models"
	"viz-query-service/services"
)

type facadesResponse struct {
	OriginViewID string           `json:"origin_view_id,omitempty"`
	Facades      []*models.Facade `json:"facades"`
}

func GetFacades(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := d.Facades()
		facades := store.Get()
		if facades == nil {
			facades = []*models.Facade{}
		}
		writeJSON(w, http.StatusOK, facadesResponse{OriginViewID: store.OriginViewID(), Facades: facades})
	}
}

// PostFacade applies the facade in the body.
func PostFacade(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f models.Facade
		if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err := d.ApplyFacade(&f); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, f)
	}
}

func GetFacade(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := d.Facades().GetByID(mux.Vars(r)["facade_id"])
		if !ok {
			http.Error(w, "facade not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func DeleteFacade(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.RemoveFacade(mux.Vars(r)["facade_id"]) {
			http.Error(w, "facade not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Facade removed successfully"})
	}
}

func ResetFacades(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.ResetFacades()
		writeJSON(w, http.StatusOK, map[string]string{"message": "Facades cleared"})
	}
}
