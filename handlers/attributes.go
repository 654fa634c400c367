package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"viz-query-service/services"
)

// GetFieldsHandler returns the field schemas of a node type on a data type.
func GetFieldsHandler(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		fields := d.Schema().FieldsForNodeType(vars["node_type"], []string{vars["data_type"]})
		writeJSON(w, http.StatusOK, fields)
	}
}
