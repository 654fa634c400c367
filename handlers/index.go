package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"viz-query-service/models"
	"viz-query-service/services"
)

// PutNode stores the node posted in the body under the path id.
func PutNode(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nodeID := mux.Vars(r)["node_id"]

		var node models.Node
		if err := json.NewDecoder(r.Body).Decode(&node); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		node.ID = nodeID
		if err := d.PutNode(node); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Node stored successfully"})
	}
}

func DeleteNode(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.RemoveNode(mux.Vars(r)["node_id"]); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "Node removed successfully"})
	}
}

// GetTrees lists the query trees of a node as id chains, leaf first.
func GetTrees(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trees, err := d.Trees(mux.Vars(r)["node_id"])
		if err != nil {
			writeError(w, err)
			return
		}
		chains := make([][]string, len(trees))
		for i, t := range trees {
			chains[i] = t.IDs()
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"trees": chains})
	}
}

// GetIndices lists the index and aliases of every configured data type.
func GetIndices(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		indices := d.Indices()
		if indices == nil {
			indices = []models.DataIndex{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"indices": indices})
	}
}
