package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"viz-query-service/models"
	"viz-query-service/services"
)

type queryViewRequest struct {
	Size       int                 `json:"size"`
	Facets     []models.FacetInfo  `json:"facets"`
	Base       []models.Query      `json:"base"`
	Overrides  map[string][]string `json:"overrides"`
	SkipFacade bool                `json:"skip_facade"`
	Endpoint   string              `json:"endpoint"`
	Facades    []*models.Facade    `json:"facades"`
}

func (q queryViewRequest) toServices(d *services.Dashboard) services.QueryRequest {
	base := q.Base
	if len(base) == 0 {
		base = []models.Query{d.BaseQuery(q.Size, q.Facets)}
	}
	return services.QueryRequest{
		Base:       base,
		Facades:    q.Facades,
		Overrides:  q.Overrides,
		SkipFacade: q.SkipFacade,
		Endpoint:   q.Endpoint,
	}
}

type treeResult struct {
	TreeIndex    int                      `json:"tree_index"`
	Aggregations models.AggregationResult `json:"aggregations,omitempty"`
	Error        string                   `json:"error,omitempty"`
}

type queryViewResponse struct {
	ViewID   string         `json:"view_id"`
	Disabled bool           `json:"disabled,omitempty"`
	Queries  []models.Query `json:"queries"`
	Results  []treeResult   `json:"results,omitempty"`
	Errors   []string       `json:"errors,omitempty"`
}

// httpView hands the rendered responses of a batch back to the waiting handler.
type httpView struct {
	id       string
	rendered chan []services.Response

	mu     sync.Mutex
	errors []string
}

func newHTTPView(id string) *httpView {
	return &httpView{id: id, rendered: make(chan []services.Response, 1)}
}

func (v *httpView) ID() string { return v.id }

func (v *httpView) Render(responses []services.Response, _ bool) {
	v.rendered <- responses
}

func (v *httpView) OnError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, message)
}

func (v *httpView) errorMessages() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.errors...)
}

func decodeQueryRequest(r *http.Request) (queryViewRequest, error) {
	var data queryViewRequest
	if r.ContentLength == 0 {
		return data, nil
	}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil && err != io.EOF {
		return data, err
	}
	return data, nil
}

// QueryView assembles the queries of a view, sends them and returns the
// aggregations of every tree.
func QueryView(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewID := mux.Vars(r)["view_id"]
		data, err := decodeQueryRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		view := newHTTPView(viewID)
		batch, assembly, err := d.QueryView(r.Context(), view, data.toServices(d))
		if err != nil {
			writeError(w, err)
			return
		}
		res := queryViewResponse{ViewID: viewID, Disabled: assembly.Disabled, Queries: assembly.Queries}
		if batch == nil {
			writeJSON(w, http.StatusOK, res)
			return
		}

		var responses []services.Response
		select {
		case responses = <-view.rendered:
		case <-batch.Done():
			if batch.Superseded() {
				http.Error(w, "query superseded by a newer query of the same view", http.StatusConflict)
				return
			}
			responses = <-view.rendered
		case <-r.Context().Done():
			http.Error(w, r.Context().Err().Error(), http.StatusGatewayTimeout)
			return
		}
		for _, resp := range responses {
			tr := treeResult{TreeIndex: resp.TreeIndex, Aggregations: resp.Aggregations}
			if resp.Err != nil {
				tr.Error = resp.Err.Error()
			}
			res.Results = append(res.Results, tr)
		}
		res.Errors = view.errorMessages()
		writeJSON(w, http.StatusOK, res)
	}
}

// AssembleView returns the query documents of a view without sending them.
func AssembleView(d *services.Dashboard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		viewID := mux.Vars(r)["view_id"]
		data, err := decodeQueryRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, assembly, err := d.Assemble(viewID, data.toServices(d))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, queryViewResponse{ViewID: viewID, Disabled: assembly.Disabled, Queries: assembly.Queries})
	}
}
