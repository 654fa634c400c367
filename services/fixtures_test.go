package services

import (
	"sync"

	"viz-query-service/models"
)

// dashboardNodes builds:
//
//	hist ─┬─ proto ── flows (flow, cap1)
//	      └─ alerts (alert, cap1)
//	table ── flows
//	solo ── other (flow, cap2)
func dashboardNodes() []models.Node {
	return []models.Node{
		{ID: "flows", Type: "data", DataType: "flow", DataSource: "cap1"},
		{ID: "alerts", Type: "data", DataType: "alert", DataSource: "cap1"},
		{ID: "other", Type: "data", DataType: "flow", DataSource: "cap2"},
		{
			ID:       "proto",
			Type:     "protocolFilter",
			Children: []string{"flows"},
			Filters: map[string]models.FilterValue{
				"protocol": {ESID: "proto", FieldValues: []string{"tcp"}},
			},
		},
		{ID: "hist", Type: "histogram", Children: []string{"proto", "alerts"}},
		{
			ID:       "table",
			Type:     "table",
			Children: []string{"flows"},
			Filters: map[string]models.FilterValue{
				"port": {ESID: "dst_port", FieldValues: []string{"443"}},
			},
		},
		{ID: "solo", Type: "histogram", Children: []string{"other"}},
	}
}

func dashboardGraph() *models.Graph {
	return models.NewGraph(dashboardNodes()...)
}

type recordingHooks struct {
	mu        sync.Mutex
	disabled  []string
	stale     []string
	indicator int
	alerts    []string
}

func (h *recordingHooks) OnViewDisabled(viewID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disabled = append(h.disabled, viewID)
}

func (h *recordingHooks) OnStaleViewsInvalidated(originID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stale = append(h.stale, originID)
}

func (h *recordingHooks) OnFacadeIndicatorChanged() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.indicator++
}

func (h *recordingHooks) OnAlert(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.alerts = append(h.alerts, message)
}

func terms(esid string, values ...string) models.Query {
	return models.Query{"terms": models.Query{esid: values}}
}

func must(clauses ...interface{}) models.Query {
	return models.Query{"bool": models.Query{"must": clauses}}
}

func should(clauses ...interface{}) models.Query {
	return models.Query{"bool": models.Query{"should": clauses}}
}

func boolPtr(b bool) *bool {
	return &b
}
