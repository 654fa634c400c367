package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viz-query-service/config"
	"viz-query-service/models"
)

func newElasticsearchServer(t *testing.T, handler http.HandlerFunc) *ElasticsearchClient {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"8.15.0"}}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	es, err := NewElasticsearchClient(config.Elasticsearch{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return es
}

func TestElasticsearchSearch(t *testing.T) {
	es := newElasticsearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flows_ReadAlias/_search", r.URL.Path)
		var doc models.Query
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		assert.Contains(t, doc, "query")
		_, _ = w.Write([]byte(`{"aggregations":{"ports":{"buckets":[{"key":"53","doc_count":1}]}}}`))
	})

	body, err := es.Search(context.Background(), "flows_ReadAlias", models.NewQueryDocument(0))
	require.NoError(t, err)
	assert.Contains(t, body, "aggregations")
}

func TestElasticsearchSearchError(t *testing.T) {
	es := newElasticsearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"index_not_found_exception"},"status":404}`))
	})

	_, err := es.Search(context.Background(), "missing", models.NewQueryDocument(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestElasticsearchInferFieldMappings(t *testing.T) {
	es := newElasticsearchServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/flows/_mapping", r.URL.Path)
		_, _ = w.Write([]byte(`{"flows":{"mappings":{"properties":{"bytes":{"type":"long"},"tls":{"type":"boolean"}}}}}`))
	})

	mappings, err := es.InferFieldMappings(context.Background(), "flows")
	require.NoError(t, err)
	assert.Equal(t, models.FieldTypeNumber, models.FieldTypeOf(mappings["bytes"]))
	assert.Equal(t, models.FieldTypeTrueFalse, models.FieldTypeOf(mappings["tls"]))
}
