package services

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"viz-query-service/models"
)

func TestBaseQuery(t *testing.T) {
	upper := 1024.0
	doc := BaseQuery(0, []models.FacetInfo{
		{Key: "ports", Field: "dst_port", Size: 5},
		{Key: "apps", Field: "app", NestedPath: "nested"},
		{Key: "sizes", Field: "bytes", Ranges: []models.RangeBucket{{Key: "small", To: &upper}}},
		{Key: "", Field: "ignored"},
	}, nil)

	want := models.Query{
		"ports": models.Query{"terms": models.Query{"field": "dst_port", "size": uint32(5)}},
		"apps": models.Query{
			"nested": models.Query{"path": "nested"},
			"aggs":   models.Query{"facet_values": models.Query{"terms": models.Query{"field": "app"}}},
		},
		"sizes": models.Query{"range": models.Query{
			"field":  "bytes",
			"ranges": []interface{}{models.Query{"key": "small", "to": 1024.0}},
		}},
	}
	if diff := cmp.Diff(want, doc["aggs"]); diff != "" {
		t.Errorf("aggs mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, models.MustClauses(doc))

	assert.NotContains(t, BaseQuery(10, nil, nil), "aggs")
}

func TestBaseQueryWithMappings(t *testing.T) {
	mappings := map[string]models.FieldMapping{
		"host":       {DataType: []string{"text", "keyword"}},
		"dst_port":   {DataType: []string{"long"}},
		"payload":    {DataType: []string{"text"}},
		"nested.app": {Path: "nested", DataType: []string{"keyword"}, IsNested: true},
	}
	doc := BaseQuery(0, []models.FacetInfo{
		{Key: "hosts", Field: "host"},
		{Key: "ports", Field: "dst_port"},
		{Key: "payloads", Field: "payload"},
		{Key: "apps", Field: "nested.app"},
		{Key: "missing", Field: "not_mapped"},
	}, mappings)

	want := models.Query{
		"hosts": models.Query{"terms": models.Query{"field": "host.keyword"}},
		"ports": models.Query{"terms": models.Query{"field": "dst_port"}},
		"apps": models.Query{
			"nested": models.Query{"path": "nested"},
			"aggs":   models.Query{"facet_values": models.Query{"terms": models.Query{"field": "nested.app"}}},
		},
	}
	if diff := cmp.Diff(want, doc["aggs"]); diff != "" {
		t.Errorf("aggs mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAggregations(t *testing.T) {
	raw := `{
		"took": 3,
		"aggregations": {
			"ports": {"buckets": [{"key": "443", "doc_count": 7}, {"key": "53", "doc_count": 2}]},
			"apps": {"doc_count": 9, "facet_values": {"buckets": [{"key": "dns", "doc_count": 9}]}},
			"sizes": {"buckets": [{"key": "small", "to": 1024.0, "doc_count": 4}]},
			"total": {"value": 12}
		}
	}`
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &body))

	got, err := ParseAggregations(body)
	require.NoError(t, err)
	want := models.AggregationResult{
		"ports": {{Value: "443", DocCount: 7}, {Value: "53", DocCount: 2}},
		"apps":  {{Value: "dns", DocCount: 9}},
		"sizes": {{Value: "small", DocCount: 4}},
		"total": nil,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseAggregations mismatch (-want +got):\n%s", diff)
	}
}

func TestParseAggregationsWithoutAggregations(t *testing.T) {
	got, err := ParseAggregations(map[string]interface{}{"hits": map[string]interface{}{}})
	require.NoError(t, err)
	assert.Nil(t, got)
}
