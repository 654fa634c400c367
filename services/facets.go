package services

import (
	"encoding/json"

	"github.com/pkg/errors"

	"viz-query-service/models"
)

// facetValuesAgg names the inner aggregation of a nested facet.
const facetValuesAgg = "facet_values"

// BaseQuery returns a document skeleton of the given size carrying the facet
// aggregations. With backend field mappings, facets on unknown or
// non-aggregatable fields are dropped and field names and nested paths are
// taken from the mapping.
func BaseQuery(size int, facets []models.FacetInfo, mappings map[string]models.FieldMapping) models.Query {
	doc := models.NewQueryDocument(size)
	if aggs := generateFacetAggregations(facets, mappings); len(aggs) > 0 {
		doc["aggs"] = aggs
	}
	return doc
}

func generateFacetAggregations(facets []models.FacetInfo, mappings map[string]models.FieldMapping) models.Query {
	aggregations := make(models.Query)
	for _, facet := range facets {
		if facet.Key == "" || facet.Field == "" {
			continue
		}
		field, nestedPath := facet.Field, facet.NestedPath
		if len(mappings) > 0 {
			fieldMapping, ok := mappings[facet.Field]
			if !ok || !aggregatable(fieldMapping) {
				continue
			}
			field = aggregationField(facet.Field, fieldMapping)
			if fieldMapping.IsNested && nestedPath == "" {
				nestedPath = fieldMapping.Path
			}
		}

		var agg models.Query
		if len(facet.Ranges) > 0 {
			ranges := make([]interface{}, 0, len(facet.Ranges))
			for _, r := range facet.Ranges {
				bucket := models.Query{}
				if r.Key != "" {
					bucket["key"] = r.Key
				}
				if r.From != nil {
					bucket["from"] = *r.From
				}
				if r.To != nil {
					bucket["to"] = *r.To
				}
				ranges = append(ranges, bucket)
			}
			agg = models.Query{"range": models.Query{"field": field, "ranges": ranges}}
		} else {
			terms := models.Query{"field": field}
			if facet.Size > 0 {
				terms["size"] = facet.Size
			}
			agg = models.Query{"terms": terms}
		}
		if nestedPath != "" {
			agg = models.Query{
				"nested": models.Query{"path": nestedPath},
				"aggs":   models.Query{facetValuesAgg: agg},
			}
		}
		aggregations[facet.Key] = agg
	}
	return aggregations
}

func aggregatable(m models.FieldMapping) bool {
	for _, dataType := range m.DataType {
		if _, ok := models.AggregatableTypes[dataType]; ok {
			return true
		}
	}
	return false
}

// aggregationField targets the keyword multi-field of analyzed fields.
func aggregationField(name string, m models.FieldMapping) string {
	if len(m.DataType) < 2 || m.DataType[0] == "keyword" {
		return name
	}
	for _, dataType := range m.DataType[1:] {
		if dataType == "keyword" {
			return name + ".keyword"
		}
	}
	return name
}

// ParseAggregations reads the buckets of every aggregation in a search response.
// Single-bucket wrappers such as nested aggregations are unwrapped down to the
// first aggregation carrying buckets.
func ParseAggregations(body map[string]interface{}) (models.AggregationResult, error) {
	raw, ok := body["aggregations"]
	if !ok || raw == nil {
		return nil, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "encode aggregations")
	}
	var esResp map[string]json.RawMessage
	if err := json.Unmarshal(b, &esResp); err != nil {
		return nil, errors.Wrap(err, "decode aggregations")
	}
	result := make(models.AggregationResult, len(esResp))
	for key, rawAgg := range esResp {
		values, err := parseBuckets(rawAgg)
		if err != nil {
			return nil, errors.Wrapf(err, "aggregation %s", key)
		}
		result[key] = values
	}
	return result, nil
}

func parseBuckets(rawAgg json.RawMessage) ([]models.FacetValue, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(rawAgg, &fields); err != nil {
		return nil, nil
	}
	if _, ok := fields["buckets"]; ok {
		var facetAgg models.FacetAggregation
		if err := json.Unmarshal(rawAgg, &facetAgg); err != nil {
			return nil, err
		}
		values := make([]models.FacetValue, 0, len(facetAgg.Buckets))
		for _, bucket := range facetAgg.Buckets {
			values = append(values, models.FacetValue{
				Value:    bucket.Key,
				DocCount: bucket.DocCount,
			})
		}
		return values, nil
	}
	if inner, ok := fields[facetValuesAgg]; ok {
		return parseBuckets(inner)
	}
	for _, key := range models.SortedKeys(fields) {
		if len(fields[key]) == 0 || fields[key][0] != '{' {
			continue
		}
		if values, err := parseBuckets(fields[key]); err != nil || values != nil {
			return values, err
		}
	}
	return nil, nil
}
