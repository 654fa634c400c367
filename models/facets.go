package models

// AggregatableTypes are the mapping types a terms aggregation can run on.
var AggregatableTypes = map[string]struct{}{
	"keyword": {},
	"integer": {},
	"float":   {},
	"double":  {},
	"long":    {},
	"short":   {},
	"ip":      {},
	"date":    {},
	"boolean": {},
}

// FacetInfo asks for one bucket aggregation in a base query.
type FacetInfo struct {
	Key   string `json:"key"`
	Field string `json:"field"`
	Size  uint32 `json:"size"`
	// NestedPath wraps the aggregation in a nested aggregation.
	NestedPath string `json:"nested_path,omitempty"`
	// Ranges turns the aggregation into a range aggregation.
	Ranges []RangeBucket `json:"ranges,omitempty"`
}

// RangeBucket bounds one bucket of a range aggregation.
type RangeBucket struct {
	Key  string   `json:"key,omitempty"`
	From *float64 `json:"from,omitempty"`
	To   *float64 `json:"to,omitempty"`
}

// FacetAggregation is a single bucket aggregation result.
type FacetAggregation struct {
	Buckets []FacetBucket `json:"buckets"`
}

// FacetBucket is one bucket of an aggregation result.
type FacetBucket struct {
	Key      interface{} `json:"key"`
	DocCount int         `json:"doc_count"`
}

// FacetValue is a bucket as returned to callers.
type FacetValue struct {
	Value    interface{} `json:"value"`
	DocCount int         `json:"doc_count"`
}

// AggregationResult maps an aggregation name to its buckets.
type AggregationResult map[string][]FacetValue
