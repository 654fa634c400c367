package models

import "sort"

// Query is a search backend query document or clause.
type Query = map[string]interface{}

// NewQueryDocument returns an unrestricted document skeleton.
func NewQueryDocument(size int) Query {
	return Query{
		"size": size,
		"query": Query{
			"filtered": Query{
				"filter": Query{
					"bool": Query{
						"must": []interface{}{},
					},
				},
				"query": Query{"match_all": Query{}},
			},
		},
	}
}

// MustClauses returns the must array of doc, nil when doc has none.
func MustClauses(doc Query) []interface{} {
	b := boolOf(doc)
	if b == nil {
		return nil
	}
	switch must := b["must"].(type) {
	case []interface{}:
		return must
	case []Query:
		out := make([]interface{}, len(must))
		for i, m := range must {
			out[i] = m
		}
		return out
	}
	return nil
}

// SetMustClauses writes the must array of doc, creating the skeleton when absent.
func SetMustClauses(doc Query, clauses []interface{}) {
	if clauses == nil {
		clauses = []interface{}{}
	}
	q := child(doc, "query")
	filtered := child(q, "filtered")
	if _, ok := filtered["query"]; !ok {
		filtered["query"] = Query{"match_all": Query{}}
	}
	filter := child(filtered, "filter")
	b := child(filter, "bool")
	b["must"] = clauses
}

// CloneQuery deep copies a query document.
func CloneQuery(doc Query) Query {
	if doc == nil {
		return nil
	}
	return cloneValue(doc).(Query)
}

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []Query:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func boolOf(doc Query) Query {
	q, _ := doc["query"].(Query)
	filtered, _ := q["filtered"].(Query)
	filter, _ := filtered["filter"].(Query)
	b, _ := filter["bool"].(Query)
	return b
}

func child(parent Query, key string) Query {
	if c, ok := parent[key].(Query); ok {
		return c
	}
	c := Query{}
	parent[key] = c
	return c
}
