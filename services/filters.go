package services

import (
	"strings"

	"viz-query-service/logger"
	"viz-query-service/models"
)

// Aggregate is the merged filter state of one query tree.
type Aggregate struct {
	// Filters holds exact-match and composite filters by field key.
	Filters map[string]*models.FilterValue
	// Ranges holds bound objects by ESID.
	Ranges map[string]models.Query
	// MustFilters holds ready-made clauses from custom and empty-field queries.
	MustFilters []interface{}

	filterKeys []string
	rangeKeys  []string
	set        map[string]bool
}

func newAggregate() *Aggregate {
	return &Aggregate{
		Filters: make(map[string]*models.FilterValue),
		Ranges:  make(map[string]models.Query),
		set:     make(map[string]bool),
	}
}

// FilterKeys returns the filter keys in first-appearance order.
func (a *Aggregate) FilterKeys() []string {
	return append([]string(nil), a.filterKeys...)
}

// RangeKeys returns the range ESIDs in first-appearance order.
func (a *Aggregate) RangeKeys() []string {
	return append([]string(nil), a.rangeKeys...)
}

// CollectFiltersAndRanges merges the active filters of every node of tree.
// Filters whose dependencies are unmet are left out; values of a key shared by
// several nodes are unioned in first-appearance order.
func CollectFiltersAndRanges(tree models.QueryTree, schemas map[string]models.FieldSchemas) *Aggregate {
	agg := newAggregate()
	for _, node := range tree {
		fields := schemas[node.Type]
		for _, key := range models.SortedKeys(node.Filters) {
			fv := node.Filters[key]
			if len(fv.FieldValues) == 0 {
				continue
			}
			fs := fields[key]
			if !dependenciesMet(tree, node, fs.Dependencies) {
				continue
			}
			esid := firstNonEmpty(fv.ESID, fs.ESID, key)
			fieldType := firstNonEmpty(fv.FieldType, fs.FieldType)
			values := normalizeValues(fieldType, fv.FieldValues)

			switch {
			case fv.IsRange && !strings.Contains(esid, ","):
				op := operatorAt(fv.Operators, 0)
				if !agg.addRange(esid, op, values[0]) {
					logger.GetLogger("filters").Debug().
						Str("node", node.ID).Str("field", key).Str("operator", op).Str("value", values[0]).
						Msg("dropping range filter without a usable bound")
					continue
				}
			case fs.CustomFieldQuery != nil:
				agg.MustFilters = append(agg.MustFilters, substituteValues(fs.CustomFieldQuery, values))
			default:
				agg.addFilter(key, esid, fieldType, fv, values)
			}
			agg.set[key] = true
		}
	}
	agg.addEmptyFieldQueries(tree, schemas)
	return agg
}

func (a *Aggregate) addFilter(key, esid, fieldType string, fv models.FilterValue, values []string) {
	merged, ok := a.Filters[key]
	if !ok {
		c := fv.Clone()
		c.ESID = esid
		c.FieldType = fieldType
		c.FieldValues = nil
		merged = &c
		a.Filters[key] = merged
		a.filterKeys = append(a.filterKeys, key)
	}
	for _, v := range values {
		if !containsString(merged.FieldValues, v) {
			merged.FieldValues = append(merged.FieldValues, v)
		}
	}
}

// addRange merges one operator bound into the ranges of esid. It reports
// false when the operator or operand is unusable.
func (a *Aggregate) addRange(esid, op, operand string) bool {
	bounds, ok := operatorBounds(op, operand)
	if !ok {
		return false
	}
	existing, ok := a.Ranges[esid]
	if !ok {
		a.Ranges[esid] = bounds
		a.rangeKeys = append(a.rangeKeys, esid)
		return true
	}
	for k, v := range bounds {
		if _, taken := existing[k]; !taken {
			existing[k] = v
		}
	}
	return true
}

func (a *Aggregate) addEmptyFieldQueries(tree models.QueryTree, schemas map[string]models.FieldSchemas) {
	seen := make(map[string]bool)
	for _, node := range tree {
		if seen[node.Type] {
			continue
		}
		seen[node.Type] = true
		fields := schemas[node.Type]
		for _, key := range models.SortedKeys(fields) {
			fs := fields[key]
			if fs.QueryIfEmpty == nil || a.set[key] {
				continue
			}
			a.set[key] = true
			a.MustFilters = append(a.MustFilters, models.CloneQuery(fs.QueryIfEmpty))
		}
	}
}

// dependenciesMet reports whether every dependency is satisfied by another node of tree.
func dependenciesMet(tree models.QueryTree, self *models.Node, deps []models.Dependency) bool {
	for _, dep := range deps {
		met := false
		for _, other := range tree {
			if other == self || other.Type != dep.NodeType {
				continue
			}
			if fv, ok := other.Filters[dep.Field]; ok && sameSet(fv.FieldValues, dep.Values) {
				met = true
				break
			}
		}
		if !met {
			return false
		}
	}
	return true
}

func normalizeValues(fieldType string, values []string) []string {
	if fieldType != models.FieldTypeTrueFalse {
		return values
	}
	out := make([]string, len(values))
	for i, v := range values {
		switch v {
		case "true":
			out[i] = "T"
		case "false":
			out[i] = "F"
		default:
			out[i] = v
		}
	}
	return out
}

// substituteValues copies template, replacing every "$values" string with values.
func substituteValues(template models.Query, values []string) models.Query {
	return substitute(models.CloneQuery(template), values).(models.Query)
}

func substitute(v interface{}, values []string) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = substitute(val, values)
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = substitute(t[i], values)
		}
		return t
	case string:
		if t == "$values" {
			return append([]string(nil), values...)
		}
		return t
	default:
		return v
	}
}

func sameSet(a, b []string) bool {
	as := make(map[string]struct{}, len(a))
	for _, v := range a {
		as[v] = struct{}{}
	}
	bs := make(map[string]struct{}, len(b))
	for _, v := range b {
		bs[v] = struct{}{}
	}
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}

func containsString(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
