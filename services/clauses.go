package services

import (
	"strconv"
	"strings"

	"viz-query-service/models"
)

var rangeOperators = map[string]string{
	">":  "gt",
	">=": "gte",
	"<":  "lt",
	"<=": "lte",
}

func termsClause(esid string, values []string) models.Query {
	return models.Query{
		"terms": models.Query{
			esid: append([]string(nil), values...),
		},
	}
}

func rangeClause(esid string, bounds models.Query) models.Query {
	return models.Query{
		"range": models.Query{
			esid: bounds,
		},
	}
}

func boolMust(clauses []interface{}) models.Query {
	return models.Query{"bool": models.Query{"must": clauses}}
}

func boolShould(clauses []interface{}) models.Query {
	return models.Query{"bool": models.Query{"should": clauses}}
}

func nestedClause(path string, query models.Query) models.Query {
	return models.Query{
		"nested": models.Query{
			"path":  path,
			"query": query,
		},
	}
}

// RangeFilter builds a {gte, lte} bound object. Absent or empty bounds stay open,
// numeric strings become numbers. It returns nil when both bounds are absent.
func RangeFilter(bounds ...interface{}) models.Query {
	r := models.Query{}
	keys := []string{"gte", "lte"}
	for i, b := range bounds {
		if i >= len(keys) {
			break
		}
		if v, ok := rangeValue(b); ok {
			r[keys[i]] = v
		}
	}
	if len(r) == 0 {
		return nil
	}
	return r
}

func rangeValue(v interface{}) (interface{}, bool) {
	switch t := v.(type) {
	case nil:
		return nil, false
	case string:
		if t == "" {
			return nil, false
		}
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f, true
		}
		return t, true
	case *float64:
		if t == nil {
			return nil, false
		}
		return *t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float32:
		return float64(t), true
	default:
		return v, true
	}
}

// operatorBounds converts an inequality operator and its operand to a bound object.
func operatorBounds(op, operand string) (models.Query, bool) {
	key, ok := rangeOperators[strings.TrimSpace(op)]
	if !ok {
		return nil, false
	}
	v, ok := rangeValue(operand)
	if !ok {
		return nil, false
	}
	return models.Query{key: v}, true
}

func operatorAt(operators []string, i int) string {
	if i < len(operators) {
		return operators[i]
	}
	return ""
}

func splitESID(esid string) []string {
	parts := strings.Split(esid, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// compositeClause expands a comma-delimited ESID into a should of musts, one per
// pipe-delimited alternative. Components are matched by position; positions
// missing on either side are skipped.
func compositeClause(esids []string, values []string, operators []string) models.Query {
	var should []interface{}
	for _, v := range values {
		for _, alt := range strings.Split(v, "|") {
			parts := strings.Split(alt, ",")
			var must []interface{}
			for i, esid := range esids {
				if i >= len(parts) || esid == "" {
					continue
				}
				part := strings.TrimSpace(parts[i])
				if op := operatorAt(operators, i); op != "" {
					if bounds, ok := operatorBounds(op, part); ok {
						must = append(must, rangeClause(esid, bounds))
					}
					continue
				}
				must = append(must, termsClause(esid, []string{part}))
			}
			if len(must) > 0 {
				should = append(should, boolMust(must))
			}
		}
	}
	if len(should) == 0 {
		// blank terms keep an empty composite from matching everything
		must := make([]interface{}, 0, len(esids))
		for _, esid := range esids {
			must = append(must, termsClause(esid, []string{""}))
		}
		should = append(should, boolMust(must))
	}
	return boolShould(should)
}

// PrefixQuery returns a copy of doc where the field keys of terms and range
// clauses carry prefix. Keys that already start with prefix are left alone.
func PrefixQuery(doc models.Query, prefix string) models.Query {
	if doc == nil {
		return nil
	}
	return prefixValue(models.CloneQuery(doc), prefix).(models.Query)
}

func prefixClauses(clauses []interface{}, prefix string) []interface{} {
	out := make([]interface{}, len(clauses))
	for i, c := range clauses {
		if q, ok := c.(models.Query); ok {
			out[i] = PrefixQuery(q, prefix)
			continue
		}
		out[i] = c
	}
	return out
}

func prefixValue(v interface{}, prefix string) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			inner, isMap := val.(map[string]interface{})
			if isMap && (k == "terms" || k == "range") && !isAggregation(inner) {
				t[k] = prefixKeys(inner, prefix)
				continue
			}
			t[k] = prefixValue(val, prefix)
		}
		return t
	case []interface{}:
		for i := range t {
			t[i] = prefixValue(t[i], prefix)
		}
		return t
	default:
		return v
	}
}

// clauseParams are terms and range options that sit beside the field name.
var clauseParams = map[string]bool{
	"boost":     true,
	"_name":     true,
	"format":    true,
	"time_zone": true,
	"relation":  true,
}

func prefixKeys(fields map[string]interface{}, prefix string) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		if clauseParams[k] || strings.HasPrefix(k, prefix) {
			out[k] = v
			continue
		}
		out[prefix+k] = v
	}
	return out
}

// terms and range aggregations name their field under "field".
func isAggregation(body map[string]interface{}) bool {
	_, ok := body["field"]
	return ok
}
