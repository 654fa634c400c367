package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonOf(t *testing.T, doc Query) string {
	t.Helper()
	b, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(b)
}

func TestNewQueryDocument(t *testing.T) {
	doc := NewQueryDocument(5)
	assert.Equal(t, 5, doc["size"])
	must := MustClauses(doc)
	require.NotNil(t, must)
	assert.Empty(t, must)
	assert.JSONEq(t,
		`{"size":5,"query":{"filtered":{"filter":{"bool":{"must":[]}},"query":{"match_all":{}}}}}`,
		jsonOf(t, doc))
}

func TestSetMustClausesCreatesSkeleton(t *testing.T) {
	doc := Query{"size": 0}
	SetMustClauses(doc, nil)
	assert.JSONEq(t,
		`{"size":0,"query":{"filtered":{"filter":{"bool":{"must":[]}},"query":{"match_all":{}}}}}`,
		jsonOf(t, doc))

	SetMustClauses(doc, []interface{}{Query{"terms": Query{"a": []string{"1"}}}})
	assert.Len(t, MustClauses(doc), 1)
}

func TestMustClausesOfTypedSlice(t *testing.T) {
	doc := NewQueryDocument(0)
	doc["query"].(Query)["filtered"].(Query)["filter"].(Query)["bool"].(Query)["must"] = []Query{{"exists": Query{"field": "a"}}}
	assert.Equal(t, []interface{}{Query{"exists": Query{"field": "a"}}}, MustClauses(doc))
	assert.Nil(t, MustClauses(Query{}))
}

func TestCloneQueryIsDeep(t *testing.T) {
	values := []string{"1"}
	doc := Query{"bool": Query{"must": []interface{}{Query{"terms": Query{"a": values}}}}}
	clone := CloneQuery(doc)

	values[0] = "changed"
	clone["bool"].(Query)["must"] = append(clone["bool"].(Query)["must"].([]interface{}), "x")

	terms := clone["bool"].(Query)["must"].([]interface{})[0].(Query)["terms"].(Query)
	assert.Equal(t, []string{"1"}, terms["a"])
	assert.Len(t, doc["bool"].(Query)["must"], 1)
	assert.Nil(t, CloneQuery(nil))
}

func TestFacadeHelpers(t *testing.T) {
	off := false
	f := &Facade{Fields: map[string]FacadeField{
		"b": {DataSourceType: "alert"},
		"a": {},
	}}
	assert.Equal(t, "alert", f.DataSourceType())
	assert.True(t, f.MergesNested())

	f.Fields["c"] = FacadeField{OutermostMustClause: true, IncludeNested: &off}
	assert.False(t, f.MergesNested())

	g := &Facade{IncludeNested: &off}
	assert.False(t, g.MergesNested())
}

func TestSchemaResolve(t *testing.T) {
	table := &SchemaTable{DataTypes: map[string]map[string]FieldSchemas{
		"flow":  {"f": {"proto": {ESID: "flow.proto"}}},
		"alert": {"f": {"proto": {ESID: "alert.proto"}}},
	}}
	tree := QueryTree{{ID: "leaf", DataType: "alert"}, {ID: "x", Type: "f"}}
	resolved := table.Resolve(tree)
	assert.Equal(t, "alert.proto", resolved["f"]["proto"].ESID)

	merged := table.FieldsForNodeType("f", []string{"flow", "alert"})
	assert.Equal(t, "flow.proto", merged["proto"].ESID)

	var nilTable *SchemaTable
	assert.Empty(t, nilTable.FieldsForNodeType("f", []string{"flow"}))
	assert.Equal(t, FacadeExclusive, nilTable.FacadeModeOf("f"))
}

func TestFieldTypeOf(t *testing.T) {
	assert.Equal(t, FieldTypeTrueFalse, FieldTypeOf(FieldMapping{DataType: []string{"boolean"}}))
	assert.Equal(t, FieldTypeNumber, FieldTypeOf(FieldMapping{DataType: []string{"scaled_float"}}))
	assert.Equal(t, FieldTypeDate, FieldTypeOf(FieldMapping{DataType: []string{"date"}}))
	assert.Equal(t, FieldTypeString, FieldTypeOf(FieldMapping{DataType: []string{"keyword"}}))
	assert.Equal(t, "", FieldTypeOf(FieldMapping{}))
}
