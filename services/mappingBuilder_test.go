package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"viz-query-service/models"
)

func TestFlattenMappingResponse(t *testing.T) {
	response := map[string]interface{}{
		"flows-v1": map[string]interface{}{
			"mappings": map[string]interface{}{
				"properties": map[string]interface{}{
					"bytes": map[string]interface{}{"type": "long"},
					"host": map[string]interface{}{
						"type":   "text",
						"fields": map[string]interface{}{"raw": map[string]interface{}{"type": "keyword"}},
					},
					"nested": map[string]interface{}{
						"type": "nested",
						"properties": map[string]interface{}{
							"app": map[string]interface{}{"type": "keyword"},
						},
					},
					"geo": map[string]interface{}{
						"properties": map[string]interface{}{
							"city": map[string]interface{}{"type": "keyword"},
						},
					},
				},
			},
		},
	}

	got, err := flattenMappingResponse(response)
	require.NoError(t, err)
	assert.Equal(t, map[string]models.FieldMapping{
		"bytes":      {DataType: []string{"long"}},
		"host":       {DataType: []string{"text", "keyword"}},
		"nested.app": {Path: "nested", DataType: []string{"keyword"}, IsNested: true},
		"geo.city":   {Path: "geo", DataType: []string{"keyword"}},
	}, got)
}

func TestProcessMappingMalformed(t *testing.T) {
	err := processMapping(map[string]interface{}{"bad": "long"}, "", map[string]models.FieldMapping{})
	assert.Error(t, err)
}

func TestApplyMappings(t *testing.T) {
	table := &models.SchemaTable{DataTypes: map[string]map[string]models.FieldSchemas{
		"flow": {"table": {
			"bytes":     {ESID: "net.bytes"},
			"encrypted": {},
			"when":      {FieldType: models.FieldTypeString, ESID: "ts"},
			"unknown":   {},
		}},
	}}
	mappings := map[string]models.FieldMapping{
		"net.bytes": {DataType: []string{"long"}},
		"encrypted": {DataType: []string{"boolean"}},
		"ts":        {DataType: []string{"date"}},
	}

	assert.Equal(t, 2, ApplyMappings(table, "flow", mappings))
	fields := table.DataTypes["flow"]["table"]
	assert.Equal(t, models.FieldTypeNumber, fields["bytes"].FieldType)
	assert.Equal(t, models.FieldTypeTrueFalse, fields["encrypted"].FieldType)
	assert.Equal(t, models.FieldTypeString, fields["when"].FieldType)
	assert.Equal(t, "", fields["unknown"].FieldType)
	assert.Equal(t, 0, ApplyMappings(table, "alert", mappings))
}

const schemaYAML = `
node_types:
  table:
    facade_mode: locked
data_types:
  flow:
    protocolFilter:
      protocol:
        esid: proto
        field_type: string
      encrypted:
        field_type: truefalse
        dependencies:
          - node_type: modeFilter
            field: mode
            values: [tls]
      status:
        query_if_empty:
          exists:
            field: status
`

func TestLoadSchemaFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(schemaYAML), 0o600))

	table, err := LoadSchemaFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, models.FacadeLocked, table.FacadeModeOf("table"))
	assert.Equal(t, models.FacadeExclusive, table.FacadeModeOf("histogram"))

	fields := table.FieldsForNodeType("protocolFilter", []string{"flow"})
	require.Len(t, fields, 3)
	assert.Equal(t, "proto", fields["protocol"].ESID)
	assert.Equal(t, []models.Dependency{{NodeType: "modeFilter", Field: "mode", Values: []string{"tls"}}}, fields["encrypted"].Dependencies)
	assert.Equal(t, models.Query{"exists": map[string]interface{}{"field": "status"}}, fields["status"].QueryIfEmpty)
}

func TestLoadSchemaFromFileErrors(t *testing.T) {
	_, err := LoadSchemaFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte("node_types: [oops"), 0o600))
	_, err = LoadSchemaFromFile(path)
	assert.Error(t, err)
}

func TestValidateSchema(t *testing.T) {
	table := &models.SchemaTable{
		NodeTypes: map[string]models.NodeType{"table": {FacadeMode: "sticky"}},
		DataTypes: map[string]map[string]models.FieldSchemas{
			"flow": {"table": {
				"bytes": {FieldType: "integer"},
				"proto": {Dependencies: []models.Dependency{{Field: "mode"}}},
				"ok":    {FieldType: models.FieldTypeNumber},
			}},
		},
	}
	err := ValidateSchema(table)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 3)
	assert.Contains(t, errs[0].Error(), "sticky")
	assert.Contains(t, errs[1].Error(), "flow/table/bytes")
	assert.Contains(t, errs[2].Error(), "flow/table/proto")

	assert.NoError(t, ValidateSchema(&models.SchemaTable{}))
}
