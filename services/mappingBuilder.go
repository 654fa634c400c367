package services

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"sigs.k8s.io/yaml"

	"viz-query-service/models"
)

// LoadSchemaFromFile loads a schema table from a YAML or JSON file.
func LoadSchemaFromFile(filename string) (*models.SchemaTable, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "error reading schema file")
	}
	j, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, errors.Wrap(err, "error converting schema file")
	}
	var table models.SchemaTable
	if err := json.Unmarshal(j, &table); err != nil {
		return nil, errors.Wrap(err, "error unmarshaling schema")
	}
	if err := ValidateSchema(&table); err != nil {
		return nil, err
	}
	return &table, nil
}

var knownFieldTypes = map[string]struct{}{
	"":                        {},
	models.FieldTypeTrueFalse: {},
	models.FieldTypeNumber:    {},
	models.FieldTypeString:    {},
	models.FieldTypeDate:      {},
}

// ValidateSchema reports every problem of the table at once.
func ValidateSchema(table *models.SchemaTable) (err error) {
	for name, nt := range table.NodeTypes {
		switch nt.FacadeMode {
		case "", models.FacadeExclusive, models.FacadeMulti, models.FacadeLocked:
		default:
			err = multierr.Append(err, errors.Errorf("node type %s: unknown facade mode %q", name, nt.FacadeMode))
		}
	}
	for _, dataType := range models.SortedKeys(table.DataTypes) {
		nodeTypes := table.DataTypes[dataType]
		for _, nodeType := range models.SortedKeys(nodeTypes) {
			for _, key := range models.SortedKeys(nodeTypes[nodeType]) {
				fs := nodeTypes[nodeType][key]
				where := dataType + "/" + nodeType + "/" + key
				if _, ok := knownFieldTypes[fs.FieldType]; !ok {
					err = multierr.Append(err, errors.Errorf("%s: unknown field type %q", where, fs.FieldType))
				}
				for _, dep := range fs.Dependencies {
					if dep.NodeType == "" || dep.Field == "" {
						err = multierr.Append(err, errors.Errorf("%s: dependency needs node_type and field", where))
					}
				}
			}
		}
	}
	return err
}

// processMapping recursively flattens an index mapping into field mappings.
func processMapping(properties map[string]interface{}, prefix string, fieldMappings map[string]models.FieldMapping) error {
	for field, mapping := range properties {
		mappingMap, ok := mapping.(map[string]interface{})
		if !ok {
			return errors.Errorf("malformed mapping of field %s", field)
		}
		currentPath := field
		if prefix != "" {
			currentPath = prefix + "." + field
		}

		if nestedProps, ok := mappingMap["properties"].(map[string]interface{}); ok {
			if err := processMapping(nestedProps, currentPath, fieldMappings); err != nil {
				return err
			}
			if mappingMap["type"] == "nested" {
				updateNestedStatus(currentPath, fieldMappings)
			}
			continue
		}

		fieldType, _ := mappingMap["type"].(string)
		dataTypes := []string{fieldType}
		if fields, ok := mappingMap["fields"].(map[string]interface{}); ok {
			for _, subField := range models.SortedKeys(fields) {
				if sub, ok := fields[subField].(map[string]interface{}); ok {
					if t, ok := sub["type"].(string); ok {
						dataTypes = append(dataTypes, t)
					}
				}
			}
		}
		path := ""
		if i := strings.LastIndex(currentPath, "."); i >= 0 {
			path = currentPath[:i]
		}
		fieldMappings[currentPath] = models.FieldMapping{
			Path:     path,
			DataType: dataTypes,
		}
	}
	return nil
}

// updateNestedStatus marks every field under a nested path as nested.
func updateNestedStatus(nestedPath string, fieldMappings map[string]models.FieldMapping) {
	for field, mapping := range fieldMappings {
		if strings.HasPrefix(field, nestedPath+".") {
			mapping.IsNested = true
			fieldMappings[field] = mapping
		}
	}
}

// InferFieldMappings reads the mapping of an index from the cluster.
func (es *ElasticsearchClient) InferFieldMappings(ctx context.Context, indexName string) (map[string]models.FieldMapping, error) {
	getMappingReq := esapi.IndicesGetMappingRequest{
		Index: []string{indexName},
	}
	getMappingRes, err := getMappingReq.Do(ctx, es.client)
	if err != nil {
		return nil, errors.Wrapf(err, "get mapping of %s", indexName)
	}
	defer getMappingRes.Body.Close()
	if getMappingRes.IsError() {
		return nil, errors.Errorf("error getting mapping of %s: %s", indexName, getMappingRes.String())
	}

	var mappingResponse map[string]interface{}
	if err := json.NewDecoder(getMappingRes.Body).Decode(&mappingResponse); err != nil {
		return nil, errors.Wrap(err, "decode mapping")
	}
	return flattenMappingResponse(mappingResponse)
}

// flattenMappingResponse merges the field mappings of every index in a get-mapping response.
func flattenMappingResponse(mappingResponse map[string]interface{}) (map[string]models.FieldMapping, error) {
	fieldMappings := make(map[string]models.FieldMapping)
	for _, index := range models.SortedKeys(mappingResponse) {
		indexData, _ := mappingResponse[index].(map[string]interface{})
		mappings, _ := indexData["mappings"].(map[string]interface{})
		properties, ok := mappings["properties"].(map[string]interface{})
		if !ok {
			continue
		}
		if err := processMapping(properties, "", fieldMappings); err != nil {
			return nil, errors.Wrapf(err, "index %s", index)
		}
	}
	return fieldMappings, nil
}

// ApplyMappings fills the missing field types of a data type's schemas from
// backend mappings. It returns how many fields were completed.
func ApplyMappings(table *models.SchemaTable, dataType string, mappings map[string]models.FieldMapping) int {
	completed := 0
	for _, fields := range table.DataTypes[dataType] {
		for key, fs := range fields {
			if fs.FieldType != "" {
				continue
			}
			m, ok := mappings[firstNonEmpty(fs.ESID, key)]
			if !ok {
				continue
			}
			if ft := models.FieldTypeOf(m); ft != "" {
				fs.FieldType = ft
				fields[key] = fs
				completed++
			}
		}
	}
	return completed
}
