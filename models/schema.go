package models

// Field types with special handling during aggregation.
const (
	FieldTypeTrueFalse = "truefalse"
	FieldTypeNumber    = "number"
	FieldTypeString    = "string"
	FieldTypeDate      = "date"
)

// Dependency gates a filter on the state of another node in the same tree.
type Dependency struct {
	NodeType string   `json:"node_type"`
	Field    string   `json:"field"`
	Values   []string `json:"values"`
}

// FieldSchema describes how one filter field of a node type is queried.
type FieldSchema struct {
	FieldType    string       `json:"field_type,omitempty"`
	ESID         string       `json:"esid,omitempty"`
	Dependencies []Dependency `json:"dependencies,omitempty"`
	// QueryIfEmpty is added when no node of the tree sets the field.
	QueryIfEmpty Query `json:"query_if_empty,omitempty"`
	// CustomFieldQuery replaces the terms clause. Every "$values" string in it
	// is replaced with the field values.
	CustomFieldQuery Query `json:"custom_field_query,omitempty"`
}

// FieldSchemas maps a field key to its schema.
type FieldSchemas map[string]FieldSchema

// FacadeMode selects how a view type reacts to facades from other views.
type FacadeMode string

const (
	// FacadeExclusive clears facades of other views before adding.
	FacadeExclusive FacadeMode = "exclusive"
	// FacadeMulti keeps facades of several origin views side by side.
	FacadeMulti FacadeMode = "multi"
	// FacadeLocked rejects a facade while another view's facades are active.
	FacadeLocked FacadeMode = "locked"
)

// NodeType holds the capabilities of a node type.
type NodeType struct {
	FacadeMode FacadeMode `json:"facade_mode,omitempty"`
}

// SchemaTable is the lookup from data type to node type to field schemas.
type SchemaTable struct {
	DataTypes map[string]map[string]FieldSchemas `json:"data_types"`
	NodeTypes map[string]NodeType                `json:"node_types,omitempty"`
}

// FieldsForNodeType merges the field schemas of nodeType over the given data types.
// Earlier data types win on conflicting keys.
func (s *SchemaTable) FieldsForNodeType(nodeType string, dataTypes []string) FieldSchemas {
	fields := make(FieldSchemas)
	if s == nil {
		return fields
	}
	for _, dt := range dataTypes {
		for key, fs := range s.DataTypes[dt][nodeType] {
			if _, ok := fields[key]; !ok {
				fields[key] = fs
			}
		}
	}
	return fields
}

// Resolve returns the field schemas of every node type present in tree,
// looked up once for the tree's data type.
func (s *SchemaTable) Resolve(tree QueryTree) map[string]FieldSchemas {
	resolved := make(map[string]FieldSchemas)
	dataTypes := []string{tree.DataType()}
	for _, n := range tree {
		if _, ok := resolved[n.Type]; ok {
			continue
		}
		resolved[n.Type] = s.FieldsForNodeType(n.Type, dataTypes)
	}
	return resolved
}

// FacadeModeOf returns the facade mode of a node type, exclusive by default.
func (s *SchemaTable) FacadeModeOf(nodeType string) FacadeMode {
	if s == nil {
		return FacadeExclusive
	}
	if nt, ok := s.NodeTypes[nodeType]; ok && nt.FacadeMode != "" {
		return nt.FacadeMode
	}
	return FacadeExclusive
}
