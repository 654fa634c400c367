package models

// FieldMapping is what the search backend's index mapping says about one field.
type FieldMapping struct {
	Path     string   `json:"path"`      // parent object path of the field
	DataType []string `json:"data_type"` // mapped type followed by multi-field types
	IsNested bool     `json:"is_nested"` // the field lives under a nested object
}

// FieldTypeOf translates a backend mapping to the field type used by filters.
func FieldTypeOf(m FieldMapping) string {
	if len(m.DataType) == 0 {
		return ""
	}
	switch m.DataType[0] {
	case "boolean":
		return FieldTypeTrueFalse
	case "integer", "long", "short", "byte", "float", "double", "half_float", "scaled_float":
		return FieldTypeNumber
	case "date":
		return FieldTypeDate
	default:
		return FieldTypeString
	}
}
