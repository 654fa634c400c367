package models

// FacadeField is one constraint exported by a view facade.
type FacadeField struct {
	FieldValues    []string `json:"field_values"`
	DataSourceType string   `json:"data_source_type,omitempty"`
	IsRange        bool     `json:"is_range,omitempty"`
	// OutermostMustClause hoists the clause to the top-level must array.
	OutermostMustClause bool  `json:"outermost_must_clause,omitempty"`
	IncludeNested       *bool `json:"include_nested,omitempty"`
	// Operators marks composite components that are ranges.
	Operators []string `json:"operators,omitempty"`
}

// Facade is a filter exported from a selection on one view.
type Facade struct {
	ID     string                 `json:"id"`
	ViewID string                 `json:"view_id"`
	Fields map[string]FacadeField `json:"fields"`
	// ActiveTree selects the origin view's query tree used for nested merging.
	ActiveTree    int     `json:"active_tree,omitempty"`
	IncludeNested *bool   `json:"include_nested,omitempty"`
	NestedFilters []Query `json:"nested_filters,omitempty"`
}

// DataSourceType returns the data type the facade's fields were taken from.
func (f *Facade) DataSourceType() string {
	for _, key := range SortedKeys(f.Fields) {
		if t := f.Fields[key].DataSourceType; t != "" {
			return t
		}
	}
	return ""
}

// MergesNested reports whether the origin view's own filters are merged.
// A hoisted field with includeNested=false turns merging off.
func (f *Facade) MergesNested() bool {
	for _, field := range f.Fields {
		if field.OutermostMustClause && field.IncludeNested != nil && !*field.IncludeNested {
			return false
		}
	}
	return f.IncludeNested == nil || *f.IncludeNested
}
