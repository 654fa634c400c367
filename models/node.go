package models

// FilterValue is the state of one filter field on a node.
type FilterValue struct {
	// ESID is the backend field id. A comma-delimited ESID addresses a composite key.
	ESID        string   `json:"esid"`
	FieldValues []string `json:"field_values"`
	FieldType   string   `json:"field_type,omitempty"`
	IsRange     bool     `json:"is_range,omitempty"`
	NodeType    string   `json:"node_type,omitempty"`
	// Operators holds one inequality operator per ESID component.
	// An empty entry means the component is matched exactly.
	Operators []string `json:"operators,omitempty"`
}

// Clone returns a deep copy of the filter value.
func (f FilterValue) Clone() FilterValue {
	f.FieldValues = append([]string(nil), f.FieldValues...)
	f.Operators = append([]string(nil), f.Operators...)
	return f
}

// Node is one visualization or filter unit of the dashboard.
type Node struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Children []string               `json:"children,omitempty"`
	Filters  map[string]FilterValue `json:"filters,omitempty"`
	// DataType and DataSource describe the base data of a leaf node.
	DataType   string `json:"data_type,omitempty"`
	DataSource string `json:"data_source,omitempty"`
}

// IsLeaf reports whether the node is a base data node.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

func (n *Node) clone() *Node {
	c := *n
	c.Children = append([]string(nil), n.Children...)
	if n.Filters != nil {
		c.Filters = make(map[string]FilterValue, len(n.Filters))
		for k, v := range n.Filters {
			c.Filters[k] = v.Clone()
		}
	}
	return &c
}

// QueryTree is one chain of nodes from a leaf up to the queried node.
type QueryTree []*Node

// Leaf returns the base data node of the tree.
func (t QueryTree) Leaf() *Node {
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// Root returns the node the query was invoked on.
func (t QueryTree) Root() *Node {
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1]
}

// DataType returns the underlying data type of the tree.
func (t QueryTree) DataType() string {
	if l := t.Leaf(); l != nil {
		return l.DataType
	}
	return ""
}

// IDs lists the node ids of the tree, leaf first.
func (t QueryTree) IDs() []string {
	ids := make([]string, len(t))
	for i, n := range t {
		ids[i] = n.ID
	}
	return ids
}
