package models

// Graph is an immutable snapshot of the dashboard's nodes indexed by id.
// Mutators return a new snapshot and never touch the receiver.
type Graph struct {
	nodes map[string]*Node
}

// NewGraph builds a snapshot from the given nodes. Nodes are copied.
func NewGraph(nodes ...Node) *Graph {
	g := &Graph{nodes: make(map[string]*Node, len(nodes))}
	for i := range nodes {
		g.nodes[nodes[i].ID] = nodes[i].clone()
	}
	return g
}

// NodeByID looks up a node.
func (g *Graph) NodeByID(id string) (*Node, bool) {
	if g == nil {
		return nil, false
	}
	n, ok := g.nodes[id]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// With returns a snapshot where node replaces any node with the same id.
func (g *Graph) With(node Node) *Graph {
	next := g.copy()
	next.nodes[node.ID] = node.clone()
	return next
}

// Without returns a snapshot without the node and without references to it.
func (g *Graph) Without(id string) *Graph {
	next := &Graph{nodes: make(map[string]*Node, g.Len())}
	if g == nil {
		return next
	}
	for k, n := range g.nodes {
		if k == id {
			continue
		}
		if !contains(n.Children, id) {
			next.nodes[k] = n
			continue
		}
		c := n.clone()
		c.Children = c.Children[:0]
		for _, child := range n.Children {
			if child != id {
				c.Children = append(c.Children, child)
			}
		}
		next.nodes[k] = c
	}
	return next
}

// Leaves returns the leaf nodes reachable from id in traversal order.
func (g *Graph) Leaves(id string) []*Node {
	n, ok := g.NodeByID(id)
	if !ok {
		return nil
	}
	if n.IsLeaf() {
		return []*Node{n}
	}
	var leaves []*Node
	for _, child := range n.Children {
		leaves = append(leaves, g.Leaves(child)...)
	}
	return leaves
}

// UnderlyingDataTypes returns the distinct data types of the leaves reachable from id.
func (g *Graph) UnderlyingDataTypes(id string) []string {
	var types []string
	for _, l := range g.Leaves(id) {
		if l.DataType != "" && !contains(types, l.DataType) {
			types = append(types, l.DataType)
		}
	}
	return types
}

func (g *Graph) copy() *Graph {
	next := &Graph{nodes: make(map[string]*Node, g.Len()+1)}
	if g == nil {
		return next
	}
	for k, n := range g.nodes {
		next.nodes[k] = n
	}
	return next
}

func contains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}
