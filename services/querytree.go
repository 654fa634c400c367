package services

import (
	"github.com/pkg/errors"

	"viz-query-service/models"
)

// ErrNodeNotFound is returned when a node id is not in the registry.
var ErrNodeNotFound = errors.New("node not found")

// NodeRegistry resolves node ids.
type NodeRegistry interface {
	NodeByID(id string) (*models.Node, bool)
}

// BuildQueryTrees returns one tree per leaf reachable from rootID, in child order.
// Each tree starts at the leaf and ends at the root. The graph must be acyclic.
func BuildQueryTrees(reg NodeRegistry, rootID string) ([]models.QueryTree, error) {
	if reg == nil {
		return nil, errors.Wrapf(ErrNodeNotFound, "no registry to resolve %q", rootID)
	}
	root, ok := reg.NodeByID(rootID)
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "build query trees of %q", rootID)
	}
	if root.IsLeaf() {
		return []models.QueryTree{{root}}, nil
	}
	var trees []models.QueryTree
	for _, childID := range root.Children {
		sub, err := BuildQueryTrees(reg, childID)
		if err != nil {
			return nil, err
		}
		for _, tree := range sub {
			if len(tree) == 0 {
				continue
			}
			trees = append(trees, append(tree, root))
		}
	}
	return trees, nil
}
