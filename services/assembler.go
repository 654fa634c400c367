package services

import (
	"strings"

	"github.com/pkg/errors"

	"viz-query-service/logger"
	"viz-query-service/models"
)

var (
	// ErrBaseQueryMismatch is returned when per-tree base queries do not line up with the trees.
	ErrBaseQueryMismatch = errors.New("base queries do not match query trees")
	// ErrTreeIndexOutOfRange is returned when a facade selects a tree its origin view lacks.
	ErrTreeIndexOutOfRange = errors.New("query tree index out of range")
)

// QueryBuilderConfig wires a QueryBuilder to its collaborators.
type QueryBuilderConfig struct {
	Nodes   NodeRegistry
	Schema  *models.SchemaTable
	Facades *FacadeStore
	Overlap OverlapChecker
	Hooks   ViewHooks
	// NestedPath addresses nested records when facade and tree data types differ.
	NestedPath string
	JoinKey    string
}

// QueryBuilder turns query trees into query documents.
type QueryBuilder struct {
	nodes      NodeRegistry
	schema     *models.SchemaTable
	facades    *FacadeStore
	overlap    OverlapChecker
	hooks      ViewHooks
	nestedPath string
	joinKey    string
	log        *logger.Logger
}

// NewQueryBuilder returns a builder. Missing collaborators fall back to an
// empty schema, graph based overlap and no-op hooks.
func NewQueryBuilder(cfg QueryBuilderConfig) *QueryBuilder {
	b := &QueryBuilder{
		nodes:      cfg.Nodes,
		schema:     cfg.Schema,
		facades:    cfg.Facades,
		overlap:    cfg.Overlap,
		hooks:      cfg.Hooks,
		nestedPath: cfg.NestedPath,
		joinKey:    cfg.JoinKey,
		log:        logger.GetLogger("builder"),
	}
	if b.schema == nil {
		b.schema = &models.SchemaTable{}
	}
	if b.overlap == nil {
		b.overlap = GraphOverlap{Nodes: cfg.Nodes}
	}
	if b.hooks == nil {
		b.hooks = NopHooks{}
	}
	if b.nestedPath == "" {
		b.nestedPath = "nested"
	}
	return b
}

// AssembleRequest is the input of AddQueryFiltersAndRanges.
type AssembleRequest struct {
	// ViewID is the invoking view, the root of the trees when empty.
	ViewID string
	Trees  []models.QueryTree
	// Base holds one skeleton shared by all trees or one per tree.
	Base []models.Query
	// Facades overrides the store's facades when non-nil.
	Facades []*models.Facade
	// Overrides pins the values of an ESID regardless of the node filters.
	Overrides  map[string][]string
	SkipFacade bool
	// Nodes is the graph snapshot the trees were built from. Facade origins
	// resolve through it so one request never mixes two snapshots.
	Nodes NodeRegistry
}

// Assembly is one query document per tree, in tree order.
type Assembly struct {
	Queries []models.Query
	// Disabled is set when the view shares no data with the facade origin.
	Disabled bool
}

// AddQueryFiltersAndRanges builds the finished query document of every tree.
func (b *QueryBuilder) AddQueryFiltersAndRanges(req AssembleRequest) (Assembly, error) {
	if len(req.Base) > 1 && len(req.Base) != len(req.Trees) {
		return Assembly{}, errors.Wrapf(ErrBaseQueryMismatch, "%d base queries for %d trees", len(req.Base), len(req.Trees))
	}
	viewID := req.ViewID
	if viewID == "" && len(req.Trees) > 0 {
		if root := req.Trees[0].Root(); root != nil {
			viewID = root.ID
		}
	}
	nodes := b.nodes
	if req.Nodes != nil {
		nodes = req.Nodes
	}
	var active []*models.Facade
	disabled := false
	if !req.SkipFacade {
		active, disabled = b.activeFacades(nodes, viewID, req.Facades)
	}

	out := Assembly{Queries: make([]models.Query, len(req.Trees)), Disabled: disabled}
	for i, tree := range req.Trees {
		doc := models.NewQueryDocument(0)
		switch {
		case len(req.Base) == 1 && req.Base[0] != nil:
			doc = models.CloneQuery(req.Base[0])
		case len(req.Base) > 1 && req.Base[i] != nil:
			doc = models.CloneQuery(req.Base[i])
		}
		must := append([]interface{}{}, models.MustClauses(doc)...)
		must = append(must, b.treeClauses(tree, req.Overrides)...)
		if len(active) > 0 {
			outer, merged := b.facadeClauses(nodes, tree, active)
			must = append(must, outer...)
			if merged != nil {
				must = append(must, merged)
			}
		}
		models.SetMustClauses(doc, must)
		out.Queries[i] = doc
	}
	return out, nil
}

// overlapOn returns the overlap checker bound to nodes. Only graph based
// checkers are rebound; custom ones are used as configured.
func (b *QueryBuilder) overlapOn(nodes NodeRegistry) OverlapChecker {
	if _, ok := b.overlap.(GraphOverlap); ok && nodes != nil {
		return GraphOverlap{Nodes: nodes}
	}
	return b.overlap
}

// treeClauses converts the aggregated filters of a tree to must clauses.
// An overridden ESID contributes only its override.
func (b *QueryBuilder) treeClauses(tree models.QueryTree, overrides map[string][]string) []interface{} {
	agg := CollectFiltersAndRanges(tree, b.schema.Resolve(tree))
	pinned := pinnedESIDs(overrides)
	var must []interface{}
	for _, key := range agg.FilterKeys() {
		fv := agg.Filters[key]
		if pinned[esidKey(fv.ESID)] {
			continue
		}
		must = append(must, filterClause(fv.ESID, fv.FieldValues, fv.Operators))
	}
	for _, esid := range agg.RangeKeys() {
		if pinned[esid] {
			continue
		}
		must = append(must, rangeClause(esid, agg.Ranges[esid]))
	}
	must = append(must, agg.MustFilters...)
	for _, esid := range models.SortedKeys(overrides) {
		must = append(must, filterClause(esidKey(esid), overrides[esid], nil))
	}
	return must
}

// filterClause matches values on esid, expanding composite ESIDs.
func filterClause(esid string, values, operators []string) models.Query {
	if esids := splitESID(esid); len(esids) > 1 {
		return compositeClause(esids, values, operators)
	}
	return termsClause(esid, values)
}

// pinnedESIDs returns the ESIDs an override takes over. A composite override
// also pins each of its components.
func pinnedESIDs(overrides map[string][]string) map[string]bool {
	pinned := make(map[string]bool, len(overrides))
	for esid := range overrides {
		parts := splitESID(esid)
		pinned[strings.Join(parts, ",")] = true
		for _, p := range parts {
			pinned[p] = true
		}
	}
	return pinned
}

func esidKey(esid string) string {
	return strings.Join(splitESID(esid), ",")
}
