package services

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"viz-query-service/logger"
	"viz-query-service/models"
)

// DashboardConfig wires a Dashboard.
type DashboardConfig struct {
	Schema     *models.SchemaTable
	Transport  Transport
	Resolver   EndpointResolver
	Hooks      ViewHooks
	Overlap    OverlapChecker
	NestedPath string
	JoinKey    string
	// FieldMappings are the backend mappings of the queried indices, used to
	// shape facet aggregations. Facets are taken as given when empty.
	FieldMappings map[string]models.FieldMapping
	// Registerer receives the service metrics, nothing is registered when nil.
	Registerer prometheus.Registerer
}

// Dashboard owns the node graph, the facades and the query pipeline of one dashboard.
type Dashboard struct {
	mu     sync.RWMutex
	graph    *models.Graph
	schema   *models.SchemaTable
	mappings map[string]models.FieldMapping

	facades  *FacadeStore
	builder  *QueryBuilder
	executor *Executor
	resolver EndpointResolver
	hooks    ViewHooks
	log      *logger.Logger
}

// NewDashboard returns an empty dashboard.
func NewDashboard(cfg DashboardConfig) *Dashboard {
	d := &Dashboard{
		graph:    models.NewGraph(),
		schema:   cfg.Schema,
		mappings: cfg.FieldMappings,
		resolver: cfg.Resolver,
		hooks:    cfg.Hooks,
		log:      logger.GetLogger("dashboard"),
	}
	if d.schema == nil {
		d.schema = &models.SchemaTable{}
	}
	if d.hooks == nil {
		d.hooks = NopHooks{}
	}
	m := newMetrics(cfg.Registerer)
	d.facades = NewFacadeStore(d.hooks)
	d.facades.metrics = m
	overlap := cfg.Overlap
	if overlap == nil {
		overlap = GraphOverlap{Nodes: d}
	}
	d.builder = NewQueryBuilder(QueryBuilderConfig{
		Nodes:      d,
		Schema:     d.schema,
		Facades:    d.facades,
		Overlap:    overlap,
		Hooks:      d.hooks,
		NestedPath: cfg.NestedPath,
		JoinKey:    cfg.JoinKey,
	})
	if cfg.Transport != nil {
		d.executor = NewExecutor(cfg.Transport, cfg.Resolver)
		d.executor.metrics = m
	}
	return d
}

// NodeByID implements NodeRegistry on the current graph snapshot.
func (d *Dashboard) NodeByID(id string) (*models.Node, bool) {
	return d.Graph().NodeByID(id)
}

// Graph returns the current graph snapshot.
func (d *Dashboard) Graph() *models.Graph {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.graph
}

// Schema returns the schema table.
func (d *Dashboard) Schema() *models.SchemaTable {
	return d.schema
}

// BaseQuery returns a document skeleton carrying facet aggregations shaped by
// the dashboard's field mappings.
func (d *Dashboard) BaseQuery(size int, facets []models.FacetInfo) models.Query {
	return BaseQuery(size, facets, d.mappings)
}

// Indices lists the indices views are queried on, nil with a custom resolver.
func (d *Dashboard) Indices() []models.DataIndex {
	if r, ok := d.resolver.(IndexResolver); ok {
		return r.DataIndices()
	}
	return nil
}

// Facades returns the facade store.
func (d *Dashboard) Facades() *FacadeStore {
	return d.facades
}

// Builder returns the query builder.
func (d *Dashboard) Builder() *QueryBuilder {
	return d.builder
}

// PutNode adds or replaces a node.
func (d *Dashboard) PutNode(node models.Node) error {
	if node.ID == "" {
		return errors.New("node needs an id")
	}
	d.mu.Lock()
	d.graph = d.graph.With(node)
	d.mu.Unlock()
	return nil
}

// RemoveNode deletes a node, unlinks it from its parents and drops the facades it exported.
func (d *Dashboard) RemoveNode(id string) error {
	d.mu.Lock()
	if _, ok := d.graph.NodeByID(id); !ok {
		d.mu.Unlock()
		return errors.Wrapf(ErrNodeNotFound, "remove %q", id)
	}
	d.graph = d.graph.Without(id)
	d.mu.Unlock()
	if n := d.facades.RemoveByOrigin(id); n > 0 {
		d.log.Info().Str("view", id).Int("facades", n).Msg("dropped facades of removed view")
	}
	return nil
}

// Trees returns the query trees of a view on the current snapshot.
func (d *Dashboard) Trees(viewID string) ([]models.QueryTree, error) {
	return BuildQueryTrees(d.Graph(), viewID)
}

// QueryRequest describes one query of a view.
type QueryRequest struct {
	Base       []models.Query
	Facades    []*models.Facade
	Overrides  map[string][]string
	SkipFacade bool
	Endpoint   string
	// TriggeredByFacade tells the view the query reacts to a facade change.
	TriggeredByFacade bool
}

// Assemble builds the query documents of a view without sending them.
func (d *Dashboard) Assemble(viewID string, req QueryRequest) ([]models.QueryTree, Assembly, error) {
	g := d.Graph()
	trees, err := BuildQueryTrees(g, viewID)
	if err != nil {
		return nil, Assembly{}, err
	}
	assembly, err := d.builder.AddQueryFiltersAndRanges(AssembleRequest{
		ViewID:     viewID,
		Trees:      trees,
		Base:       req.Base,
		Facades:    req.Facades,
		Overrides:  req.Overrides,
		SkipFacade: req.SkipFacade,
		Nodes:      g,
	})
	return trees, assembly, err
}

// QueryView assembles and sends the queries of view. A disabled view sends
// nothing and gets a nil batch.
func (d *Dashboard) QueryView(ctx context.Context, view View, req QueryRequest) (*Batch, Assembly, error) {
	if d.executor == nil {
		return nil, Assembly{}, errors.New("dashboard has no transport")
	}
	trees, assembly, err := d.Assemble(view.ID(), req)
	if err != nil {
		return nil, assembly, err
	}
	if assembly.Disabled {
		return nil, assembly, nil
	}
	batch, err := d.executor.MakeQueries(ctx, view, trees, assembly.Queries, req.Endpoint, req.TriggeredByFacade)
	return batch, assembly, err
}

// ApplyFacade adds a facade using the facade mode of its origin view's type.
func (d *Dashboard) ApplyFacade(f *models.Facade) error {
	if f == nil {
		return errors.Wrap(ErrInvalidFacade, "nil facade")
	}
	origin, ok := d.NodeByID(f.ViewID)
	if !ok {
		return errors.Wrapf(ErrNodeNotFound, "facade origin %q", f.ViewID)
	}
	return d.facades.Add(f, d.schema.FacadeModeOf(origin.Type))
}

// RemoveFacade drops one facade.
func (d *Dashboard) RemoveFacade(id string) bool {
	return d.facades.RemoveByID(id)
}

// ResetFacades drops every facade.
func (d *Dashboard) ResetFacades() {
	d.facades.Reset()
}
