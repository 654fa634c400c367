package services

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"viz-query-service/logger"
	"viz-query-service/models"
)

// NoDataMessage is shown by a view whose query failed.
const NoDataMessage = "No Data"

// ErrQueryMismatch is returned when trees and query documents do not pair up.
var ErrQueryMismatch = errors.New("query trees and query documents differ in number")

// Transport sends one query document to an endpoint of the search backend.
type Transport interface {
	Search(ctx context.Context, endpoint string, body models.Query) (map[string]interface{}, error)
}

// View receives the outcome of a query batch. OnError calls of one batch are
// serialized, Render is called once per completed batch.
type View interface {
	ID() string
	Render(responses []Response, triggeredByFacade bool)
	OnError(message string)
}

// Response is the backend answer for one query tree.
type Response struct {
	TreeIndex    int                      `json:"tree_index"`
	Body         map[string]interface{}   `json:"-"`
	Aggregations models.AggregationResult `json:"aggregations,omitempty"`
	Err          error                    `json:"-"`
}

// EndpointResolver picks the endpoint of a tree when the caller names none.
type EndpointResolver interface {
	Endpoint(tree models.QueryTree) string
}

// IndexResolver resolves a tree to the read alias of the index holding its data type.
type IndexResolver struct {
	Indices map[string]string
	Default string
	// ReadAlias targets the index read alias instead of the index itself.
	ReadAlias bool
}

// Endpoint implements EndpointResolver.
func (r IndexResolver) Endpoint(tree models.QueryTree) string {
	dataType := tree.DataType()
	idx, ok := r.Indices[dataType]
	if !ok || idx == "" {
		return r.Default
	}
	return models.NewDataIndex(dataType, idx).SearchTarget(r.ReadAlias)
}

// DataIndices lists the configured indices in data type order.
func (r IndexResolver) DataIndices() []models.DataIndex {
	out := make([]models.DataIndex, 0, len(r.Indices))
	for _, dataType := range models.SortedKeys(r.Indices) {
		out = append(out, models.NewDataIndex(dataType, r.Indices[dataType]))
	}
	return out
}

// Executor dispatches query documents and joins the responses per view.
type Executor struct {
	transport Transport
	resolver  EndpointResolver
	log       *logger.Logger
	metrics   *metrics

	mu          sync.Mutex
	generations map[string]uint64
}

// NewExecutor returns an executor sending through transport.
func NewExecutor(transport Transport, resolver EndpointResolver) *Executor {
	if resolver == nil {
		resolver = IndexResolver{}
	}
	return &Executor{
		transport:   transport,
		resolver:    resolver,
		log:         logger.GetLogger("executor"),
		metrics:     newMetrics(nil),
		generations: make(map[string]uint64),
	}
}

// Batch tracks one MakeQueries call.
type Batch struct {
	done       chan struct{}
	mu         sync.Mutex
	responses  []Response
	superseded bool
}

// Done is closed once every response is recorded.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch completes or ctx ends.
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Responses returns the recorded responses in tree order. Valid after Done.
func (b *Batch) Responses() []Response {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Response(nil), b.responses...)
}

// Superseded reports whether a newer batch for the same view replaced this one.
func (b *Batch) Superseded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.superseded
}

// MakeQueries sends queries[i] for trees[i] concurrently. When every slot is
// recorded the view renders the full set once, unless a newer batch was started
// for the same view in the meantime. A failed slot is logged, shown on the view
// as NoDataMessage and recorded with its error.
func (e *Executor) MakeQueries(ctx context.Context, view View, trees []models.QueryTree, queries []models.Query, endpoint string, triggeredByFacade bool) (*Batch, error) {
	if trees != nil && len(trees) != len(queries) {
		return nil, errors.Wrapf(ErrQueryMismatch, "%d trees, %d queries", len(trees), len(queries))
	}
	gen := e.nextGeneration(view.ID())
	batch := &Batch{
		done:      make(chan struct{}),
		responses: make([]Response, len(queries)),
	}

	// slots keep their own errors, so no query cancels its siblings
	var g errgroup.Group
	for i := range queries {
		i := i
		target := endpoint
		if target == "" {
			var tree models.QueryTree
			if trees != nil {
				tree = trees[i]
			}
			target = e.resolver.Endpoint(tree)
		}
		e.metrics.dispatched.WithLabelValues(view.ID()).Inc()
		g.Go(func() error {
			e.dispatch(ctx, view, batch, i, target, queries[i])
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		e.complete(view, gen, batch, triggeredByFacade)
	}()
	return batch, nil
}

// MakeQuery sends a single query document for view.
func (e *Executor) MakeQuery(ctx context.Context, view View, query models.Query, endpoint string) (*Batch, error) {
	return e.MakeQueries(ctx, view, nil, []models.Query{query}, endpoint, false)
}

func (e *Executor) dispatch(ctx context.Context, view View, batch *Batch, i int, endpoint string, query models.Query) {
	resp := Response{TreeIndex: i}
	body, err := e.transport.Search(ctx, endpoint, query)
	if err == nil {
		resp.Body = body
		resp.Aggregations, err = ParseAggregations(body)
	}

	batch.mu.Lock()
	defer batch.mu.Unlock()
	if err != nil {
		resp.Err = err
		e.metrics.failed.WithLabelValues(view.ID()).Inc()
		e.log.Error().Err(err).Str("view", view.ID()).Int("tree", i).Str("endpoint", endpoint).Msg("query failed")
		view.OnError(NoDataMessage)
	}
	batch.responses[i] = resp
}

func (e *Executor) complete(view View, gen uint64, batch *Batch, triggeredByFacade bool) {
	defer close(batch.done)
	if e.currentGeneration(view.ID()) != gen {
		batch.mu.Lock()
		batch.superseded = true
		batch.mu.Unlock()
		e.metrics.discarded.Inc()
		e.log.Debug().Str("view", view.ID()).Uint64("generation", gen).Msg("dropping superseded responses")
		return
	}
	view.Render(batch.Responses(), triggeredByFacade)
}

func (e *Executor) nextGeneration(viewID string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generations[viewID]++
	return e.generations[viewID]
}

func (e *Executor) currentGeneration(viewID string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generations[viewID]
}
