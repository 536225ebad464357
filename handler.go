// Package autoquery translates HTTP query strings into structured, deferred
// queries against a schema-described collection. Given a record schema, a
// profile and a queryable source, the handler recognizes clause segments
// (select, filter, orderby, skip, top, page, groupby, distinct, count),
// parses filter criteria against the schema and composes a query plan plus,
// when pagination was requested, a separate total-count query.
package autoquery

import (
	"context"
	"fmt"
	"sync"

	"github.com/asaidimu/go-events"
	"go.uber.org/zap"

	"github.com/asaidimu/go-autoquery/core/clause"
	"github.com/asaidimu/go-autoquery/core/criteria"
	"github.com/asaidimu/go-autoquery/core/profile"
	"github.com/asaidimu/go-autoquery/core/query"
	"github.com/asaidimu/go-autoquery/core/schema"
)

// Plan is the outcome of translating one query string: the composed deferred
// query, the count query (nil unless pagination was requested), and the
// finalized clause values and criteria for inspection. The caller owns the
// plan; nothing executes until the queries are run.
type Plan struct {
	Query      query.Queryable
	CountQuery query.Queryable
	Values     *clause.Values
	Criterias  []*criteria.Criteria
}

// PagedResult is the envelope produced when a plan is executed: the
// materialized items plus pagination metadata when it was requested.
type PagedResult struct {
	Items      []schema.Document `json:"items"`
	TotalCount *int64            `json:"totalCount,omitempty"`
	Page       *int              `json:"page,omitempty"`
	PageSize   *int              `json:"pageSize,omitempty"`
}

// Handler drives query-string translation. It is stateless per request and
// safe for concurrent use; the clause registry and event bus it holds are
// immutable after construction.
type Handler struct {
	registry      *clause.Registry
	logger        *zap.Logger
	bus           *events.TypedEventBus[QueryEvent]
	subscriptions map[string]*SubscriptionInfo
	subMu         sync.RWMutex
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the handler's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a query-string translation handler.
func New(opts ...Option) (*Handler, error) {
	h := &Handler{
		logger:        zap.NewNop(),
		subscriptions: map[string]*SubscriptionInfo{},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.registry = clause.NewRegistry(h.logger)

	bus, err := events.NewTypedEventBus[QueryEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}
	h.bus = bus
	return h, nil
}

// Translate turns a raw query string into a query plan against the source.
// With no query string it short-circuits to the profile's bounded,
// column-restricted default query. Unrecognized clause keys and
// unresolvable filter segments are dropped silently; clause value coercion
// failures are returned as errors.
func (h *Handler) Translate(rawQuery string, s *schema.Definition, p *profile.Profile, source query.Queryable) (*Plan, error) {
	if p == nil {
		p = profile.Default()
	}

	result, err := h.withEventEmission(
		QueryTranslateStart,
		QueryTranslateSuccess,
		QueryTranslateFailed,
		s.Name,
		rawQuery,
		func() (any, error) {
			return h.translate(rawQuery, s, p, source)
		},
	)
	if err != nil {
		return nil, err
	}
	return result.(*Plan), nil
}

func (h *Handler) translate(rawQuery string, s *schema.Definition, p *profile.Profile, source query.Queryable) (*Plan, error) {
	segments := clause.ParseQueryString(rawQuery)
	if len(segments) == 0 {
		return h.defaultPlan(s, p, source), nil
	}

	values := &clause.Values{}
	values.SetDefaults(s, p)
	if err := h.registry.Extract(segments, values, s, p); err != nil {
		return nil, err
	}

	var criterias []*criteria.Criteria
	if p.IsClauseAllowed(string(clause.TypeFilter)) {
		criterias = criteria.NewParser(s, h.logger).GetCriterias(values.Filter, segments)
	}

	builder := query.NewBuilder(h.logger)
	plan := &Plan{
		Query:     builder.Build(source, values, criterias, p),
		Values:    values,
		Criterias: criterias,
	}
	if values.Paged() {
		plan.CountQuery = builder.TotalCountQuery
	}
	return plan, nil
}

// defaultPlan is the no-query-string path: take the profile's default page
// of the default selectable columns, with no filtering and no count query.
func (h *Handler) defaultPlan(s *schema.Definition, p *profile.Profile, source query.Queryable) *Plan {
	values := &clause.Values{}
	values.SetDefaults(s, p)

	q := source
	if !p.UseBaseType && len(values.Select) > 0 {
		q = q.Project(query.Projections(values.Select, p))
	}
	q = q.Take(p.ClampTake(p.DefaultToTake))
	return &Plan{Query: q, Values: values}
}

// Run translates and executes in one call, producing the paged envelope.
// The count query, when present, is executed after the main query.
func (h *Handler) Run(ctx context.Context, rawQuery string, s *schema.Definition, p *profile.Profile, source query.Queryable) (*PagedResult, error) {
	plan, err := h.Translate(rawQuery, s, p, source)
	if err != nil {
		return nil, err
	}
	result, err := h.ExecutePlan(ctx, plan, s.Name, rawQuery)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ExecutePlan materializes a plan and its count query into a PagedResult.
func (h *Handler) ExecutePlan(ctx context.Context, plan *Plan, schemaName, rawQuery string) (*PagedResult, error) {
	result, err := h.withEventEmission(
		QueryExecuteStart,
		QueryExecuteSuccess,
		QueryExecuteFailed,
		schemaName,
		rawQuery,
		func() (any, error) {
			return h.executePlan(ctx, plan)
		},
	)
	if err != nil {
		return nil, err
	}
	return result.(*PagedResult), nil
}

func (h *Handler) executePlan(ctx context.Context, plan *Plan) (*PagedResult, error) {
	result, err := plan.Query.Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	envelope := &PagedResult{Items: result.Data}
	if result.Count != nil {
		// Count-only queries surface their count directly.
		envelope.TotalCount = result.Count
	}

	if plan.CountQuery != nil {
		countResult, err := plan.CountQuery.Execute(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to execute count query: %w", err)
		}
		envelope.TotalCount = countResult.Count
	}

	if plan.Values != nil {
		envelope.Page = plan.Values.Page
		envelope.PageSize = plan.Values.Top
	}
	return envelope, nil
}
