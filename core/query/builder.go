package query

import (
	"go.uber.org/zap"

	"github.com/asaidimu/go-autoquery/core/clause"
	"github.com/asaidimu/go-autoquery/core/criteria"
	"github.com/asaidimu/go-autoquery/core/profile"
)

// Builder composes the finalized clause values and criteria into a deferred
// query plan. The application order is fixed: filter, group-by, order-by,
// total-count snapshot, projection, pagination. The builder keeps no state
// across Build calls except the TotalCountQuery reference communicated back
// to the orchestrator.
type Builder struct {
	logger *zap.Logger

	// TotalCountQuery is the count-only snapshot of the query taken after
	// filtering and ordering but before projection and pagination. It is
	// populated only when the request asked for pagination.
	TotalCountQuery Queryable
}

// NewBuilder creates a query builder.
func NewBuilder(logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger}
}

// Build applies the clause values and criteria to the source queryable and
// returns the final deferred query. When pagination was requested the
// count query is exposed through TotalCountQuery; when the count flag was
// set the returned query itself is count-only.
func (b *Builder) Build(source Queryable, v *clause.Values, criterias []*criteria.Criteria, p *profile.Profile) Queryable {
	b.TotalCountQuery = nil

	q := source
	if len(criterias) > 0 {
		q = q.Filter(criterias)
	}
	if len(v.GroupBy) > 0 {
		q = q.GroupBy(v.GroupBy)
	}
	if len(v.OrderBy) > 0 {
		q = q.OrderBy(v.OrderBy)
	}

	// The count snapshot must be taken here: it reflects filters but never
	// projection or pagination.
	if v.Paged() {
		b.TotalCountQuery = q.Count()
	}
	if v.CountOnly {
		return q.Count()
	}

	if !p.UseBaseType && len(v.Select) > 0 {
		q = q.Project(Projections(v.Select, p))
	}
	if v.Distinct {
		q = q.Distinct()
	}
	if v.Skip != nil {
		q = q.Skip(*v.Skip)
	}
	if v.Top != nil {
		q = q.Take(p.ClampTake(*v.Top))
	}

	b.logger.Debug("built query plan",
		zap.Int("criteria", len(criterias)),
		zap.Strings("select", v.Select),
		zap.Bool("paged", v.Paged()))
	return q
}
