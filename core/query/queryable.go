// Package query defines the capability interface the translation engine
// composes queries against, and the builder that applies recognized clauses
// and criteria to it in a fixed order. Backends (in-memory, SQL) implement
// Queryable with deferred semantics: no work happens until Execute.
package query

import (
	"context"

	"github.com/asaidimu/go-autoquery/core/clause"
	"github.com/asaidimu/go-autoquery/core/criteria"
	"github.com/asaidimu/go-autoquery/core/profile"
	"github.com/asaidimu/go-autoquery/core/schema"
)

// ProjectedColumn pairs a canonical schema column with the output key it is
// returned under, per the profile's naming convention.
type ProjectedColumn struct {
	Name  string
	Alias string
}

// Projections builds the projection list for a set of canonical columns.
func Projections(columns []string, p *profile.Profile) []ProjectedColumn {
	projected := make([]ProjectedColumn, 0, len(columns))
	for _, column := range columns {
		projected = append(projected, ProjectedColumn{Name: column, Alias: p.OutputColumn(column)})
	}
	return projected
}

// Queryable is a lazily-evaluated, schema-described sequence of documents.
// Every operation returns a new Queryable describing the extended plan; the
// receiver is never mutated, so intermediate values can be snapshotted (the
// builder relies on this for the total-count side query). Execution,
// cancellation and timeouts belong to Execute alone.
type Queryable interface {
	// Filter restricts the sequence to documents matching every criteria
	// (AND semantics).
	Filter(criterias []*criteria.Criteria) Queryable
	// GroupBy groups the sequence by the given columns.
	GroupBy(columns []string) Queryable
	// OrderBy sorts by each (column, direction) pair in the order listed.
	OrderBy(orderings []clause.Ordering) Queryable
	// Project restricts output documents to the given columns, renaming
	// them to their output aliases.
	Project(columns []ProjectedColumn) Queryable
	// Distinct removes duplicate documents.
	Distinct() Queryable
	// Skip drops the first n documents.
	Skip(n int) Queryable
	// Take bounds the sequence to at most n documents.
	Take(n int) Queryable
	// Count collapses the plan to a count-only query.
	Count() Queryable
	// Execute materializes the plan.
	Execute(ctx context.Context) (*Result, error)
}

// Result is the materialized outcome of a query: the documents, or for a
// count-only plan, the matching row count.
type Result struct {
	Data  []schema.Document `json:"data,omitempty"`
	Count *int64            `json:"count,omitempty"`
}
