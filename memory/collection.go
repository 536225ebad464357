// Package memory provides an in-memory Queryable over a document slice. It
// is the reference execution engine: plans are recorded lazily and evaluated
// only on Execute, mirroring the deferred semantics of database-backed
// implementations.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/asaidimu/go-autoquery/core/clause"
	"github.com/asaidimu/go-autoquery/core/criteria"
	"github.com/asaidimu/go-autoquery/core/query"
	"github.com/asaidimu/go-autoquery/core/schema"
)

type step func(docs []schema.Document) ([]schema.Document, error)

// Collection is an immutable in-memory queryable. Every operation returns a
// new Collection with an extended plan; the source documents are shared and
// never mutated.
type Collection struct {
	schema    *schema.Definition
	docs      []schema.Document
	logger    *zap.Logger
	plan      []step
	countOnly bool
}

var _ query.Queryable = (*Collection)(nil)

// NewCollection creates an in-memory queryable over the given documents.
func NewCollection(s *schema.Definition, docs []schema.Document, logger *zap.Logger) *Collection {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection{schema: s, docs: docs, logger: logger}
}

// extend clones the collection with one more plan step. The plan slice is
// copied so snapshots taken mid-build stay independent.
func (c *Collection) extend(s step) *Collection {
	plan := make([]step, len(c.plan), len(c.plan)+1)
	copy(plan, c.plan)
	next := *c
	next.plan = append(plan, s)
	return &next
}

// Filter restricts the sequence to documents matching every criteria.
func (c *Collection) Filter(criterias []*criteria.Criteria) query.Queryable {
	return c.extend(func(docs []schema.Document) ([]schema.Document, error) {
		var filtered []schema.Document
		for _, doc := range docs {
			ok, err := matchesAll(doc, criterias)
			if err != nil {
				return nil, err
			}
			if ok {
				filtered = append(filtered, doc)
			}
		}
		return filtered, nil
	})
}

// GroupBy keeps the first document of each group key, in encounter order.
func (c *Collection) GroupBy(columns []string) query.Queryable {
	return c.extend(func(docs []schema.Document) ([]schema.Document, error) {
		seen := make(map[string]struct{})
		var grouped []schema.Document
		for _, doc := range docs {
			key := groupKey(doc, columns)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			grouped = append(grouped, doc)
		}
		return grouped, nil
	})
}

// OrderBy sorts by each (column, direction) pair in the order listed. The
// sort is stable so equal keys keep their prior order.
func (c *Collection) OrderBy(orderings []clause.Ordering) query.Queryable {
	return c.extend(func(docs []schema.Document) ([]schema.Document, error) {
		sorted := make([]schema.Document, len(docs))
		copy(sorted, docs)
		sort.SliceStable(sorted, func(i, j int) bool {
			for _, ordering := range orderings {
				cmp := compareValues(sorted[i][ordering.Column], sorted[j][ordering.Column])
				if cmp == 0 {
					continue
				}
				if ordering.Direction == clause.DirectionDesc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
		return sorted, nil
	})
}

// Project restricts each document to the projected columns, renamed to
// their output aliases.
func (c *Collection) Project(columns []query.ProjectedColumn) query.Queryable {
	return c.extend(func(docs []schema.Document) ([]schema.Document, error) {
		projected := make([]schema.Document, 0, len(docs))
		for _, doc := range docs {
			row := make(schema.Document, len(columns))
			for _, column := range columns {
				if value, ok := doc[column.Name]; ok {
					row[column.Alias] = value
				}
			}
			projected = append(projected, row)
		}
		return projected, nil
	})
}

// Distinct removes duplicate documents, keeping the first occurrence.
func (c *Collection) Distinct() query.Queryable {
	return c.extend(func(docs []schema.Document) ([]schema.Document, error) {
		seen := make(map[string]struct{})
		var unique []schema.Document
		for _, doc := range docs {
			key := documentKey(doc)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			unique = append(unique, doc)
		}
		return unique, nil
	})
}

// Skip drops the first n documents.
func (c *Collection) Skip(n int) query.Queryable {
	return c.extend(func(docs []schema.Document) ([]schema.Document, error) {
		if n >= len(docs) {
			return nil, nil
		}
		return docs[n:], nil
	})
}

// Take bounds the sequence to at most n documents.
func (c *Collection) Take(n int) query.Queryable {
	return c.extend(func(docs []schema.Document) ([]schema.Document, error) {
		if n < len(docs) {
			return docs[:n], nil
		}
		return docs, nil
	})
}

// Count collapses the plan to a count-only query.
func (c *Collection) Count() query.Queryable {
	next := *c
	plan := make([]step, len(c.plan))
	copy(plan, c.plan)
	next.plan = plan
	next.countOnly = true
	return &next
}

// Execute evaluates the recorded plan against the source documents.
func (c *Collection) Execute(ctx context.Context) (*query.Result, error) {
	docs := c.docs
	for _, s := range c.plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		docs, err = s(docs)
		if err != nil {
			return nil, err
		}
	}
	if c.countOnly {
		count := int64(len(docs))
		c.logger.Debug("executed count query", zap.Int64("count", count))
		return &query.Result{Count: &count}, nil
	}
	c.logger.Debug("executed query", zap.Int("rows", len(docs)))
	return &query.Result{Data: docs}, nil
}

func groupKey(doc schema.Document, columns []string) string {
	parts := make([]string, 0, len(columns))
	for _, column := range columns {
		parts = append(parts, fmt.Sprintf("%v", doc[column]))
	}
	return strings.Join(parts, "\x1f")
}

func documentKey(doc schema.Document) string {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", key, doc[key]))
	}
	return strings.Join(parts, "\x1f")
}
