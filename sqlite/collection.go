package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/asaidimu/go-autoquery/core/clause"
	"github.com/asaidimu/go-autoquery/core/criteria"
	"github.com/asaidimu/go-autoquery/core/query"
	"github.com/asaidimu/go-autoquery/core/schema"
)

// queryPlan is the deferred operation set recorded by a Collection. Each
// Queryable operation replaces a field wholesale, so plans can be shared
// between snapshots without copying.
type queryPlan struct {
	criterias  []*criteria.Criteria
	groupBy    []string
	orderBy    []clause.Ordering
	projection []query.ProjectedColumn
	distinct   bool
	skip       *int
	take       *int
	countOnly  bool
}

// Collection is a SQLite-backed queryable. Operations only record the plan;
// SQL is generated and executed on Execute.
type Collection struct {
	db        *sql.DB
	schema    *schema.Definition
	generator *Generator
	logger    *zap.Logger
	plan      queryPlan
}

var _ query.Queryable = (*Collection)(nil)

// NewCollection creates a queryable over the table described by the schema.
func NewCollection(db *sql.DB, s *schema.Definition, logger *zap.Logger) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle cannot be nil")
	}
	generator, err := NewGenerator(s)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection{db: db, schema: s, generator: generator, logger: logger}, nil
}

func (c *Collection) with(mutate func(p *queryPlan)) *Collection {
	next := *c
	mutate(&next.plan)
	return &next
}

// Filter restricts the sequence to rows matching every criteria.
func (c *Collection) Filter(criterias []*criteria.Criteria) query.Queryable {
	return c.with(func(p *queryPlan) { p.criterias = criterias })
}

// GroupBy groups the rows by the given columns.
func (c *Collection) GroupBy(columns []string) query.Queryable {
	return c.with(func(p *queryPlan) { p.groupBy = columns })
}

// OrderBy sorts by each (column, direction) pair in the order listed.
func (c *Collection) OrderBy(orderings []clause.Ordering) query.Queryable {
	return c.with(func(p *queryPlan) { p.orderBy = orderings })
}

// Project restricts output rows to the given columns.
func (c *Collection) Project(columns []query.ProjectedColumn) query.Queryable {
	return c.with(func(p *queryPlan) { p.projection = columns })
}

// Distinct removes duplicate rows.
func (c *Collection) Distinct() query.Queryable {
	return c.with(func(p *queryPlan) { p.distinct = true })
}

// Skip drops the first n rows.
func (c *Collection) Skip(n int) query.Queryable {
	return c.with(func(p *queryPlan) { p.skip = &n })
}

// Take bounds the result to at most n rows.
func (c *Collection) Take(n int) query.Queryable {
	return c.with(func(p *queryPlan) { p.take = &n })
}

// Count collapses the plan to a count-only query.
func (c *Collection) Count() query.Queryable {
	return c.with(func(p *queryPlan) { p.countOnly = true })
}

// Execute generates the SQL for the recorded plan and runs it.
func (c *Collection) Execute(ctx context.Context) (*query.Result, error) {
	if c.plan.countOnly {
		sqlQuery, params, err := c.generator.GenerateCountSQL(c.plan)
		if err != nil {
			return nil, fmt.Errorf("failed to generate count SQL: %w", err)
		}
		c.logger.Debug("executing SQL COUNT", zap.String("sql", sqlQuery), zap.Any("params", params))

		var count int64
		if err := c.db.QueryRowContext(ctx, sqlQuery, params...).Scan(&count); err != nil {
			c.logger.Error("failed to execute COUNT query", zap.Error(err), zap.String("sql", sqlQuery))
			return nil, fmt.Errorf("failed to execute COUNT query: %w", err)
		}
		return &query.Result{Count: &count}, nil
	}

	sqlQuery, params, err := c.generator.GenerateSelectSQL(c.plan)
	if err != nil {
		return nil, fmt.Errorf("failed to generate SQL query: %w", err)
	}
	c.logger.Debug("executing SQL SELECT", zap.String("sql", sqlQuery), zap.Any("params", params))

	rows, err := c.db.QueryContext(ctx, sqlQuery, params...)
	if err != nil {
		c.logger.Error("failed to execute SELECT query", zap.Error(err), zap.String("sql", sqlQuery))
		return nil, fmt.Errorf("failed to execute SELECT query: %w", err)
	}
	defer rows.Close()

	docs, err := c.readRows(rows)
	if err != nil {
		return nil, err
	}
	return &query.Result{Data: docs}, nil
}

// columnTypes maps result-set column keys to their schema field types. When
// a projection is active the keys are output aliases.
func (c *Collection) columnTypes() map[string]schema.FieldType {
	types := make(map[string]schema.FieldType)
	if len(c.plan.projection) > 0 {
		for _, column := range c.plan.projection {
			if field := c.schema.ResolveField(column.Name); field != nil {
				types[column.Alias] = field.Type
			}
		}
		return types
	}
	for name, field := range c.schema.Fields {
		types[name] = field.Type
	}
	return types
}

// readRows scans all rows into documents, converting driver values to the
// schema's declared field types.
func (c *Collection) readRows(rows *sql.Rows) ([]schema.Document, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	types := c.columnTypes()

	var results []schema.Document
	for rows.Next() {
		row := make(schema.Document, len(columns))
		values := make([]any, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, col := range columns {
			val := values[i]
			if val == nil {
				row[col] = nil
				continue
			}
			ft, ok := types[col]
			if !ok {
				c.logger.Warn("column not found in schema, using raw value", zap.String("column", col))
				row[col] = val
				continue
			}
			row[col] = convertValue(ft, val)
		}
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error after scanning rows: %w", err)
	}
	return results, nil
}

// convertValue maps a raw driver value onto the declared field type.
func convertValue(ft schema.FieldType, val any) any {
	switch ft {
	case schema.FieldTypeBoolean:
		if intVal, ok := val.(int64); ok {
			return intVal != 0
		}
	case schema.FieldTypeString:
		if byteVal, ok := val.([]byte); ok {
			return string(byteVal)
		}
	case schema.FieldTypeInteger:
		if floatVal, ok := val.(float64); ok {
			return int64(floatVal)
		}
	case schema.FieldTypeNumber:
		if intVal, ok := val.(int64); ok {
			return float64(intVal)
		}
	case schema.FieldTypeObject, schema.FieldTypeArray:
		var raw []byte
		if byteVal, ok := val.([]byte); ok {
			raw = byteVal
		} else if strVal, ok := val.(string); ok {
			raw = []byte(strVal)
		}
		if raw != nil {
			var decoded any
			if err := json.Unmarshal(raw, &decoded); err == nil {
				return decoded
			}
		}
	}
	return val
}
