// Package sqlite provides a SQL-backed Queryable for SQLite databases. The
// recorded query plan is translated into a single parameterized SELECT (or
// COUNT) statement and executed over database/sql.
package sqlite

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-autoquery/core/criteria"
	"github.com/asaidimu/go-autoquery/core/schema"
)

// Generator is a schema-aware SQL generator. It translates resolved column
// paths into valid SQLite accessors, including json_extract for nested
// object fields and json_each scans for collection navigation.
type Generator struct {
	schema *schema.Definition
}

// NewGenerator creates a generator for one record schema.
func NewGenerator(s *schema.Definition) (*Generator, error) {
	if s == nil {
		return nil, fmt.Errorf("schema definition cannot be nil")
	}
	if s.Name == "" {
		return nil, fmt.Errorf("schema must define a table name")
	}
	return &Generator{schema: s}, nil
}

// quoteIdentifier properly quotes an identifier for SQLite.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// GenerateSelectSQL creates a complete SELECT statement and its parameters
// from a recorded query plan.
func (g *Generator) GenerateSelectSQL(p queryPlan) (string, []any, error) {
	var params []any

	selectFields := []string{"*"}
	if len(p.projection) > 0 {
		selectFields = make([]string, 0, len(p.projection))
		for _, column := range p.projection {
			if g.schema.ResolveField(column.Name) == nil {
				return "", nil, fmt.Errorf("projection error: field %q not found in schema", column.Name)
			}
			selectFields = append(selectFields,
				fmt.Sprintf("%s AS %s", quoteIdentifier(column.Name), quoteIdentifier(column.Alias)))
		}
	}

	distinct := ""
	if p.distinct {
		distinct = "DISTINCT "
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("SELECT %s%s FROM %s", distinct, strings.Join(selectFields, ", "), quoteIdentifier(g.schema.Name)))

	whereSQL, err := g.buildWhere(p.criterias, &params)
	if err != nil {
		return "", nil, err
	}
	if whereSQL != "" {
		sb.WriteString(" WHERE " + whereSQL)
	}

	if len(p.groupBy) > 0 {
		grouped := make([]string, 0, len(p.groupBy))
		for _, column := range p.groupBy {
			grouped = append(grouped, quoteIdentifier(column))
		}
		sb.WriteString(" GROUP BY " + strings.Join(grouped, ", "))
	}

	if len(p.orderBy) > 0 {
		ordered := make([]string, 0, len(p.orderBy))
		for _, ordering := range p.orderBy {
			ordered = append(ordered, fmt.Sprintf("%s %s",
				quoteIdentifier(ordering.Column), strings.ToUpper(string(ordering.Direction))))
		}
		sb.WriteString(" ORDER BY " + strings.Join(ordered, ", "))
	}

	switch {
	case p.take != nil:
		sb.WriteString(fmt.Sprintf(" LIMIT %d", *p.take))
		if p.skip != nil && *p.skip > 0 {
			sb.WriteString(fmt.Sprintf(" OFFSET %d", *p.skip))
		}
	case p.skip != nil && *p.skip > 0:
		// SQLite requires a LIMIT clause before OFFSET.
		sb.WriteString(fmt.Sprintf(" LIMIT -1 OFFSET %d", *p.skip))
	}

	return sb.String() + ";", params, nil
}

// GenerateCountSQL creates the count statement for a plan: it reflects the
// plan's filters and grouping but never its projection or pagination. A
// grouped plan counts groups, not rows, so the grouped query is wrapped in
// an outer COUNT.
func (g *Generator) GenerateCountSQL(p queryPlan) (string, []any, error) {
	var params []any
	whereSQL, err := g.buildWhere(p.criterias, &params)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	if len(p.groupBy) > 0 {
		grouped := make([]string, 0, len(p.groupBy))
		for _, column := range p.groupBy {
			grouped = append(grouped, quoteIdentifier(column))
		}
		sb.WriteString(fmt.Sprintf("SELECT COUNT(*) FROM (SELECT 1 FROM %s", quoteIdentifier(g.schema.Name)))
		if whereSQL != "" {
			sb.WriteString(" WHERE " + whereSQL)
		}
		sb.WriteString(" GROUP BY " + strings.Join(grouped, ", ") + ")")
		return sb.String() + ";", params, nil
	}

	sb.WriteString(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdentifier(g.schema.Name)))
	if whereSQL != "" {
		sb.WriteString(" WHERE " + whereSQL)
	}
	return sb.String() + ";", params, nil
}

// buildWhere joins every criteria as a conjunction.
func (g *Generator) buildWhere(criterias []*criteria.Criteria, params *[]any) (string, error) {
	if len(criterias) == 0 {
		return "", nil
	}
	conditions := make([]string, 0, len(criterias))
	for _, c := range criterias {
		condition, err := g.buildCondition(c, params)
		if err != nil {
			return "", err
		}
		conditions = append(conditions, condition)
	}
	return strings.Join(conditions, " AND "), nil
}

// buildCondition translates one criteria into a SQL condition. A column
// path through an array field becomes an EXISTS scan over json_each; a path
// through an object field becomes a json_extract accessor. A leaf-level
// array field is also scanned element-wise, so the condition matches when
// ANY element does.
func (g *Generator) buildCondition(c *criteria.Criteria, params *[]any) (string, error) {
	root := g.schema.ResolveField(c.ColumnPath[0])
	if root == nil {
		return "", fmt.Errorf("field %q not found in schema", c.ColumnPath[0])
	}

	if len(c.ColumnPath) == 1 {
		if root.Type == schema.FieldTypeArray {
			inner, err := g.conditionSQL("json_each.value", c, params)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE %s)",
				quoteIdentifier(root.Name), inner), nil
		}
		return g.conditionSQL(quoteIdentifier(root.Name), c, params)
	}

	rest := strings.Join(c.ColumnPath[1:], ".")
	switch root.Type {
	case schema.FieldTypeArray:
		accessor := fmt.Sprintf("json_extract(json_each.value, '$.%s')", rest)
		inner, err := g.conditionSQL(accessor, c, params)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("EXISTS (SELECT 1 FROM json_each(%s) WHERE %s)",
			quoteIdentifier(root.Name), inner), nil
	case schema.FieldTypeObject:
		accessor := fmt.Sprintf("json_extract(%s, '$.%s')", quoteIdentifier(root.Name), rest)
		return g.conditionSQL(accessor, c, params)
	default:
		return "", fmt.Errorf("field %q of type %s does not support nested querying", root.Name, root.Type)
	}
}

// Sentinel conditions for filters whose literals cannot be coerced to the
// column type: such comparisons never match (inequality always matches),
// mirroring the in-memory engine instead of failing the request.
const (
	neverMatch  = "1 = 0"
	alwaysMatch = "1 = 1"
)

// operandType is the type filter literals coerce to: the element type when
// the leaf itself is a collection.
func operandType(leaf *schema.FieldDefinition) schema.FieldType {
	if leaf.Type == schema.FieldTypeArray && leaf.Items != nil {
		return leaf.Items.Type
	}
	return leaf.Type
}

// conditionSQL emits the comparison for one operator, parsing each literal
// operand according to the leaf field's declared type. Unparseable literals
// are dropped rather than propagated as errors.
func (g *Generator) conditionSQL(accessor string, c *criteria.Criteria, params *[]any) (string, error) {
	op := c.Filter.Operator

	if op == criteria.OperatorIsNull {
		return fmt.Sprintf("%s IS NULL", accessor), nil
	}
	if len(c.Values) == 0 {
		return "", fmt.Errorf("operator %s requires at least one operand", op)
	}

	switch op {
	case criteria.OperatorContains:
		*params = append(*params, "%"+c.Values[0]+"%")
		return fmt.Sprintf("%s LIKE ?", accessor), nil
	case criteria.OperatorStartsWith:
		*params = append(*params, c.Values[0]+"%")
		return fmt.Sprintf("%s LIKE ?", accessor), nil
	case criteria.OperatorEndsWith:
		*params = append(*params, "%"+c.Values[0])
		return fmt.Sprintf("%s LIKE ?", accessor), nil
	}

	ft := operandType(c.Leaf)

	switch op {
	case criteria.OperatorEquals, criteria.OperatorIn, criteria.OperatorNotEquals:
		typedValues := make([]any, 0, len(c.Values))
		for _, raw := range c.Values {
			typed, err := schema.ParseLiteral(ft, raw)
			if err != nil {
				continue
			}
			typedValues = append(typedValues, prepareValue(typed))
		}
		if op == criteria.OperatorNotEquals {
			if len(typedValues) == 0 {
				return alwaysMatch, nil
			}
			if len(typedValues) > 1 {
				placeholders := strings.Repeat("?,", len(typedValues)-1) + "?"
				*params = append(*params, typedValues...)
				return fmt.Sprintf("%s NOT IN (%s)", accessor, placeholders), nil
			}
			*params = append(*params, typedValues[0])
			return fmt.Sprintf("%s != ?", accessor), nil
		}
		if len(typedValues) == 0 {
			return neverMatch, nil
		}
		if len(typedValues) > 1 || op == criteria.OperatorIn {
			placeholders := strings.Repeat("?,", len(typedValues)-1) + "?"
			*params = append(*params, typedValues...)
			return fmt.Sprintf("%s IN (%s)", accessor, placeholders), nil
		}
		*params = append(*params, typedValues[0])
		return fmt.Sprintf("%s = ?", accessor), nil
	case criteria.OperatorGreaterThan, criteria.OperatorGreaterOrEqual,
		criteria.OperatorLessThan, criteria.OperatorLessOrEqual:
		typed, err := schema.ParseLiteral(ft, c.Values[0])
		if err != nil {
			return neverMatch, nil
		}
		*params = append(*params, prepareValue(typed))
		comparator := ">"
		switch op {
		case criteria.OperatorGreaterOrEqual:
			comparator = ">="
		case criteria.OperatorLessThan:
			comparator = "<"
		case criteria.OperatorLessOrEqual:
			comparator = "<="
		}
		return fmt.Sprintf("%s %s ?", accessor, comparator), nil
	default:
		return "", fmt.Errorf("unsupported comparison operator for SQL: %s", op)
	}
}

// prepareValue maps Go values to SQLite storage types, converting booleans
// to integers the way the driver expects.
func prepareValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}
