package memory

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-autoquery/core/criteria"
	"github.com/asaidimu/go-autoquery/core/schema"
)

// matchesAll evaluates a document against every criteria as a conjunction.
func matchesAll(doc schema.Document, criterias []*criteria.Criteria) (bool, error) {
	for _, c := range criterias {
		ok, err := matchPath(doc, c.ColumnPath, c)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// matchPath walks the resolved column path into the document. A collection
// value is evaluated element-wise with ANY semantics, whether the path
// continues into the element type or has already reached its leaf.
func matchPath(value any, path []string, c *criteria.Criteria) (bool, error) {
	switch v := value.(type) {
	case []schema.Document:
		return matchAny(documentsToAny(v), path, c)
	case []map[string]any:
		return matchAny(mapsToAny(v), path, c)
	case []any:
		return matchAny(v, path, c)
	}

	if len(path) == 0 {
		return evaluate(value, c)
	}

	switch v := value.(type) {
	case schema.Document:
		return matchPath(v[path[0]], path[1:], c)
	case map[string]any:
		return matchPath(v[path[0]], path[1:], c)
	case nil:
		// Missing intermediate value: only a null check can match.
		return c.Filter.Operator == criteria.OperatorIsNull, nil
	default:
		return false, fmt.Errorf("cannot navigate %q through value of type %T", path[0], value)
	}
}

func matchAny(elements []any, path []string, c *criteria.Criteria) (bool, error) {
	for _, element := range elements {
		ok, err := matchPath(element, path, c)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func documentsToAny(docs []schema.Document) []any {
	out := make([]any, len(docs))
	for i, doc := range docs {
		out[i] = doc
	}
	return out
}

func mapsToAny(maps []map[string]any) []any {
	out := make([]any, len(maps))
	for i, m := range maps {
		out[i] = m
	}
	return out
}

// evaluate applies the criteria's operator to a leaf value, parsing each
// literal operand according to the leaf field's declared type.
func evaluate(value any, c *criteria.Criteria) (bool, error) {
	op := c.Filter.Operator

	if op == criteria.OperatorIsNull {
		return value == nil, nil
	}
	if value == nil {
		// Every comparison against an absent value fails except inequality.
		return op == criteria.OperatorNotEquals, nil
	}

	switch op {
	case criteria.OperatorEquals, criteria.OperatorIn:
		for _, raw := range c.Values {
			equal, err := looseEqual(value, c.Leaf.Type, raw)
			if err != nil {
				return false, err
			}
			if equal {
				return true, nil
			}
		}
		return false, nil
	case criteria.OperatorNotEquals:
		for _, raw := range c.Values {
			equal, err := looseEqual(value, c.Leaf.Type, raw)
			if err != nil {
				return false, err
			}
			if equal {
				return false, nil
			}
		}
		return true, nil
	case criteria.OperatorGreaterThan, criteria.OperatorGreaterOrEqual,
		criteria.OperatorLessThan, criteria.OperatorLessOrEqual:
		if len(c.Values) == 0 {
			return false, nil
		}
		typed, err := schema.ParseLiteral(c.Leaf.Type, c.Values[0])
		if err != nil {
			return false, nil
		}
		cmp := compareValues(value, typed)
		switch op {
		case criteria.OperatorGreaterThan:
			return cmp > 0, nil
		case criteria.OperatorGreaterOrEqual:
			return cmp >= 0, nil
		case criteria.OperatorLessThan:
			return cmp < 0, nil
		default:
			return cmp <= 0, nil
		}
	case criteria.OperatorContains:
		return len(c.Values) > 0 && strings.Contains(asString(value), c.Values[0]), nil
	case criteria.OperatorStartsWith:
		return len(c.Values) > 0 && strings.HasPrefix(asString(value), c.Values[0]), nil
	case criteria.OperatorEndsWith:
		return len(c.Values) > 0 && strings.HasSuffix(asString(value), c.Values[0]), nil
	default:
		return false, fmt.Errorf("unsupported comparison operator: %s", op)
	}
}

// looseEqual compares a document value with a raw literal parsed to the
// leaf's declared type. Numeric values compare numerically regardless of
// their concrete Go type.
func looseEqual(value any, ft schema.FieldType, raw string) (bool, error) {
	typed, err := schema.ParseLiteral(ft, raw)
	if err != nil {
		// An unparseable literal simply never matches.
		return false, nil
	}
	if fv, ok := schema.ToFloat64(value); ok {
		if tv, ok := schema.ToFloat64(typed); ok {
			return fv == tv, nil
		}
	}
	if bv, ok := value.(bool); ok {
		if tb, ok := typed.(bool); ok {
			return bv == tb, nil
		}
	}
	return asString(value) == asString(typed), nil
}

// compareValues orders two document values: numerically when both convert
// to numbers, lexically otherwise. Nil sorts before everything.
func compareValues(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	if fa, ok := schema.ToFloat64(a); ok {
		if fb, ok := schema.ToFloat64(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	return strings.Compare(asString(a), asString(b))
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
