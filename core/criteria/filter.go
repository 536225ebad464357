// Package criteria implements the filter side of the translation engine: the
// table of supported comparison operators and the parser that turns raw
// query-string segments into resolved filter criteria.
package criteria

import "strings"

// Operator identifies a supported comparison.
type Operator string

const (
	OperatorEquals         Operator = "eq"
	OperatorNotEquals      Operator = "neq"
	OperatorGreaterThan    Operator = "gt"
	OperatorGreaterOrEqual Operator = "gte"
	OperatorLessThan       Operator = "lt"
	OperatorLessOrEqual    Operator = "lte"
	OperatorContains       Operator = "contains"
	OperatorStartsWith     Operator = "startswith"
	OperatorEndsWith       Operator = "endswith"
	OperatorIn             Operator = "in"
	OperatorIsNull         Operator = "isnull"
)

// Filter is a static descriptor for one comparison operator. The alias is
// the token embedded inside a filter segment; it both identifies the
// operator and splits the segment into column path and operand values.
type Filter struct {
	Operator Operator
	Alias    string
}

// Registry holds the operator descriptors in matching order. The order is a
// correctness policy, not incidental: aliases that contain another alias as
// a substring must be listed first so that ">=" is never shadowed by ">" and
// "=null" is never shadowed by "==" splitting.
type Registry struct {
	filters []*Filter
}

// NewRegistry creates a registry with the standard operator set.
func NewRegistry() *Registry {
	return &Registry{
		filters: []*Filter{
			{Operator: OperatorGreaterOrEqual, Alias: ">="},
			{Operator: OperatorLessOrEqual, Alias: "<="},
			{Operator: OperatorNotEquals, Alias: "!="},
			{Operator: OperatorEquals, Alias: "=="},
			{Operator: OperatorContains, Alias: "@="},
			{Operator: OperatorStartsWith, Alias: "_="},
			{Operator: OperatorEndsWith, Alias: "=_"},
			{Operator: OperatorIn, Alias: "|="},
			{Operator: OperatorIsNull, Alias: "=null"},
			{Operator: OperatorGreaterThan, Alias: ">"},
			{Operator: OperatorLessThan, Alias: "<"},
		},
	}
}

// FindFilter scans the descriptors in order and returns the first whose
// alias appears in the segment, or nil when the segment is not a filter.
func (r *Registry) FindFilter(segment string) *Filter {
	lowered := strings.ToLower(segment)
	for _, f := range r.filters {
		if strings.Contains(lowered, f.Alias) {
			return f
		}
	}
	return nil
}

// Filters returns the registered descriptors in matching order.
func (r *Registry) Filters() []*Filter {
	return r.filters
}
