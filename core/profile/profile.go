// Package profile holds the per-endpoint configuration consumed read-only by
// the query translation engine: which clauses are allowed, pagination bounds,
// default ordering and the column-selection rules. A Profile is a passive
// settings bag; it is never mutated by the core and is safe to share across
// concurrent requests.
package profile

import "strings"

// KeyCase selects the naming convention applied to output column keys.
type KeyCase string

const (
	KeyCaseExact KeyCase = "exact" // Keep the canonical schema name
	KeyCaseLower KeyCase = "lower" // Lower-case the schema name
	KeyCaseCamel KeyCase = "camel" // Lower-case only the first rune
)

// OrderBy is a single (column, direction) pair of a default ordering spec.
type OrderBy struct {
	Column string
	Desc   bool
}

// Profile configures the translation engine for one endpoint.
type Profile struct {
	// AllowedClauses lists the clause types a request may use, by name.
	// An empty list allows every registered clause.
	AllowedClauses []string
	// DefaultToTake bounds the result set when no explicit top is requested.
	DefaultToTake int
	// MaxToTake, when set, caps any requested top value.
	MaxToTake *int
	// DefaultOrderBy is adopted when the request carries no orderby clause.
	DefaultOrderBy []OrderBy
	// SelectableColumns restricts which columns may be selected. An empty
	// list makes every schema column selectable.
	SelectableColumns []string
	// UnselectableColumns are always removed from selections.
	UnselectableColumns []string
	// UseBaseType preserves the full record shape instead of projecting to
	// the selected columns.
	UseBaseType bool
	// KeyCase is the naming convention for output keys.
	KeyCase KeyCase
}

// Default returns a permissive profile with a bounded default page size.
func Default() *Profile {
	return &Profile{
		DefaultToTake: 50,
		KeyCase:       KeyCaseExact,
	}
}

// IsClauseAllowed reports whether the named clause type may be used. The
// match is case-insensitive; an empty allow-list permits everything.
func (p *Profile) IsClauseAllowed(name string) bool {
	if len(p.AllowedClauses) == 0 {
		return true
	}
	for _, allowed := range p.AllowedClauses {
		if strings.EqualFold(allowed, name) {
			return true
		}
	}
	return false
}

// ClampTake applies the MaxToTake cap to a requested page size.
func (p *Profile) ClampTake(n int) int {
	if p.MaxToTake != nil && n > *p.MaxToTake {
		return *p.MaxToTake
	}
	return n
}

// SelectableFrom filters the given schema columns down to the ones this
// profile permits, preserving the input order.
func (p *Profile) SelectableFrom(columns []string) []string {
	selected := make([]string, 0, len(columns))
	for _, column := range columns {
		if p.columnSelectable(column) {
			selected = append(selected, column)
		}
	}
	return selected
}

func (p *Profile) columnSelectable(column string) bool {
	for _, excluded := range p.UnselectableColumns {
		if strings.EqualFold(excluded, column) {
			return false
		}
	}
	if len(p.SelectableColumns) == 0 {
		return true
	}
	for _, allowed := range p.SelectableColumns {
		if strings.EqualFold(allowed, column) {
			return true
		}
	}
	return false
}

// OutputColumn applies the profile's naming convention to an output key.
func (p *Profile) OutputColumn(name string) string {
	switch p.KeyCase {
	case KeyCaseLower:
		return strings.ToLower(name)
	case KeyCaseCamel:
		if name == "" {
			return name
		}
		return strings.ToLower(name[:1]) + name[1:]
	default:
		return name
	}
}
