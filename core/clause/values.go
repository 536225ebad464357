package clause

import (
	"fmt"
	"strconv"

	"github.com/asaidimu/go-autoquery/core/profile"
	"github.com/asaidimu/go-autoquery/core/schema"
)

// Values is the per-request clause value store. It is created fresh for each
// request, seeded with profile defaults, overwritten in arbitrary order as
// segments are recognized (last write wins per clause type), finalized once
// all segments are consumed and read-only thereafter.
type Values struct {
	Select    []string
	Filter    string
	OrderBy   []Ordering
	GroupBy   []string
	Skip      *int
	Top       *int
	Page      *int
	Distinct  bool
	CountOnly bool
}

// setters dispatches a parsed clause value into its Values field. The table
// is populated once at process start; there is no name-based reflection at
// request time.
var setters = map[Type]func(v *Values, value any) error{
	TypeSelect: func(v *Values, value any) error {
		columns, err := asColumns(TypeSelect, value)
		if err != nil {
			return err
		}
		v.Select = columns
		return nil
	},
	TypeFilter: func(v *Values, value any) error {
		raw, ok := value.(string)
		if !ok {
			return coercionError(TypeFilter, "string", value)
		}
		v.Filter = raw
		return nil
	},
	TypeOrderBy: func(v *Values, value any) error {
		orderings, ok := value.([]Ordering)
		if !ok {
			return coercionError(TypeOrderBy, "[]Ordering", value)
		}
		v.OrderBy = orderings
		return nil
	},
	TypeGroupBy: func(v *Values, value any) error {
		columns, err := asColumns(TypeGroupBy, value)
		if err != nil {
			return err
		}
		v.GroupBy = columns
		return nil
	},
	TypeSkip: func(v *Values, value any) error {
		n, err := asCount(TypeSkip, value)
		if err != nil {
			return err
		}
		v.Skip = &n
		return nil
	},
	TypeTop: func(v *Values, value any) error {
		n, err := asCount(TypeTop, value)
		if err != nil {
			return err
		}
		v.Top = &n
		return nil
	},
	TypePage: func(v *Values, value any) error {
		n, err := asCount(TypePage, value)
		if err != nil {
			return err
		}
		v.Page = &n
		return nil
	},
	TypeDistinct: func(v *Values, value any) error {
		flag, err := asFlag(TypeDistinct, value)
		if err != nil {
			return err
		}
		v.Distinct = flag
		return nil
	},
	TypeCount: func(v *Values, value any) error {
		flag, err := asFlag(TypeCount, value)
		if err != nil {
			return err
		}
		v.CountOnly = flag
		return nil
	},
}

// Set writes a parsed clause value into the store via the dispatch table.
// A value of the wrong type is a coercion failure and is returned as an
// error rather than being dropped.
func (v *Values) Set(t Type, value any) error {
	setter, ok := setters[t]
	if !ok {
		return fmt.Errorf("no setter registered for clause %q", t)
	}
	return setter(v, value)
}

// SetDefaults seeds the store from the profile before any query-string value
// is applied: the default page size, the default ordering and the default
// selectable columns.
func (v *Values) SetDefaults(s *schema.Definition, p *profile.Profile) {
	if p.DefaultToTake > 0 {
		top := p.DefaultToTake
		v.Top = &top
	}
	v.Select = defaultSelect(s, p)
	v.OrderBy = defaultOrderBy(p)
}

// Finalize applies the derivations that depend on the complete set of
// recognized clauses: the default selection and ordering when none was
// requested explicitly, and the page-to-skip conversion
// skip = page * (top or DefaultToTake).
func (v *Values) Finalize(s *schema.Definition, p *profile.Profile) {
	if len(v.Select) == 0 {
		v.Select = defaultSelect(s, p)
	}
	if len(v.OrderBy) == 0 {
		v.OrderBy = defaultOrderBy(p)
	}
	if v.Page != nil {
		if v.Top == nil {
			top := p.DefaultToTake
			v.Top = &top
		}
		skip := *v.Page * *v.Top
		v.Skip = &skip
	}
}

// Paged reports whether pagination was requested, which is what gates the
// total-count side query.
func (v *Values) Paged() bool {
	return v.Skip != nil || v.Page != nil
}

func defaultOrderBy(p *profile.Profile) []Ordering {
	if len(p.DefaultOrderBy) == 0 {
		return nil
	}
	orderings := make([]Ordering, 0, len(p.DefaultOrderBy))
	for _, ob := range p.DefaultOrderBy {
		direction := DirectionAsc
		if ob.Desc {
			direction = DirectionDesc
		}
		orderings = append(orderings, Ordering{Column: ob.Column, Direction: direction})
	}
	return orderings
}

func asColumns(t Type, value any) ([]string, error) {
	columns, ok := value.([]string)
	if !ok {
		return nil, coercionError(t, "[]string", value)
	}
	return columns, nil
}

func asCount(t Type, value any) (int, error) {
	n, ok := value.(int)
	if !ok {
		return 0, coercionError(t, "int", value)
	}
	if n < 0 {
		return 0, fmt.Errorf("clause %q requires a non-negative value, got %d", t, n)
	}
	return n, nil
}

// asFlag coerces a boolean clause value, accepting the string forms
// "true"/"false" that arrive straight from the query string.
func asFlag(t Type, value any) (bool, error) {
	switch val := value.(type) {
	case bool:
		return val, nil
	case string:
		flag, err := strconv.ParseBool(val)
		if err != nil {
			return false, fmt.Errorf("clause %q expects a boolean value, got %q: %w", t, val, err)
		}
		return flag, nil
	default:
		return false, coercionError(t, "bool", value)
	}
}

func coercionError(t Type, want string, got any) error {
	return fmt.Errorf("clause %q expects a %s value, got %T", t, want, got)
}
