package clause

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/asaidimu/go-autoquery/core/profile"
	"github.com/asaidimu/go-autoquery/core/schema"
)

// ParseFunc converts a raw clause operand into the clause's typed value,
// consulting the record schema and the active profile.
type ParseFunc func(raw string, s *schema.Definition, p *profile.Profile) (any, error)

// Clause is a static descriptor for one supported clause kind: the alias
// matched against query-string keys and the operand parsing function.
// Descriptors are registered at process start and never mutated.
type Clause struct {
	Type  Type
	Alias string
	Parse ParseFunc
}

// Registry recognizes query-string segments as clauses. The descriptor list
// is immutable after construction and safe to share across requests.
type Registry struct {
	clauses []*Clause
	logger  *zap.Logger
}

// NewRegistry creates a registry holding the standard clause vocabulary.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger: logger,
		clauses: []*Clause{
			{Type: TypeSelect, Alias: "select", Parse: parseSelect},
			{Type: TypeFilter, Alias: "filter", Parse: parseRaw},
			{Type: TypeOrderBy, Alias: "orderby", Parse: parseOrderBy},
			{Type: TypeGroupBy, Alias: "groupby", Parse: parseGroupBy},
			{Type: TypeSkip, Alias: "skip", Parse: parseCount},
			{Type: TypeTop, Alias: "top", Parse: parseCount},
			{Type: TypePage, Alias: "page", Parse: parseCount},
			{Type: TypeDistinct, Alias: "distinct", Parse: parseFlag},
			{Type: TypeCount, Alias: "count", Parse: parseFlag},
		},
	}
}

// Find matches a raw query-string key case-insensitively against the
// registered clause aliases. Clauses the profile disallows are treated as
// unrecognized and left for the filter path.
func (r *Registry) Find(rawKey string, p *profile.Profile) *Clause {
	for _, c := range r.clauses {
		if !strings.EqualFold(c.Alias, rawKey) {
			continue
		}
		if !p.IsClauseAllowed(string(c.Type)) {
			r.logger.Debug("clause disallowed by profile", zap.String("clause", string(c.Type)))
			return nil
		}
		return c
	}
	return nil
}

// Apply recognizes a single segment. When the segment's key denotes a known,
// allowed clause, the operand is obtained by splitting the segment on the
// alias token, parsed into the clause's typed value and written into the
// value store, and the segment is marked handled. Unrecognized segments are
// left untouched for the criteria pass. Parse and coercion failures are
// fatal and propagate.
func (r *Registry) Apply(seg *Segment, v *Values, s *schema.Definition, p *profile.Profile) (bool, error) {
	key := seg.Raw
	if i := strings.Index(key, "="); i >= 0 {
		key = key[:i]
	}
	c := r.Find(strings.TrimSpace(key), p)
	if c == nil {
		return false, nil
	}

	idx := strings.Index(strings.ToLower(seg.Raw), c.Alias)
	operand := seg.Raw[idx+len(c.Alias):]
	operand = strings.TrimPrefix(operand, "=")
	if decoded, err := url.QueryUnescape(operand); err == nil {
		operand = decoded
	}

	value, err := c.Parse(operand, s, p)
	if err != nil {
		return false, fmt.Errorf("clause %q: %w", c.Type, err)
	}
	if err := v.Set(c.Type, value); err != nil {
		return false, err
	}
	seg.Handled = true
	return true, nil
}

// Extract runs the recognizer over every segment and finalizes the value
// store. It returns the first fatal coercion error encountered.
func (r *Registry) Extract(segments []*Segment, v *Values, s *schema.Definition, p *profile.Profile) error {
	for _, seg := range segments {
		if _, err := r.Apply(seg, v, s, p); err != nil {
			return err
		}
	}
	v.Finalize(s, p)
	return nil
}

// parseSelect resolves a comma-separated column list against the schema,
// dropping unknown columns silently. An empty operand yields the profile's
// default selectable columns.
func parseSelect(raw string, s *schema.Definition, p *profile.Profile) (any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultSelect(s, p), nil
	}
	columns := make([]string, 0)
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		field := s.ResolveField(token)
		if field == nil {
			continue
		}
		columns = append(columns, field.Name)
	}
	return p.SelectableFrom(columns), nil
}

// parseGroupBy resolves a comma-separated column list with no defaulting.
func parseGroupBy(raw string, s *schema.Definition, _ *profile.Profile) (any, error) {
	columns := make([]string, 0)
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		field := s.ResolveField(token)
		if field == nil {
			continue
		}
		columns = append(columns, field.Name)
	}
	return columns, nil
}

// parseOrderBy parses "column [asc|desc]" pairs separated by commas,
// resolving each column against the schema and dropping unknown ones.
func parseOrderBy(raw string, s *schema.Definition, _ *profile.Profile) (any, error) {
	orderings := make([]Ordering, 0)
	for _, token := range strings.Split(raw, ",") {
		parts := strings.Fields(token)
		if len(parts) == 0 {
			continue
		}
		field := s.ResolveField(parts[0])
		if field == nil {
			continue
		}
		direction := DirectionAsc
		if len(parts) > 1 && strings.EqualFold(parts[1], string(DirectionDesc)) {
			direction = DirectionDesc
		}
		orderings = append(orderings, Ordering{Column: field.Name, Direction: direction})
	}
	return orderings, nil
}

func parseCount(raw string, _ *schema.Definition, _ *profile.Profile) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("expected an integer operand, got %q: %w", raw, err)
	}
	return n, nil
}

// parseFlag passes the raw operand through for the value store's boolean
// coercion; a bare flag with no operand means true.
func parseFlag(raw string, _ *schema.Definition, _ *profile.Profile) (any, error) {
	if strings.TrimSpace(raw) == "" {
		return true, nil
	}
	return strings.TrimSpace(raw), nil
}

// parseRaw keeps the operand as-is; the criteria parser consumes it later.
func parseRaw(raw string, _ *schema.Definition, _ *profile.Profile) (any, error) {
	return raw, nil
}

// defaultSelect computes the profile's default selectable columns in a
// stable order.
func defaultSelect(s *schema.Definition, p *profile.Profile) []string {
	columns := s.ColumnNames()
	sort.Strings(columns)
	return p.SelectableFrom(columns)
}
