package criteria

import (
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/asaidimu/go-autoquery/core/clause"
	"github.com/asaidimu/go-autoquery/core/schema"
)

// Criteria is one resolved filter condition: the canonical property path
// from the record root to the leaf, the matched operator descriptor and the
// comma-split literal operands. Repeated criteria combine with AND
// semantics downstream.
type Criteria struct {
	ColumnPath []string
	Leaf       *schema.FieldDefinition
	Filter     *Filter
	Values     []string
}

// Column returns the dotted canonical column path.
func (c *Criteria) Column() string {
	return strings.Join(c.ColumnPath, ".")
}

// Parser resolves filter segments against a record schema. Unresolvable
// segments are skipped silently; malformed input degrades to "no effect"
// rather than erroring, so unrelated query-string parameters never break a
// request.
type Parser struct {
	registry *Registry
	schema   *schema.Definition
	logger   *zap.Logger
}

// NewParser creates a parser for one record schema.
func NewParser(s *schema.Definition, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		registry: NewRegistry(),
		schema:   s,
		logger:   logger,
	}
}

// GetCriteria parses a single segment. It locates the operator, splits the
// segment on its alias into a dotted column path and a comma-separated
// operand list, resolves the path case-insensitively against the schema
// (descending one level into collection element types) and returns the
// criteria, or nil when the segment is not a resolvable filter.
func (p *Parser) GetCriteria(segment string) *Criteria {
	f := p.registry.FindFilter(segment)
	if f == nil {
		return nil
	}

	idx := strings.Index(strings.ToLower(segment), f.Alias)
	left := strings.TrimSpace(segment[:idx])
	right := segment[idx+len(f.Alias):]
	if left == "" {
		return nil
	}

	path, leaf, ok := p.schema.ResolvePath(left)
	if !ok {
		p.logger.Debug("dropping filter segment with unresolvable column path",
			zap.String("segment", segment), zap.String("path", left))
		return nil
	}

	var values []string
	if right != "" {
		for _, value := range strings.Split(right, ",") {
			values = append(values, strings.TrimSpace(value))
		}
	}

	return &Criteria{
		ColumnPath: path,
		Leaf:       leaf,
		Filter:     f,
		Values:     values,
	}
}

// GetCriterias produces one criteria per parseable source: the operand of a
// recognized filter clause first, then every query-string segment the
// clause recognizer left unhandled. Each segment is URL-decoded before
// parsing; segments that fail to parse are skipped.
func (p *Parser) GetCriterias(filterOperand string, segments []*clause.Segment) []*Criteria {
	var criterias []*Criteria
	if filterOperand != "" {
		if c := p.GetCriteria(filterOperand); c != nil {
			criterias = append(criterias, c)
		}
	}
	for _, seg := range segments {
		if seg.Handled {
			continue
		}
		raw := seg.Raw
		if decoded, err := url.QueryUnescape(raw); err == nil {
			raw = decoded
		}
		if c := p.GetCriteria(raw); c != nil {
			criterias = append(criterias, c)
		}
	}
	return criterias
}
