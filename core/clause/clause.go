// Package clause implements the query-string side of the translation engine:
// the clause vocabulary (select, filter, orderby, skip, top, page, groupby
// and the distinct/count flags), the per-request value store that collects
// the resolved clause values, and the recognizer that assigns raw
// query-string segments to clauses.
package clause

import "strings"

// Type identifies one of the supported query-string clauses.
type Type string

const (
	TypeSelect   Type = "select"
	TypeFilter   Type = "filter"
	TypeOrderBy  Type = "orderby"
	TypeGroupBy  Type = "groupby"
	TypeSkip     Type = "skip"
	TypeTop      Type = "top"
	TypePage     Type = "page"
	TypeDistinct Type = "distinct"
	TypeCount    Type = "count"
)

// Direction specifies the direction for sorting.
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// Ordering is a single (column, direction) pair of an orderby clause.
type Ordering struct {
	Column    string
	Direction Direction
}

// Segment is one raw query-string part. The recognizer marks segments it
// claims as handled so the criteria pass only sees the remainder.
type Segment struct {
	Raw     string
	Handled bool
}

// ParseQueryString decomposes a raw query string into its ordered segments.
// A leading '?' is tolerated; empty parts are dropped.
func ParseQueryString(raw string) []*Segment {
	raw = strings.TrimPrefix(raw, "?")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "&")
	segments := make([]*Segment, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		segments = append(segments, &Segment{Raw: part})
	}
	return segments
}
