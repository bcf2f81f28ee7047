package model

import "strings"

// DefaultLimit bounds result counts when the caller gives none. An absent
// limit never means unbounded.
const DefaultLimit = 50

// Query describes a filter request against one collection. Criteria keys are
// conjoined equality matches only; Sort is a single field name, prefixed
// with "-" for descending order.
type Query struct {
	Criteria map[string]interface{}
	Sort     string
	Limit    int
}

// Normalized returns a copy with the default limit applied and a non-nil
// criteria map. Zero and negative limits both mean "unset": a caller that
// wants no records should not issue the query.
func (q Query) Normalized() Query {
	out := q
	if out.Limit <= 0 {
		out.Limit = DefaultLimit
	}
	if out.Criteria == nil {
		out.Criteria = map[string]interface{}{}
	}
	return out
}

// SortField splits the sort expression into field name and direction.
// An empty field means store-defined ordering, which callers must not rely on.
func (q Query) SortField() (field string, descending bool) {
	if q.Sort == "" {
		return "", false
	}
	if strings.HasPrefix(q.Sort, "-") {
		return q.Sort[1:], true
	}
	return q.Sort, false
}
