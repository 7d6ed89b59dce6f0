// Package filter implements a small declarative predicate system for
// narrowing list queries. A filter is a (field, operator, value) triple;
// a filter set is an ordered collection of filters that are ANDed
// together. The same set can be evaluated in memory against a record or
// rendered as a SQL predicate, so storage backends share one contract.
package filter

import (
	"fmt"
	"strings"

	"github.com/dklimov/circles/internal/validation"
)

// Op is a comparison operator. The set is closed: every switch over Op
// in this package is exhaustive.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// ParseOp resolves an operator name as it appears in a field__op
// condition key. Unknown names are a validation error.
func ParseOp(name string) (Op, error) {
	switch name {
	case "eq":
		return OpEq, nil
	case "ne":
		return OpNe, nil
	case "lt":
		return OpLt, nil
	case "le":
		return OpLe, nil
	case "gt":
		return OpGt, nil
	case "ge":
		return OpGe, nil
	default:
		return 0, validation.NewValidationError("operator", name, "invalid operator")
	}
}

// ParseKey splits a condition key of the form "field__op" into its field
// name and operator.
func ParseKey(key string) (string, Op, error) {
	field, opName, found := strings.Cut(key, "__")
	if !found || field == "" {
		return "", 0, validation.NewValidationError("filter", key, "expected field__operator")
	}
	op, err := ParseOp(opName)
	if err != nil {
		return "", 0, err
	}
	return field, op, nil
}

// String returns the operator name used in condition keys.
func (op Op) String() string {
	switch op {
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpLt:
		return "lt"
	case OpLe:
		return "le"
	case OpGt:
		return "gt"
	case OpGe:
		return "ge"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// SQL returns the SQL comparison operator.
func (op Op) SQL() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "="
	}
}

// Record is anything that exposes its filterable attributes by name.
type Record interface {
	FilterField(name string) (any, bool)
}

// Filter is a single (field, operator, value) predicate.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Match evaluates the filter against a materialized record. Records that
// do not expose the field, or whose value is not comparable to the
// filter value, do not match.
func (f Filter) Match(r Record) bool {
	v, ok := r.FilterField(f.Field)
	if !ok {
		return false
	}
	cmp, ok := compare(v, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpEq:
		return cmp == 0
	case OpNe:
		return cmp != 0
	case OpLt:
		return cmp < 0
	case OpLe:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpGe:
		return cmp >= 0
	default:
		return false
	}
}

// Predicate renders the filter as a SQL comparison against the given
// column, using a positional bind parameter. The returned fragment is
// "column op $n" and the value is the bind argument.
func (f Filter) Predicate(column string, n int) (string, any) {
	return fmt.Sprintf("%s %s $%d", column, f.Op.SQL(), n), f.Value
}

// compare orders two values of the same dynamic type. The second return
// is false when the values are not comparable. Booleans order false
// before true so that ordering operators stay well defined.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		return boolCmp(av, bv), true
	case int:
		bv, ok := b.(int)
		if !ok {
			return 0, false
		}
		return intCmp(int64(av), int64(bv)), true
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, false
		}
		return intCmp(av, bv), true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		return floatCmp(av, bv), true
	default:
		return 0, false
	}
}

func boolCmp(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func intCmp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func floatCmp(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// FilterSet is an ordered collection of filters, all of which must match.
type FilterSet struct {
	filters []Filter
}

// Add appends a filter to the set, preserving declaration order.
func (fs *FilterSet) Add(field string, op Op, value any) *FilterSet {
	fs.filters = append(fs.filters, Filter{Field: field, Op: op, Value: value})
	return fs
}

// Filters returns the active filters in declaration order.
func (fs *FilterSet) Filters() []Filter {
	if fs == nil {
		return nil
	}
	return fs.filters
}

// Match reports whether the record satisfies every filter in the set.
// A nil or empty set matches everything.
func (fs *FilterSet) Match(r Record) bool {
	for _, f := range fs.Filters() {
		if !f.Match(r) {
			return false
		}
	}
	return true
}
