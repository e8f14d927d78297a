package keyval

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// SortCondition restricts the sort-key range of a Query. Drivers switch on
// Op to build their native range predicate.
type SortCondition interface {
	Condition() (op SortOp, lower, upper string)
}

type SortOp string

const (
	SortEquals     SortOp = "="
	SortBeginsWith SortOp = "begins_with"
	SortBetween    SortOp = "between"
	SortLessThan   SortOp = "<"
	SortGreater    SortOp = ">"
)

type sortCond struct {
	op     SortOp
	lo, hi string
}

func (c sortCond) Condition() (SortOp, string, string) {
	return c.op, c.lo, c.hi
}

// Equals matches items whose sort key equals v exactly.
func Equals(v string) SortCondition {
	return sortCond{op: SortEquals, lo: v}
}

// BeginsWith matches items whose sort key starts with prefix. This is the
// workhorse for sub-record ranges like VERSION# and ACCESS#.
func BeginsWith(prefix string) SortCondition {
	return sortCond{op: SortBeginsWith, lo: prefix}
}

// Between matches sort keys in [lo, hi], inclusive. Values render with
// their natural formatting, which for the RFC3339 keys used here is also
// their lexicographic order.
func Between[T constraints.Ordered](lo, hi T) SortCondition {
	return sortCond{op: SortBetween, lo: fmt.Sprint(lo), hi: fmt.Sprint(hi)}
}

// LessThan matches sort keys strictly below v.
func LessThan[T constraints.Ordered](v T) SortCondition {
	return sortCond{op: SortLessThan, lo: fmt.Sprint(v)}
}

// GreaterThan matches sort keys strictly above v.
func GreaterThan[T constraints.Ordered](v T) SortCondition {
	return sortCond{op: SortGreater, lo: fmt.Sprint(v)}
}
