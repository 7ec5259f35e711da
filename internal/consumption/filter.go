package consumption

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// UnconsumedPredicate decides whether a group belongs to the unconsumed view.
type UnconsumedPredicate func(ids []*int64) bool

// FirstIDUnconsumed matches groups with no ids or whose first id is nil.
// A group that starts with a real id is excluded even when later members
// are placeholders.
func FirstIDUnconsumed(ids []*int64) bool {
	return len(ids) == 0 || ids[0] == nil
}

// AnyIDUnconsumed matches groups with no ids or with at least one nil id.
func AnyIDUnconsumed(ids []*int64) bool {
	if len(ids) == 0 {
		return true
	}
	for _, id := range ids {
		if id == nil {
			return true
		}
	}
	return false
}

// HasConsumedID reports whether at least one id is a real event.
func HasConsumedID(ids []*int64) bool {
	for _, id := range ids {
		if id != nil {
			return true
		}
	}
	return false
}

// UnconsumedPredicateByName maps "first" and "any" to their predicates.
func UnconsumedPredicateByName(name string) (UnconsumedPredicate, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "first":
		return FirstIDUnconsumed, nil
	case "any":
		return AnyIDUnconsumed, nil
	default:
		return nil, fmt.Errorf("unknown unconsumed match %q", name)
	}
}

// ParseFilterMode accepts all, consumed and unconsumed. Empty means all.
func ParseFilterMode(s string) (FilterMode, error) {
	switch mode := FilterMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return FilterAll, nil
	case FilterAll, FilterConsumed, FilterUnconsumed:
		return mode, nil
	default:
		return "", &ValidationError{Field: "filter", Message: fmt.Sprintf("unknown filter mode %q", s)}
	}
}

// Filter classifies groups by consumption state.
type Filter struct {
	Unconsumed UnconsumedPredicate
}

func NewFilter(unconsumed UnconsumedPredicate) Filter {
	if unconsumed == nil {
		unconsumed = FirstIDUnconsumed
	}
	return Filter{Unconsumed: unconsumed}
}

// Apply returns the groups matching mode. Consumed groups are narrowed to
// their real members; unconsumed groups to their placeholders, with a zero
// total. The input slice and its groups are left untouched.
func (f Filter) Apply(groups []ConsumptionGroup, mode FilterMode) []ConsumptionGroup {
	switch mode {
	case FilterConsumed:
		out := make([]ConsumptionGroup, 0, len(groups))
		for _, g := range groups {
			if !HasConsumedID(g.IDs) {
				continue
			}
			out = append(out, narrow(g, true))
		}
		return out
	case FilterUnconsumed:
		unconsumed := f.Unconsumed
		if unconsumed == nil {
			unconsumed = FirstIDUnconsumed
		}
		out := make([]ConsumptionGroup, 0, len(groups))
		for _, g := range groups {
			if !unconsumed(g.IDs) {
				continue
			}
			n := narrow(g, false)
			n.TotalQuantity = decimal.Zero
			out = append(out, n)
		}
		return out
	default:
		return groups
	}
}

// Counts returns the number of groups visible under each mode.
func (f Filter) Counts(groups []ConsumptionGroup) FacetCounts {
	return FacetCounts{
		All:        len(groups),
		Consumed:   len(f.Apply(groups, FilterConsumed)),
		Unconsumed: len(f.Apply(groups, FilterUnconsumed)),
	}
}

// narrow keeps members whose id is non-nil when consumed is true, nil otherwise.
func narrow(g ConsumptionGroup, consumed bool) ConsumptionGroup {
	items := make([]ConsumptionRecord, 0, len(g.Items))
	ids := make([]*int64, 0, len(g.IDs))
	for i, id := range g.IDs {
		if (id != nil) != consumed {
			continue
		}
		ids = append(ids, id)
		items = append(items, g.Items[i])
	}
	g.Items = items
	g.IDs = ids
	g.ItemPlanned = nil
	return g
}
