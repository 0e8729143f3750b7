// Package filter builds typed, composable predicates from raw request
// parameters. The builder is pure: it performs no I/O and knows nothing
// about how the store executes its output.
package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Kind classifies how a predicate's field is reached from the app user.
// The executor uses it to decide which joins are needed and whether the
// joined rows must be deduplicated.
type Kind int

const (
	// KindDirect targets a column on the app user itself.
	KindDirect Kind = iota
	// KindAddress traverses the one-to-one address relation.
	KindAddress
	// KindRelationship traverses the one-to-many relationship history.
	// Joining it can fan out primary rows.
	KindRelationship
)

// Op is the comparison operator of a predicate.
type Op int

const (
	// OpEq is exact equality.
	OpEq Op = iota
	// OpIContains is case-insensitive substring match.
	OpIContains
	// OpGte is greater-than-or-equal.
	OpGte
	// OpLte is less-than-or-equal.
	OpLte
)

// Predicate is a single field condition. Exactly one of Str, Int, or
// Time carries the typed value, depending on the field.
type Predicate struct {
	Field string
	Kind  Kind
	Op    Op

	Str  string
	Int  int
	Time time.Time
}

// Spec is the AND-combination of all valid predicates derived from one
// request. The zero value matches every record.
type Spec struct {
	Predicates []Predicate
}

// Empty reports whether the spec matches everything.
func (s Spec) Empty() bool {
	return len(s.Predicates) == 0
}

// NeedsDistinct reports whether any predicate traverses the one-to-many
// relationship relation. Executing such a predicate as a join can
// duplicate primary rows, so the executor must deduplicate by user ID.
func (s Spec) NeedsDistinct() bool {
	for _, p := range s.Predicates {
		if p.Kind == KindRelationship {
			return true
		}
	}
	return false
}

// DateLayout is the accepted format for date-valued parameters.
const DateLayout = "2006-01-02"

// Build derives a Spec from raw query parameters. Unrecognized parameter
// names are ignored. Blank or whitespace-only values, unparseable dates,
// and non-integer point thresholds are skipped rather than rejected: a
// malformed value degrades to "no condition for that field". This
// leniency is part of the endpoint contract, not an oversight.
//
// Predicates are appended in a fixed order, so two requests carrying the
// same parameters produce identical specs regardless of parameter order.
func Build(params url.Values) Spec {
	var preds []Predicate

	str := func(field string, kind Kind, op Op, name string) {
		if v := strings.TrimSpace(params.Get(name)); v != "" {
			preds = append(preds, Predicate{Field: field, Kind: kind, Op: op, Str: v})
		}
	}
	date := func(field string, kind Kind, op Op, name string) {
		raw := strings.TrimSpace(params.Get(name))
		if raw == "" {
			return
		}
		if t, err := time.Parse(DateLayout, raw); err == nil {
			preds = append(preds, Predicate{Field: field, Kind: kind, Op: op, Time: t})
		}
	}
	integer := func(field string, kind Kind, op Op, name string) {
		raw := strings.TrimSpace(params.Get(name))
		if raw == "" {
			return
		}
		if n, err := strconv.Atoi(raw); err == nil {
			preds = append(preds, Predicate{Field: field, Kind: kind, Op: op, Int: n})
		}
	}

	str("first_name", KindDirect, OpIContains, "first_name")
	str("last_name", KindDirect, OpIContains, "last_name")
	str("gender", KindDirect, OpEq, "gender")
	str("customer_id", KindDirect, OpEq, "customer_id")
	str("phone_number", KindDirect, OpIContains, "phone_number")
	date("birthday", KindDirect, OpEq, "birthday")

	str("city", KindAddress, OpIContains, "city")
	str("street", KindAddress, OpIContains, "street")
	str("country", KindAddress, OpIContains, "country")

	integer("points", KindRelationship, OpGte, "points_min")
	integer("points", KindRelationship, OpLte, "points_max")
	date("last_activity", KindRelationship, OpGte, "last_activity_after")

	return Spec{Predicates: preds}
}
