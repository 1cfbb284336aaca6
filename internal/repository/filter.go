package repository

// Op enumerates the comparison operators a store must support.
type Op string

const (
	OpEq       Op = "="
	OpLt       Op = "<"
	OpLte      Op = "<="
	OpGt       Op = ">"
	OpGte      Op = ">="
	OpContains Op = "contains"
)

// Filter is an opaque predicate handed to the store for evaluation.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Where builds a single-column filter.
func Where(column string, op Op, value any) Filter {
	return Filter{Column: column, Op: op, Value: value}
}
