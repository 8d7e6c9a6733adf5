// Package ecl evaluates Expression Constraint Language queries over a
// serving store.
//
// Grammar parsing is an external collaborator's job: expressions arrive
// here as an AST, either built programmatically or decoded from the JSON
// form in this package. The evaluator walks the AST as set algebra over
// the precomputed hierarchy closure.
package ecl

import "github.com/c360/termgraph/snomed"

// Expr is one node of an ECL expression tree. The variant set is closed;
// the evaluator dispatches on the concrete type.
type Expr interface {
	isExpr()
}

// Wildcard selects every active concept (`*`).
type Wildcard struct{}

// ConceptRef selects a single concept if it is active (`404684003`).
type ConceptRef struct {
	ID snomed.SctID
}

// DescendantOf selects the strict descendants of a concept (`< id`).
type DescendantOf struct {
	ID snomed.SctID
}

// DescendantOrSelf selects a concept and its descendants (`<< id`).
type DescendantOrSelf struct {
	ID snomed.SctID
}

// AncestorOf selects the strict ancestors of a concept (`> id`).
type AncestorOf struct {
	ID snomed.SctID
}

// AncestorOrSelf selects a concept and its ancestors (`>> id`).
type AncestorOrSelf struct {
	ID snomed.SctID
}

// MemberOf selects the active members of a reference set (`^ refsetId`).
type MemberOf struct {
	RefsetID snomed.SctID
}

// And is set intersection.
type And struct {
	Left  Expr
	Right Expr
}

// Or is set union.
type Or struct {
	Left  Expr
	Right Expr
}

// Minus is set difference, left minus right.
type Minus struct {
	Left  Expr
	Right Expr
}

// Attribute is one refinement constraint: the concept must have an active
// relationship of TypeID whose destination satisfies Value. Equality is
// the only supported comparator.
type Attribute struct {
	TypeID snomed.SctID
	Value  Expr
}

// Refinement filters Base to concepts satisfying every attribute
// (`base : typeId = value`).
type Refinement struct {
	Base       Expr
	Attributes []Attribute
}

// Grouped is a parenthesized subexpression; grouping is a syntax-level
// concern and evaluation passes through.
type Grouped struct {
	Expr Expr
}

func (Wildcard) isExpr()         {}
func (ConceptRef) isExpr()       {}
func (DescendantOf) isExpr()     {}
func (DescendantOrSelf) isExpr() {}
func (AncestorOf) isExpr()       {}
func (AncestorOrSelf) isExpr()   {}
func (MemberOf) isExpr()         {}
func (And) isExpr()              {}
func (Or) isExpr()               {}
func (Minus) isExpr()            {}
func (Refinement) isExpr()       {}
func (Grouped) isExpr()          {}
