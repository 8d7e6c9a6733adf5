package ecl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/termgraph/closure"
	"github.com/c360/termgraph/errors"
	"github.com/c360/termgraph/snomed"
	"github.com/c360/termgraph/store"
)

func concept(id snomed.SctID) snomed.Concept {
	return snomed.Concept{
		ID:                 id,
		EffectiveTime:      20250201,
		Active:             true,
		ModuleID:           snomed.CoreModule,
		DefinitionStatusID: snomed.PrimitiveStatus,
	}
}

func isA(id, source, destination snomed.SctID) snomed.Relationship {
	return snomed.Relationship{
		ID:                   id,
		EffectiveTime:        20250201,
		Active:               true,
		ModuleID:             snomed.CoreModule,
		SourceID:             source,
		DestinationID:        destination,
		TypeID:               snomed.IsA,
		CharacteristicTypeID: snomed.InferredRelationship,
		ModifierID:           snomed.ExistentialModifier,
	}
}

func attribute(id, source, typeID, destination snomed.SctID, group uint16) snomed.Relationship {
	r := isA(id, source, destination)
	r.TypeID = typeID
	r.Group = group
	return r
}

// fixtureEvaluator builds the scenario store:
//
//	138875005 (root)
//	  ├── 404684003 (clinical finding)
//	  │     ├── 64572001 (disease)
//	  │     │     └── 73211009 (diabetes) ── 46635009, 44054006
//	  │     └── 233604007 (pneumonia), finding site = 39057004 (lung)
//	  └── 123037004 (body structure) ── 39057004 (lung)
//
// 90001011 is an inactive concept; refset 723264001 = {73211009, 46635009,
// 90001011}.
func fixtureEvaluator(t *testing.T) *Evaluator {
	t.Helper()
	s := store.New(store.Deps{})

	inactive := concept(90001011)
	inactive.Active = false

	require.NoError(t, s.InsertConcepts([]snomed.Concept{
		concept(138875005), concept(404684003), concept(64572001),
		concept(73211009), concept(46635009), concept(44054006),
		concept(233604007), concept(123037004), concept(39057004),
		inactive,
	}))

	require.NoError(t, s.InsertRelationships([]snomed.Relationship{
		isA(1, 404684003, 138875005),
		isA(2, 64572001, 404684003),
		isA(3, 73211009, 64572001),
		isA(4, 46635009, 73211009),
		isA(5, 44054006, 73211009),
		isA(6, 233604007, 404684003),
		isA(7, 123037004, 138875005),
		isA(8, 39057004, 123037004),
		attribute(9, 233604007, snomed.FindingSite, 39057004, 1),
	}))

	require.NoError(t, s.InsertRefsetMembers([]snomed.SimpleRefsetMember{
		{ID: 101, Active: true, RefsetID: 723264001, ReferencedComponentID: 73211009},
		{ID: 102, Active: true, RefsetID: 723264001, ReferencedComponentID: 46635009},
		{ID: 103, Active: true, RefsetID: 723264001, ReferencedComponentID: 90001011},
	}))

	require.NoError(t, s.BeginServing(closure.Build(s, nil)))

	evaluator, err := NewEvaluator(Deps{Store: s})
	require.NoError(t, err)
	return evaluator
}

func evalIDs(t *testing.T, e *Evaluator, expr Expr) []snomed.SctID {
	t.Helper()
	result, err := e.Evaluate(context.Background(), expr, 0)
	require.NoError(t, err)
	return result.IDs
}

func TestEvaluate_DescendantOrSelf(t *testing.T) {
	e := fixtureEvaluator(t)

	// S4: << 73211009 contains diabetes and both subtypes.
	ids := evalIDs(t, e, DescendantOrSelf{ID: 73211009})
	assert.ElementsMatch(t, []snomed.SctID{73211009, 46635009, 44054006}, ids)

	// Strict descendants exclude self.
	ids = evalIDs(t, e, DescendantOf{ID: 73211009})
	assert.ElementsMatch(t, []snomed.SctID{46635009, 44054006}, ids)
}

func TestEvaluate_Ancestors(t *testing.T) {
	e := fixtureEvaluator(t)

	ids := evalIDs(t, e, AncestorOf{ID: 46635009})
	assert.ElementsMatch(t,
		[]snomed.SctID{73211009, 64572001, 404684003, 138875005}, ids)

	ids = evalIDs(t, e, AncestorOrSelf{ID: 46635009})
	assert.Contains(t, ids, snomed.SctID(46635009))
	assert.Len(t, ids, 5)
}

func TestEvaluate_Minus(t *testing.T) {
	e := fixtureEvaluator(t)

	// S5: << 73211009 MINUS 46635009
	ids := evalIDs(t, e, Minus{
		Left:  DescendantOrSelf{ID: 73211009},
		Right: ConceptRef{ID: 46635009},
	})
	assert.ElementsMatch(t, []snomed.SctID{73211009, 44054006}, ids)
}

func TestEvaluate_Refinement(t *testing.T) {
	e := fixtureEvaluator(t)

	// S6: << 404684003 : 363698007 = << 39057004
	ids := evalIDs(t, e, Refinement{
		Base: DescendantOrSelf{ID: 404684003},
		Attributes: []Attribute{
			{TypeID: snomed.FindingSite, Value: DescendantOrSelf{ID: 39057004}},
		},
	})
	assert.Equal(t, []snomed.SctID{233604007}, ids)

	// A refinement whose value set misses the destination matches nothing.
	ids = evalIDs(t, e, Refinement{
		Base: DescendantOrSelf{ID: 404684003},
		Attributes: []Attribute{
			{TypeID: snomed.FindingSite, Value: ConceptRef{ID: 123037004}},
		},
	})
	assert.Empty(t, ids)
}

func TestEvaluate_Wildcard(t *testing.T) {
	e := fixtureEvaluator(t)

	result, err := e.Evaluate(context.Background(), Wildcard{}, 0)
	require.NoError(t, err)
	// Nine active concepts; the inactive one is excluded.
	assert.Equal(t, 9, result.TotalCount)
	assert.NotContains(t, result.IDs, snomed.SctID(90001011))
}

func TestEvaluate_ConceptRef(t *testing.T) {
	e := fixtureEvaluator(t)

	ids := evalIDs(t, e, ConceptRef{ID: 73211009})
	assert.Equal(t, []snomed.SctID{73211009}, ids)

	// Inactive concept evaluates to the empty set.
	ids = evalIDs(t, e, ConceptRef{ID: 90001011})
	assert.Empty(t, ids)

	// Unknown concept is a query error.
	_, err := e.Evaluate(context.Background(), ConceptRef{ID: 999999999}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownConcept)
}

func TestEvaluate_MemberOf(t *testing.T) {
	e := fixtureEvaluator(t)

	// Membership intersects with active concepts.
	ids := evalIDs(t, e, MemberOf{RefsetID: 723264001})
	assert.ElementsMatch(t, []snomed.SctID{73211009, 46635009}, ids)

	_, err := e.Evaluate(context.Background(), MemberOf{RefsetID: 999}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrRefsetNotLoaded)
}

func TestEvaluate_SetLaws(t *testing.T) {
	e := fixtureEvaluator(t)
	a := DescendantOrSelf{ID: 404684003}
	b := DescendantOrSelf{ID: 73211009}
	c := MemberOf{RefsetID: 723264001}

	idsA := evalIDs(t, e, a)

	// A AND A = A; A OR A = A; A MINUS A = empty.
	assert.ElementsMatch(t, idsA, evalIDs(t, e, And{Left: a, Right: a}))
	assert.ElementsMatch(t, idsA, evalIDs(t, e, Or{Left: a, Right: a}))
	assert.Empty(t, evalIDs(t, e, Minus{Left: a, Right: a}))

	// A AND (B OR C) = (A AND B) OR (A AND C).
	left := evalIDs(t, e, And{Left: a, Right: Or{Left: b, Right: c}})
	right := evalIDs(t, e, Or{
		Left:  And{Left: a, Right: b},
		Right: And{Left: a, Right: c},
	})
	assert.ElementsMatch(t, left, right)
}

func TestEvaluate_Grouped(t *testing.T) {
	e := fixtureEvaluator(t)
	direct := evalIDs(t, e, DescendantOrSelf{ID: 73211009})
	grouped := evalIDs(t, e, Grouped{Expr: DescendantOrSelf{ID: 73211009}})
	assert.Equal(t, direct, grouped)
}

func TestEvaluate_LimitAndTruncation(t *testing.T) {
	e := fixtureEvaluator(t)

	result, err := e.Evaluate(context.Background(), DescendantOrSelf{ID: 404684003}, 2)
	require.NoError(t, err)
	assert.Len(t, result.IDs, 2)
	assert.Equal(t, 6, result.TotalCount)
	assert.True(t, result.Truncated)

	result, err = e.Evaluate(context.Background(), DescendantOrSelf{ID: 404684003}, 0)
	require.NoError(t, err)
	assert.Len(t, result.IDs, 6)
	assert.False(t, result.Truncated)
}

func TestEvaluate_Cancellation(t *testing.T) {
	e := fixtureEvaluator(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx, DescendantOrSelf{ID: 404684003}, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCancelled)

	kind, ok := errors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, errors.KindResource, kind)
}

func TestEvaluate_Matches(t *testing.T) {
	e := fixtureEvaluator(t)
	ctx := context.Background()

	// S3 as ECL membership.
	ok, err := e.Matches(ctx, 46635009, DescendantOrSelf{ID: 73211009})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.Matches(ctx, 233604007, DescendantOrSelf{ID: 73211009})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewEvaluator_RequiresServingStore(t *testing.T) {
	s := store.New(store.Deps{})
	_, err := NewEvaluator(Deps{Store: s})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrStoreNotServing)
}

func TestJSONRoundTrip(t *testing.T) {
	exprs := []Expr{
		Wildcard{},
		ConceptRef{ID: 73211009},
		DescendantOrSelf{ID: 73211009},
		AncestorOf{ID: 46635009},
		MemberOf{RefsetID: 723264001},
		Minus{
			Left:  DescendantOrSelf{ID: 73211009},
			Right: ConceptRef{ID: 46635009},
		},
		Refinement{
			Base: DescendantOrSelf{ID: 404684003},
			Attributes: []Attribute{
				{TypeID: snomed.FindingSite, Value: DescendantOrSelf{ID: 39057004}},
			},
		},
		Grouped{Expr: And{Left: Wildcard{}, Right: ConceptRef{ID: 73211009}}},
	}

	for _, expr := range exprs {
		data, err := MarshalExpr(expr)
		require.NoError(t, err)
		decoded, err := UnmarshalExpr(data)
		require.NoError(t, err)
		assert.Equal(t, expr, decoded)
	}
}

func TestUnmarshalExpr_Errors(t *testing.T) {
	_, err := UnmarshalExpr([]byte(`{"op":"teleport","id":1}`))
	require.Error(t, err)

	_, err = UnmarshalExpr([]byte(`{"op":"and","left":{"op":"wildcard"}}`))
	require.Error(t, err)

	_, err = UnmarshalExpr([]byte(`{"op":"refinement","base":{"op":"wildcard"}}`))
	require.Error(t, err)

	_, err = UnmarshalExpr([]byte(`not json`))
	require.Error(t, err)
}
