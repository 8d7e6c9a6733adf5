package snomed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConceptStatus(t *testing.T) {
	primitive := Concept{ID: 404684003, DefinitionStatusID: PrimitiveStatus}
	defined := Concept{ID: 404684003, DefinitionStatusID: FullyDefinedStatus}

	assert.True(t, primitive.IsPrimitive())
	assert.False(t, primitive.IsFullyDefined())
	assert.True(t, defined.IsFullyDefined())
	assert.False(t, defined.IsPrimitive())
}

func TestDescriptionType(t *testing.T) {
	fsn := Description{TypeID: FSNType, Term: "Diabetes mellitus (disorder)"}
	syn := Description{TypeID: SynonymType, Term: "Diabetes"}
	def := Description{TypeID: DefinitionType, Term: "A metabolic disorder..."}

	assert.True(t, fsn.IsFSN())
	assert.False(t, fsn.IsSynonym())
	assert.True(t, syn.IsSynonym())
	assert.True(t, def.IsDefinition())
}

func TestSemanticTag(t *testing.T) {
	tests := []struct {
		term string
		tag  string
	}{
		{"Diabetes mellitus (disorder)", "disorder"},
		{"Procedure (procedure)", "procedure"},
		{"Left (qualifier value)", "qualifier value"},
		{"No tag here", ""},
		{"Mismatched ) ( parens", ""},
		{"", ""},
	}

	for _, test := range tests {
		d := Description{TypeID: FSNType, Term: test.term}
		assert.Equal(t, test.tag, d.SemanticTag(), "term %q", test.term)
	}
}

func TestRelationshipPredicates(t *testing.T) {
	isA := Relationship{TypeID: IsA, CharacteristicTypeID: InferredRelationship}
	findingSite := Relationship{TypeID: FindingSite, CharacteristicTypeID: StatedRelationship}

	assert.True(t, isA.IsIsA())
	assert.True(t, isA.IsInferred())
	assert.False(t, isA.IsStated())

	assert.False(t, findingSite.IsIsA())
	assert.True(t, findingSite.IsStated())
}

func TestLanguageRefsetAcceptability(t *testing.T) {
	preferred := LanguageRefsetMember{AcceptabilityID: PreferredAcceptability}
	acceptable := LanguageRefsetMember{AcceptabilityID: AcceptableAcceptability}

	assert.True(t, preferred.IsPreferred())
	assert.False(t, preferred.IsAcceptable())
	assert.True(t, acceptable.IsAcceptable())
	assert.False(t, acceptable.IsPreferred())
}

func TestWellKnownIDs(t *testing.T) {
	assert.Equal(t, SctID(138875005), SnomedCTRoot)
	assert.Equal(t, SctID(404684003), ClinicalFinding)
	assert.Equal(t, SctID(116680003), IsA)
	assert.Equal(t, SctID(363698007), FindingSite)
	assert.Equal(t, SctID(900000000000207008), CoreModule)
}
