// Package snomed provides the core SNOMED CT value types: identifiers,
// well-known concept constants, and the RF2 record structs shared by the
// parser, store, closure, and ECL layers.
package snomed

// SctID is a SNOMED CT identifier. All component and concept identifiers in
// an RF2 release are unsigned 64-bit integers; zero is reserved and never a
// valid identifier.
type SctID = uint64

// Root concept
const (
	// SnomedCTRoot is the single root of the entire SNOMED CT hierarchy.
	SnomedCTRoot SctID = 138875005
)

// Top-level hierarchies
const (
	ClinicalFinding       SctID = 404684003
	Procedure             SctID = 71388002
	BodyStructure         SctID = 123037004
	Organism              SctID = 410607006
	Substance             SctID = 105590001
	PharmaceuticalProduct SctID = 373873005
	QualifierValue        SctID = 362981000
	ObservableEntity      SctID = 363787002
	Event                 SctID = 272379006
	PhysicalObject        SctID = 260787004
	Specimen              SctID = 123038009
)

// Relationship types
const (
	// IsA is the subsumption relationship type that defines the hierarchy.
	IsA SctID = 116680003

	FindingSite          SctID = 363698007
	AssociatedMorphology SctID = 116676008
	CausativeAgent       SctID = 246075003
	Severity             SctID = 246112005
	Laterality           SctID = 272741003
	ClinicalCourse       SctID = 263502005
	Interprets           SctID = 363714003
	HasInterpretation    SctID = 363713009
)

// Description types
const (
	// FSNType marks a description as the Fully Specified Name.
	FSNType SctID = 900000000000003001
	// SynonymType marks a description as a synonym.
	SynonymType SctID = 900000000000013009
	// DefinitionType marks a description as a text definition.
	DefinitionType SctID = 900000000000550004
)

// Definition statuses
const (
	PrimitiveStatus    SctID = 900000000000074008
	FullyDefinedStatus SctID = 900000000000073002
)

// Case significance
const (
	CaseInsensitive               SctID = 900000000000448009
	EntireTermCaseSensitive       SctID = 900000000000017005
	InitialCharacterCaseSensitive SctID = 900000000000020002
)

// Characteristic types
const (
	StatedRelationship     SctID = 900000000000010007
	InferredRelationship   SctID = 900000000000011006
	AdditionalRelationship SctID = 900000000000227009
)

// Modifiers
const (
	ExistentialModifier SctID = 900000000000451002
	UniversalModifier   SctID = 900000000000450001
)

// Modules
const (
	CoreModule           SctID = 900000000000207008
	ModelComponentModule SctID = 900000000000012004
)

// Language refset acceptability
const (
	PreferredAcceptability  SctID = 900000000000548007
	AcceptableAcceptability SctID = 900000000000549004
)

// MRCM reference sets
const (
	MRCMDomainRefset          SctID = 723589008
	MRCMAttributeDomainRefset SctID = 723604009
	MRCMAttributeRangeRefset  SctID = 723592007

	MandatoryConceptModelRule SctID = 723597001
	OptionalConceptModelRule  SctID = 723598006
)
