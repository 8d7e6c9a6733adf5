package snomed

import "strings"

// Concept is one row of an RF2 concept file. Immutable after insert.
type Concept struct {
	ID                 SctID  `json:"id"`
	EffectiveTime      uint32 `json:"effective_time"`
	Active             bool   `json:"active"`
	ModuleID           SctID  `json:"module_id"`
	DefinitionStatusID SctID  `json:"definition_status_id"`
}

// IsPrimitive reports whether the concept has primitive definition status.
func (c Concept) IsPrimitive() bool {
	return c.DefinitionStatusID == PrimitiveStatus
}

// IsFullyDefined reports whether the concept is fully defined.
func (c Concept) IsFullyDefined() bool {
	return c.DefinitionStatusID == FullyDefinedStatus
}

// Description is one row of an RF2 description (or text definition) file.
type Description struct {
	ID                 SctID  `json:"id"`
	EffectiveTime      uint32 `json:"effective_time"`
	Active             bool   `json:"active"`
	ModuleID           SctID  `json:"module_id"`
	ConceptID          SctID  `json:"concept_id"`
	LanguageCode       string `json:"language_code"`
	TypeID             SctID  `json:"type_id"`
	Term               string `json:"term"`
	CaseSignificanceID SctID  `json:"case_significance_id"`
}

// IsFSN reports whether this description is the Fully Specified Name.
func (d Description) IsFSN() bool {
	return d.TypeID == FSNType
}

// IsSynonym reports whether this description is a synonym.
func (d Description) IsSynonym() bool {
	return d.TypeID == SynonymType
}

// IsDefinition reports whether this description is a text definition.
func (d Description) IsDefinition() bool {
	return d.TypeID == DefinitionType
}

// SemanticTag extracts the semantic tag from an FSN term, the text between
// the last pair of parentheses: "Diabetes mellitus (disorder)" -> "disorder".
// Returns "" when the term carries no tag.
func (d Description) SemanticTag() string {
	start := strings.LastIndexByte(d.Term, '(')
	end := strings.LastIndexByte(d.Term, ')')
	if start < 0 || end < 0 || start >= end {
		return ""
	}
	return d.Term[start+1 : end]
}

// Relationship is one row of an RF2 relationship file. IS_A rows form the
// hierarchy; all other rows express attributes partitioned by Group.
type Relationship struct {
	ID                   SctID  `json:"id"`
	EffectiveTime        uint32 `json:"effective_time"`
	Active               bool   `json:"active"`
	ModuleID             SctID  `json:"module_id"`
	SourceID             SctID  `json:"source_id"`
	DestinationID        SctID  `json:"destination_id"`
	Group                uint16 `json:"group"`
	TypeID               SctID  `json:"type_id"`
	CharacteristicTypeID SctID  `json:"characteristic_type_id"`
	ModifierID           SctID  `json:"modifier_id"`
}

// IsIsA reports whether this is a hierarchy (subsumption) relationship.
func (r Relationship) IsIsA() bool {
	return r.TypeID == IsA
}

// IsInferred reports whether this relationship has the inferred
// characteristic type.
func (r Relationship) IsInferred() bool {
	return r.CharacteristicTypeID == InferredRelationship
}

// IsStated reports whether this relationship has the stated characteristic
// type.
func (r Relationship) IsStated() bool {
	return r.CharacteristicTypeID == StatedRelationship
}
