package rf2

import (
	"github.com/c360/termgraph/snomed"
)

// ConceptSpec decodes sct2_Concept_Snapshot files.
var ConceptSpec = Spec[snomed.Concept]{
	Name: "concept",
	Columns: []string{
		"id", "effectiveTime", "active", "moduleId", "definitionStatusId",
	},
	Decode: decodeConcept,
	Active: func(c snomed.Concept) bool { return c.Active },
}

func decodeConcept(fields []string) (snomed.Concept, error) {
	var c snomed.Concept
	var err error
	if c.ID, err = DecodeSctID(fields[0]); err != nil {
		return c, err
	}
	if c.EffectiveTime, err = DecodeEffectiveTime(fields[1]); err != nil {
		return c, err
	}
	if c.Active, err = DecodeBool(fields[2]); err != nil {
		return c, err
	}
	if c.ModuleID, err = DecodeSctID(fields[3]); err != nil {
		return c, err
	}
	if c.DefinitionStatusID, err = DecodeSctID(fields[4]); err != nil {
		return c, err
	}
	return c, nil
}

// DescriptionSpec decodes sct2_Description_Snapshot and
// sct2_TextDefinition_Snapshot files (identical layout).
var DescriptionSpec = Spec[snomed.Description]{
	Name: "description",
	Columns: []string{
		"id", "effectiveTime", "active", "moduleId", "conceptId",
		"languageCode", "typeId", "term", "caseSignificanceId",
	},
	Decode: decodeDescription,
	Active: func(d snomed.Description) bool { return d.Active },
}

func decodeDescription(fields []string) (snomed.Description, error) {
	var d snomed.Description
	var err error
	if d.ID, err = DecodeSctID(fields[0]); err != nil {
		return d, err
	}
	if d.EffectiveTime, err = DecodeEffectiveTime(fields[1]); err != nil {
		return d, err
	}
	if d.Active, err = DecodeBool(fields[2]); err != nil {
		return d, err
	}
	if d.ModuleID, err = DecodeSctID(fields[3]); err != nil {
		return d, err
	}
	if d.ConceptID, err = DecodeSctID(fields[4]); err != nil {
		return d, err
	}
	d.LanguageCode = fields[5]
	if d.TypeID, err = DecodeSctID(fields[6]); err != nil {
		return d, err
	}
	d.Term = fields[7]
	if d.CaseSignificanceID, err = DecodeSctID(fields[8]); err != nil {
		return d, err
	}
	return d, nil
}

// DescriptionFilters builds row filters from a DescriptionConfig.
func DescriptionFilters(config DescriptionConfig) []RowFilter[snomed.Description] {
	var filters []RowFilter[snomed.Description]
	if len(config.LanguageCodes) > 0 {
		codes := config.LanguageCodes
		filters = append(filters, func(d snomed.Description) bool {
			return containsString(codes, d.LanguageCode)
		})
	}
	if len(config.TypeIDs) > 0 {
		ids := config.TypeIDs
		filters = append(filters, func(d snomed.Description) bool {
			return containsID(ids, d.TypeID)
		})
	}
	return filters
}

// RelationshipSpec decodes sct2_Relationship_Snapshot and
// sct2_StatedRelationship_Snapshot files (identical layout).
var RelationshipSpec = Spec[snomed.Relationship]{
	Name: "relationship",
	Columns: []string{
		"id", "effectiveTime", "active", "moduleId", "sourceId",
		"destinationId", "relationshipGroup", "typeId",
		"characteristicTypeId", "modifierId",
	},
	Decode: decodeRelationship,
	Active: func(r snomed.Relationship) bool { return r.Active },
}

func decodeRelationship(fields []string) (snomed.Relationship, error) {
	var r snomed.Relationship
	var err error
	if r.ID, err = DecodeSctID(fields[0]); err != nil {
		return r, err
	}
	if r.EffectiveTime, err = DecodeEffectiveTime(fields[1]); err != nil {
		return r, err
	}
	if r.Active, err = DecodeBool(fields[2]); err != nil {
		return r, err
	}
	if r.ModuleID, err = DecodeSctID(fields[3]); err != nil {
		return r, err
	}
	if r.SourceID, err = DecodeSctID(fields[4]); err != nil {
		return r, err
	}
	if r.DestinationID, err = DecodeSctID(fields[5]); err != nil {
		return r, err
	}
	if r.Group, err = DecodeGroup(fields[6]); err != nil {
		return r, err
	}
	if r.TypeID, err = DecodeSctID(fields[7]); err != nil {
		return r, err
	}
	if r.CharacteristicTypeID, err = DecodeSctID(fields[8]); err != nil {
		return r, err
	}
	if r.ModifierID, err = DecodeSctID(fields[9]); err != nil {
		return r, err
	}
	return r, nil
}

// RelationshipFilters builds row filters from a RelationshipConfig.
func RelationshipFilters(config RelationshipConfig) []RowFilter[snomed.Relationship] {
	var filters []RowFilter[snomed.Relationship]
	if len(config.TypeIDs) > 0 {
		ids := config.TypeIDs
		filters = append(filters, func(r snomed.Relationship) bool {
			return containsID(ids, r.TypeID)
		})
	}
	if len(config.CharacteristicTypeIDs) > 0 {
		ids := config.CharacteristicTypeIDs
		filters = append(filters, func(r snomed.Relationship) bool {
			return containsID(ids, r.CharacteristicTypeID)
		})
	}
	return filters
}
