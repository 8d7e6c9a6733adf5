package rf2

import (
	"github.com/c360/termgraph/snomed"
)

// SimpleRefsetSpec decodes der2_Refset_Simple files.
var SimpleRefsetSpec = Spec[snomed.SimpleRefsetMember]{
	Name: "simple refset",
	Columns: []string{
		"id", "effectiveTime", "active", "moduleId", "refsetId",
		"referencedComponentId",
	},
	Decode: decodeSimpleRefsetMember,
	Active: func(m snomed.SimpleRefsetMember) bool { return m.Active },
}

func decodeSimpleRefsetMember(fields []string) (snomed.SimpleRefsetMember, error) {
	var m snomed.SimpleRefsetMember
	var err error
	if m.ID, err = DecodeSctID(fields[0]); err != nil {
		return m, err
	}
	if m.EffectiveTime, err = DecodeEffectiveTime(fields[1]); err != nil {
		return m, err
	}
	if m.Active, err = DecodeBool(fields[2]); err != nil {
		return m, err
	}
	if m.ModuleID, err = DecodeSctID(fields[3]); err != nil {
		return m, err
	}
	if m.RefsetID, err = DecodeSctID(fields[4]); err != nil {
		return m, err
	}
	if m.ReferencedComponentID, err = DecodeSctID(fields[5]); err != nil {
		return m, err
	}
	return m, nil
}

// LanguageRefsetSpec decodes der2_cRefset_Language files.
var LanguageRefsetSpec = Spec[snomed.LanguageRefsetMember]{
	Name: "language refset",
	Columns: []string{
		"id", "effectiveTime", "active", "moduleId", "refsetId",
		"referencedComponentId", "acceptabilityId",
	},
	Decode: decodeLanguageRefsetMember,
	Active: func(m snomed.LanguageRefsetMember) bool { return m.Active },
}

func decodeLanguageRefsetMember(fields []string) (snomed.LanguageRefsetMember, error) {
	var m snomed.LanguageRefsetMember
	var err error
	if m.ID, err = DecodeSctID(fields[0]); err != nil {
		return m, err
	}
	if m.EffectiveTime, err = DecodeEffectiveTime(fields[1]); err != nil {
		return m, err
	}
	if m.Active, err = DecodeBool(fields[2]); err != nil {
		return m, err
	}
	if m.ModuleID, err = DecodeSctID(fields[3]); err != nil {
		return m, err
	}
	if m.RefsetID, err = DecodeSctID(fields[4]); err != nil {
		return m, err
	}
	if m.ReferencedComponentID, err = DecodeSctID(fields[5]); err != nil {
		return m, err
	}
	if m.AcceptabilityID, err = DecodeSctID(fields[6]); err != nil {
		return m, err
	}
	return m, nil
}

// MRCMDomainSpec decodes der2_cRefset_MRCMDomain files. Member ids are
// UUIDs and kept verbatim.
var MRCMDomainSpec = Spec[snomed.MRCMDomain]{
	Name: "MRCM domain",
	Columns: []string{
		"id", "effectiveTime", "active", "moduleId", "refsetId",
		"referencedComponentId", "domainConstraint", "parentDomain",
		"proximalPrimitiveConstraint", "proximalPrimitiveRefinement",
		"domainTemplateForPrecoordination", "domainTemplateForPostcoordination",
		"guideURL",
	},
	Decode: decodeMRCMDomain,
	Active: func(d snomed.MRCMDomain) bool { return d.Active },
}

func decodeMRCMDomain(fields []string) (snomed.MRCMDomain, error) {
	var d snomed.MRCMDomain
	var err error
	d.ID = fields[0]
	if d.EffectiveTime, err = DecodeEffectiveTime(fields[1]); err != nil {
		return d, err
	}
	if d.Active, err = DecodeBool(fields[2]); err != nil {
		return d, err
	}
	if d.ModuleID, err = DecodeSctID(fields[3]); err != nil {
		return d, err
	}
	if d.RefsetID, err = DecodeSctID(fields[4]); err != nil {
		return d, err
	}
	if d.ReferencedComponentID, err = DecodeSctID(fields[5]); err != nil {
		return d, err
	}
	d.DomainConstraint = fields[6]
	// parentDomain may be empty or carry pipe notation:
	// "71388002 |Procedure (procedure)|"
	if d.ParentDomain, err = DecodeOptionalSctID(fields[7]); err != nil {
		return d, err
	}
	d.ProximalPrimitiveConstraint = fields[8]
	d.ProximalPrimitiveRefinement = fields[9]
	d.DomainTemplateForPrecoord = fields[10]
	d.DomainTemplateForPostcoord = fields[11]
	d.GuideURL = fields[12]
	return d, nil
}

// MRCMAttributeDomainSpec decodes der2_cissccRefset_MRCMAttributeDomain files.
var MRCMAttributeDomainSpec = Spec[snomed.MRCMAttributeDomain]{
	Name: "MRCM attribute domain",
	Columns: []string{
		"id", "effectiveTime", "active", "moduleId", "refsetId",
		"referencedComponentId", "domainId", "grouped",
		"attributeCardinality", "attributeInGroupCardinality",
		"ruleStrengthId", "contentTypeId",
	},
	Decode: decodeMRCMAttributeDomain,
	Active: func(a snomed.MRCMAttributeDomain) bool { return a.Active },
}

func decodeMRCMAttributeDomain(fields []string) (snomed.MRCMAttributeDomain, error) {
	var a snomed.MRCMAttributeDomain
	var err error
	a.ID = fields[0]
	if a.EffectiveTime, err = DecodeEffectiveTime(fields[1]); err != nil {
		return a, err
	}
	if a.Active, err = DecodeBool(fields[2]); err != nil {
		return a, err
	}
	if a.ModuleID, err = DecodeSctID(fields[3]); err != nil {
		return a, err
	}
	if a.RefsetID, err = DecodeSctID(fields[4]); err != nil {
		return a, err
	}
	if a.ReferencedComponentID, err = DecodeSctID(fields[5]); err != nil {
		return a, err
	}
	if a.DomainID, err = DecodeSctIDWithTerm(fields[6]); err != nil {
		return a, err
	}
	if a.Grouped, err = DecodeBool(fields[7]); err != nil {
		return a, err
	}
	a.AttributeCardinality = fields[8]
	a.AttributeInGroupCardinality = fields[9]
	if a.RuleStrengthID, err = DecodeSctID(fields[10]); err != nil {
		return a, err
	}
	if a.ContentTypeID, err = DecodeSctID(fields[11]); err != nil {
		return a, err
	}
	return a, nil
}

// MRCMAttributeRangeSpec decodes der2_ssccRefset_MRCMAttributeRange files.
var MRCMAttributeRangeSpec = Spec[snomed.MRCMAttributeRange]{
	Name: "MRCM attribute range",
	Columns: []string{
		"id", "effectiveTime", "active", "moduleId", "refsetId",
		"referencedComponentId", "rangeConstraint", "attributeRule",
		"ruleStrengthId", "contentTypeId",
	},
	Decode: decodeMRCMAttributeRange,
	Active: func(r snomed.MRCMAttributeRange) bool { return r.Active },
}

func decodeMRCMAttributeRange(fields []string) (snomed.MRCMAttributeRange, error) {
	var r snomed.MRCMAttributeRange
	var err error
	r.ID = fields[0]
	if r.EffectiveTime, err = DecodeEffectiveTime(fields[1]); err != nil {
		return r, err
	}
	if r.Active, err = DecodeBool(fields[2]); err != nil {
		return r, err
	}
	if r.ModuleID, err = DecodeSctID(fields[3]); err != nil {
		return r, err
	}
	if r.RefsetID, err = DecodeSctID(fields[4]); err != nil {
		return r, err
	}
	if r.ReferencedComponentID, err = DecodeSctID(fields[5]); err != nil {
		return r, err
	}
	r.RangeConstraint = fields[6]
	r.AttributeRule = fields[7]
	if r.RuleStrengthID, err = DecodeSctID(fields[8]); err != nil {
		return r, err
	}
	if r.ContentTypeID, err = DecodeSctID(fields[9]); err != nil {
		return r, err
	}
	return r, nil
}
