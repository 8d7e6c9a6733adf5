package snomed

// MRCM rows carry UUID member ids, unlike the numeric component files. The
// referenced component is the domain or attribute concept the rule is about.

// MRCMDomain is one row of a der2_cRefset_MRCMDomain file: constraint
// templates for a domain concept.
type MRCMDomain struct {
	ID                            string `json:"id"`
	EffectiveTime                 uint32 `json:"effective_time"`
	Active                        bool   `json:"active"`
	ModuleID                      SctID  `json:"module_id"`
	RefsetID                      SctID  `json:"refset_id"`
	ReferencedComponentID         SctID  `json:"referenced_component_id"`
	DomainConstraint              string `json:"domain_constraint"`
	ParentDomain                  SctID  `json:"parent_domain"` // 0 when absent
	ProximalPrimitiveConstraint   string `json:"proximal_primitive_constraint"`
	ProximalPrimitiveRefinement   string `json:"proximal_primitive_refinement"`
	DomainTemplateForPrecoord     string `json:"domain_template_for_precoordination"`
	DomainTemplateForPostcoord    string `json:"domain_template_for_postcoordination"`
	GuideURL                      string `json:"guide_url"`
}

// MRCMAttributeDomain is one row of a der2_cissccRefset_MRCMAttributeDomain
// file: which attributes are valid in which domains, and whether they group.
type MRCMAttributeDomain struct {
	ID                          string `json:"id"`
	EffectiveTime               uint32 `json:"effective_time"`
	Active                      bool   `json:"active"`
	ModuleID                    SctID  `json:"module_id"`
	RefsetID                    SctID  `json:"refset_id"`
	ReferencedComponentID       SctID  `json:"referenced_component_id"` // the attribute
	DomainID                    SctID  `json:"domain_id"`
	Grouped                     bool   `json:"grouped"`
	AttributeCardinality        string `json:"attribute_cardinality"`
	AttributeInGroupCardinality string `json:"attribute_in_group_cardinality"`
	RuleStrengthID              SctID  `json:"rule_strength_id"`
	ContentTypeID               SctID  `json:"content_type_id"`
}

// IsMandatory reports whether the rule is a mandatory concept model rule.
func (a MRCMAttributeDomain) IsMandatory() bool {
	return a.RuleStrengthID == MandatoryConceptModelRule
}

// MRCMAttributeRange is one row of a der2_ssccRefset_MRCMAttributeRange
// file: the valid value range for an attribute.
type MRCMAttributeRange struct {
	ID                    string `json:"id"`
	EffectiveTime         uint32 `json:"effective_time"`
	Active                bool   `json:"active"`
	ModuleID              SctID  `json:"module_id"`
	RefsetID              SctID  `json:"refset_id"`
	ReferencedComponentID SctID  `json:"referenced_component_id"` // the attribute
	RangeConstraint       string `json:"range_constraint"`
	AttributeRule         string `json:"attribute_rule"`
	RuleStrengthID        SctID  `json:"rule_strength_id"`
	ContentTypeID         SctID  `json:"content_type_id"`
}
