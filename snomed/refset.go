package snomed

// SimpleRefsetMember is one row of a der2_Refset_Simple file: a bare
// membership assertion for the referenced component.
type SimpleRefsetMember struct {
	ID                    SctID  `json:"id"`
	EffectiveTime         uint32 `json:"effective_time"`
	Active                bool   `json:"active"`
	ModuleID              SctID  `json:"module_id"`
	RefsetID              SctID  `json:"refset_id"`
	ReferencedComponentID SctID  `json:"referenced_component_id"`
}

// LanguageRefsetMember is one row of a der2_cRefset_Language file. The
// referenced component is a description; acceptability ranks it within the
// language refset.
type LanguageRefsetMember struct {
	ID                    SctID  `json:"id"`
	EffectiveTime         uint32 `json:"effective_time"`
	Active                bool   `json:"active"`
	ModuleID              SctID  `json:"module_id"`
	RefsetID              SctID  `json:"refset_id"`
	ReferencedComponentID SctID  `json:"referenced_component_id"`
	AcceptabilityID       SctID  `json:"acceptability_id"`
}

// IsPreferred reports whether the member marks its description as preferred.
func (m LanguageRefsetMember) IsPreferred() bool {
	return m.AcceptabilityID == PreferredAcceptability
}

// IsAcceptable reports whether the member marks its description as
// acceptable (but not preferred).
func (m LanguageRefsetMember) IsAcceptable() bool {
	return m.AcceptabilityID == AcceptableAcceptability
}
