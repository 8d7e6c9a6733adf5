package store

import (
	"github.com/c360/termgraph/snomed"
)

// MRCMIndex stores Machine Readable Concept Model rules by the concept
// they constrain. The rules are indexed for an external expression
// validator; the ECL evaluator does not consult them.
type MRCMIndex struct {
	domains          map[snomed.SctID][]snomed.MRCMDomain
	attributeDomains map[snomed.SctID][]snomed.MRCMAttributeDomain
	attributeRanges  map[snomed.SctID][]snomed.MRCMAttributeRange
}

func newMRCMIndex() *MRCMIndex {
	return &MRCMIndex{
		domains:          make(map[snomed.SctID][]snomed.MRCMDomain),
		attributeDomains: make(map[snomed.SctID][]snomed.MRCMAttributeDomain),
		attributeRanges:  make(map[snomed.SctID][]snomed.MRCMAttributeRange),
	}
}

// InsertDomains indexes MRCM domain rules by domain concept.
func (m *MRCMIndex) InsertDomains(domains []snomed.MRCMDomain) {
	for _, d := range domains {
		m.domains[d.ReferencedComponentID] = append(m.domains[d.ReferencedComponentID], d)
	}
}

// InsertAttributeDomains indexes attribute-domain rules by attribute.
func (m *MRCMIndex) InsertAttributeDomains(rules []snomed.MRCMAttributeDomain) {
	for _, r := range rules {
		m.attributeDomains[r.ReferencedComponentID] = append(m.attributeDomains[r.ReferencedComponentID], r)
	}
}

// InsertAttributeRanges indexes attribute-range rules by attribute.
func (m *MRCMIndex) InsertAttributeRanges(rules []snomed.MRCMAttributeRange) {
	for _, r := range rules {
		m.attributeRanges[r.ReferencedComponentID] = append(m.attributeRanges[r.ReferencedComponentID], r)
	}
}

// DomainsFor returns the domain rules for a domain concept.
func (m *MRCMIndex) DomainsFor(conceptID snomed.SctID) []snomed.MRCMDomain {
	return m.domains[conceptID]
}

// AttributeDomains returns the attribute-domain rules for an attribute.
func (m *MRCMIndex) AttributeDomains(attributeID snomed.SctID) []snomed.MRCMAttributeDomain {
	return m.attributeDomains[attributeID]
}

// AttributeRanges returns the attribute-range rules for an attribute.
func (m *MRCMIndex) AttributeRanges(attributeID snomed.SctID) []snomed.MRCMAttributeRange {
	return m.attributeRanges[attributeID]
}

// IsAttributeValidForDomain reports whether any active attribute-domain
// rule binds the attribute to the domain.
func (m *MRCMIndex) IsAttributeValidForDomain(attributeID, domainID snomed.SctID) bool {
	for _, rule := range m.attributeDomains[attributeID] {
		if rule.Active && rule.DomainID == domainID {
			return true
		}
	}
	return false
}

// IsAttributeGrouped reports whether any active rule declares the
// attribute as grouped.
func (m *MRCMIndex) IsAttributeGrouped(attributeID snomed.SctID) bool {
	for _, rule := range m.attributeDomains[attributeID] {
		if rule.Active && rule.Grouped {
			return true
		}
	}
	return false
}

// RangeConstraint returns the first active range constraint for an
// attribute, or "" when none is loaded.
func (m *MRCMIndex) RangeConstraint(attributeID snomed.SctID) string {
	for _, rule := range m.attributeRanges[attributeID] {
		if rule.Active {
			return rule.RangeConstraint
		}
	}
	return ""
}

// DomainCount returns the number of domain concepts with rules.
func (m *MRCMIndex) DomainCount() int {
	return len(m.domains)
}

// AttributeDomainCount returns the number of attributes with domain rules.
func (m *MRCMIndex) AttributeDomainCount() int {
	return len(m.attributeDomains)
}

// AttributeRangeCount returns the number of attributes with range rules.
func (m *MRCMIndex) AttributeRangeCount() int {
	return len(m.attributeRanges)
}

// IsEmpty reports whether no MRCM data was loaded.
func (m *MRCMIndex) IsEmpty() bool {
	return len(m.domains) == 0 && len(m.attributeDomains) == 0 && len(m.attributeRanges) == 0
}
