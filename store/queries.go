package store

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/c360/termgraph/errors"
	"github.com/c360/termgraph/snomed"
)

// Bounds for the BFS fallback used before the closure is installed.
const (
	maxTraversalDepth = 1024
	maxIterations     = 10_000_000
)

// GetConcept returns a concept by id.
func (s *Store) GetConcept(id snomed.SctID) (snomed.Concept, bool) {
	c, ok := s.concepts[id]
	return c, ok
}

// HasConcept reports whether the concept exists in the store.
func (s *Store) HasConcept(id snomed.SctID) bool {
	_, ok := s.concepts[id]
	return ok
}

// IsConceptActive reports whether the concept exists and is active.
func (s *Store) IsConceptActive(id snomed.SctID) bool {
	c, ok := s.concepts[id]
	return ok && c.Active
}

// ConceptCount returns the number of concepts.
func (s *Store) ConceptCount() int {
	return len(s.concepts)
}

// DescriptionCount returns the number of descriptions.
func (s *Store) DescriptionCount() int {
	total := 0
	for _, descs := range s.descriptionsByConcept {
		total += len(descs)
	}
	return total
}

// RelationshipCount returns the number of relationships.
func (s *Store) RelationshipCount() int {
	return len(s.relationships)
}

// GetDescriptions returns all descriptions of a concept in file order.
func (s *Store) GetDescriptions(conceptID snomed.SctID) []snomed.Description {
	return s.descriptionsByConcept[conceptID]
}

// GetFSN returns the first active Fully Specified Name of a concept.
func (s *Store) GetFSN(conceptID snomed.SctID) (snomed.Description, bool) {
	for _, d := range s.descriptionsByConcept[conceptID] {
		if d.Active && d.IsFSN() {
			return d, true
		}
	}
	return snomed.Description{}, false
}

// GetPreferredTerm returns the first active synonym of a concept, falling
// back to the FSN. Language refset acceptability is not consulted.
func (s *Store) GetPreferredTerm(conceptID snomed.SctID) (string, bool) {
	descs := s.descriptionsByConcept[conceptID]
	for _, d := range descs {
		if d.Active && d.IsSynonym() {
			return d.Term, true
		}
	}
	for _, d := range descs {
		if d.Active && d.IsFSN() {
			return d.Term, true
		}
	}
	return "", false
}

// GetOutgoing returns the relationships where the concept is the source,
// in file order. Active and inactive rows are both retained.
func (s *Store) GetOutgoing(sourceID snomed.SctID) []snomed.Relationship {
	return s.materialize(s.outgoing[sourceID])
}

// GetIncoming returns the relationships where the concept is the
// destination, in file order.
func (s *Store) GetIncoming(destinationID snomed.SctID) []snomed.Relationship {
	return s.materialize(s.incoming[destinationID])
}

func (s *Store) materialize(indices []int32) []snomed.Relationship {
	if len(indices) == 0 {
		return nil
	}
	rels := make([]snomed.Relationship, len(indices))
	for i, idx := range indices {
		rels[i] = s.relationships[idx]
	}
	return rels
}

// EachOutgoing visits each relationship where the concept is the source
// without materializing a slice. Returning false stops the visit.
func (s *Store) EachOutgoing(sourceID snomed.SctID, visit func(r snomed.Relationship) bool) {
	for _, idx := range s.outgoing[sourceID] {
		if !visit(s.relationships[idx]) {
			return
		}
	}
}

// GetParents returns the direct parents over active IS_A, sorted.
func (s *Store) GetParents(conceptID snomed.SctID) []snomed.SctID {
	return sortedIDs(s.parents[conceptID])
}

// GetChildren returns the direct children over active IS_A, sorted.
func (s *Store) GetChildren(conceptID snomed.SctID) []snomed.SctID {
	return sortedIDs(s.children[conceptID])
}

// GetAncestors returns all transitive ancestors of a concept, excluding
// itself. O(1) via the closure once serving; bounded BFS otherwise.
func (s *Store) GetAncestors(conceptID snomed.SctID) ([]snomed.SctID, error) {
	if c := s.Closure(); c != nil {
		return c.Ancestors(conceptID), nil
	}
	return s.traverse(conceptID, s.parents)
}

// GetDescendants returns all transitive descendants of a concept,
// excluding itself.
func (s *Store) GetDescendants(conceptID snomed.SctID) ([]snomed.SctID, error) {
	if c := s.Closure(); c != nil {
		return c.Descendants(conceptID), nil
	}
	return s.traverse(conceptID, s.children)
}

// AncestorsBitmap returns the closure's ancestor set, or nil before the
// closure is installed. Callers must not mutate the result.
func (s *Store) AncestorsBitmap(conceptID snomed.SctID) *roaring64.Bitmap {
	if c := s.Closure(); c != nil {
		return c.AncestorsBitmap(conceptID)
	}
	return nil
}

// DescendantsBitmap returns the closure's descendant set, or nil before
// the closure is installed. Callers must not mutate the result.
func (s *Store) DescendantsBitmap(conceptID snomed.SctID) *roaring64.Bitmap {
	if c := s.Closure(); c != nil {
		return c.DescendantsBitmap(conceptID)
	}
	return nil
}

// IsDescendantOf reports whether ancestorID is reachable from conceptID
// through one or more active IS_A parent edges.
func (s *Store) IsDescendantOf(conceptID, ancestorID snomed.SctID) (bool, error) {
	if c := s.Closure(); c != nil {
		return c.IsDescendantOf(conceptID, ancestorID), nil
	}

	visited := make(map[snomed.SctID]struct{})
	frontier := []snomed.SctID{conceptID}
	iterations := 0
	for depth := 0; len(frontier) > 0; depth++ {
		if depth > maxTraversalDepth {
			return false, errors.WrapResource(errors.ErrDepthExceeded,
				"Store", "IsDescendantOf", "hierarchy walk")
		}
		var next []snomed.SctID
		for _, id := range frontier {
			iterations++
			if iterations > maxIterations {
				return false, errors.WrapResource(errors.ErrIterationExceeded,
					"Store", "IsDescendantOf", "hierarchy walk")
			}
			for parent := range s.parents[id] {
				if parent == ancestorID {
					return true, nil
				}
				if _, seen := visited[parent]; !seen {
					visited[parent] = struct{}{}
					next = append(next, parent)
				}
			}
		}
		frontier = next
	}
	return false, nil
}

// traverse is the pre-closure BFS over an adjacency map, bounded by the
// depth and iteration caps.
func (s *Store) traverse(start snomed.SctID, adjacency map[snomed.SctID]map[snomed.SctID]struct{}) ([]snomed.SctID, error) {
	visited := make(map[snomed.SctID]struct{})
	frontier := []snomed.SctID{start}
	iterations := 0
	for depth := 0; len(frontier) > 0; depth++ {
		if depth > maxTraversalDepth {
			return nil, errors.WrapResource(errors.ErrDepthExceeded,
				"Store", "traverse", "hierarchy walk")
		}
		var next []snomed.SctID
		for _, id := range frontier {
			iterations++
			if iterations > maxIterations {
				return nil, errors.WrapResource(errors.ErrIterationExceeded,
					"Store", "traverse", "hierarchy walk")
			}
			for neighbor := range adjacency[id] {
				if _, seen := visited[neighbor]; !seen {
					visited[neighbor] = struct{}{}
					next = append(next, neighbor)
				}
			}
		}
		frontier = next
	}
	delete(visited, start)
	return sortedIDs(visited), nil
}

// RefsetMembers returns the referenced components of a loaded refset,
// sorted. Unknown refsets are a query error.
func (s *Store) RefsetMembers(refsetID snomed.SctID) ([]snomed.SctID, error) {
	members, ok := s.refsetMembers[refsetID]
	if !ok {
		return nil, errors.WrapQuery(
			fmt.Errorf("%w: %d", errors.ErrRefsetNotLoaded, refsetID),
			"Store", "RefsetMembers", "refset lookup")
	}
	return sortedIDs(members), nil
}

// HasRefset reports whether any members of the refset were loaded.
func (s *Store) HasRefset(refsetID snomed.SctID) bool {
	_, ok := s.refsetMembers[refsetID]
	return ok
}

// LanguageMembers returns the language refset rows referencing a
// description.
func (s *Store) LanguageMembers(descriptionID snomed.SctID) []snomed.LanguageRefsetMember {
	return s.languageByDescription[descriptionID]
}

// EachConceptID visits concept ids in insertion order. Returning false
// stops the visit.
func (s *Store) EachConceptID(visit func(id snomed.SctID) bool) {
	for _, id := range s.conceptOrder {
		if !visit(id) {
			return
		}
	}
}

// ActiveConceptsBitmap returns the set of active concept ids. Available
// once serving; callers must not mutate the result.
func (s *Store) ActiveConceptsBitmap() *roaring64.Bitmap {
	if !s.serving.Load() {
		return nil
	}
	return s.activeSet
}

// SearchMatch is one hit from Search.
type SearchMatch struct {
	ConceptID snomed.SctID `json:"concept_id"`
	Term      string       `json:"term"`
}

// Search returns the first limit concepts with a description term
// containing the query, case-insensitively, in concept insertion order.
// A limit of zero means unlimited.
func (s *Store) Search(query string, limit int, activeOnly bool) []SearchMatch {
	needle := strings.ToLower(query)
	var matches []SearchMatch
	for _, id := range s.conceptOrder {
		concept := s.concepts[id]
		if activeOnly && !concept.Active {
			continue
		}
		for _, d := range s.descriptionsByConcept[id] {
			if activeOnly && !d.Active {
				continue
			}
			if strings.Contains(strings.ToLower(d.Term), needle) {
				matches = append(matches, SearchMatch{ConceptID: id, Term: d.Term})
				break
			}
		}
		if limit > 0 && len(matches) >= limit {
			break
		}
	}
	return matches
}
