// Package store owns the in-memory SNOMED CT graph: concept, description,
// and relationship indexes, parent/child adjacency, reference set
// membership, and MRCM rules.
//
// A store has two phases. During loading it accepts bulk inserts; after
// BeginServing it is immutable and freely shared by reference across any
// number of concurrent readers.
package store

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/c360/termgraph/closure"
	"github.com/c360/termgraph/errors"
	"github.com/c360/termgraph/snomed"
)

// Store is the in-memory terminology graph.
//
// Relationships are held once in a flat arena; the outgoing and incoming
// adjacency maps hold indices into it, so both views observe identical
// records without doubling relationship memory.
type Store struct {
	mu sync.Mutex // guards loading writes except the MRCM index, whose maps each have one load task

	concepts     map[snomed.SctID]snomed.Concept
	conceptOrder []snomed.SctID // insertion order, drives search ordering

	descriptionsByConcept map[snomed.SctID][]snomed.Description

	relationships []snomed.Relationship
	outgoing      map[snomed.SctID][]int32
	incoming      map[snomed.SctID][]int32

	// Adjacency derived from active IS_A rows.
	parents  map[snomed.SctID]map[snomed.SctID]struct{}
	children map[snomed.SctID]map[snomed.SctID]struct{}

	refsetMembers         map[snomed.SctID]map[snomed.SctID]struct{}
	languageByDescription map[snomed.SctID][]snomed.LanguageRefsetMember

	mrcm *MRCMIndex

	stats LoadStats

	// Serving-phase state, written exactly once by BeginServing.
	serving   atomic.Bool
	closure   *closure.Closure
	activeSet *roaring64.Bitmap

	logger *slog.Logger
}

// Deps holds runtime dependencies for the store.
type Deps struct {
	Logger *slog.Logger
}

// New creates an empty store in the loading phase.
func New(deps Deps) *Store {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		concepts:              make(map[snomed.SctID]snomed.Concept),
		descriptionsByConcept: make(map[snomed.SctID][]snomed.Description),
		outgoing:              make(map[snomed.SctID][]int32),
		incoming:              make(map[snomed.SctID][]int32),
		parents:               make(map[snomed.SctID]map[snomed.SctID]struct{}),
		children:              make(map[snomed.SctID]map[snomed.SctID]struct{}),
		refsetMembers:         make(map[snomed.SctID]map[snomed.SctID]struct{}),
		languageByDescription: make(map[snomed.SctID][]snomed.LanguageRefsetMember),
		mrcm:                  newMRCMIndex(),
		stats:                 newLoadStats(),
		logger:                logger,
	}
}

// IsServing reports whether the store has been published read-only.
func (s *Store) IsServing() bool {
	return s.serving.Load()
}

func (s *Store) checkLoading() error {
	if s.serving.Load() {
		return errors.WrapQuery(
			fmt.Errorf("store is serving: %w", errors.ErrInvalidConfig),
			"Store", "checkLoading", "mutation after publish")
	}
	return nil
}

// InsertConcepts appends concepts to the primary map.
func (s *Store) InsertConcepts(concepts []snomed.Concept) error {
	if err := s.checkLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range concepts {
		if _, exists := s.concepts[c.ID]; !exists {
			s.conceptOrder = append(s.conceptOrder, c.ID)
		}
		s.concepts[c.ID] = c
	}
	return nil
}

// InsertDescriptions appends descriptions, indexed by owning concept.
func (s *Store) InsertDescriptions(descriptions []snomed.Description) error {
	if err := s.checkLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range descriptions {
		s.descriptionsByConcept[d.ConceptID] = append(s.descriptionsByConcept[d.ConceptID], d)
	}
	return nil
}

// InsertRelationships appends relationships to the arena and indexes them
// from both endpoints. Active IS_A rows additionally contribute one edge to
// each of the parents and children maps.
func (s *Store) InsertRelationships(relationships []snomed.Relationship) error {
	if err := s.checkLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range relationships {
		idx := int32(len(s.relationships))
		s.relationships = append(s.relationships, r)
		s.outgoing[r.SourceID] = append(s.outgoing[r.SourceID], idx)
		s.incoming[r.DestinationID] = append(s.incoming[r.DestinationID], idx)

		if r.IsIsA() && r.Active {
			addEdge(s.parents, r.SourceID, r.DestinationID)
			addEdge(s.children, r.DestinationID, r.SourceID)
		}
	}
	return nil
}

func addEdge(m map[snomed.SctID]map[snomed.SctID]struct{}, from, to snomed.SctID) {
	set, ok := m[from]
	if !ok {
		set = make(map[snomed.SctID]struct{})
		m[from] = set
	}
	set[to] = struct{}{}
}

// InsertRefsetMembers records simple refset membership.
func (s *Store) InsertRefsetMembers(members []snomed.SimpleRefsetMember) error {
	if err := s.checkLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		addEdge(s.refsetMembers, m.RefsetID, m.ReferencedComponentID)
	}
	return nil
}

// InsertLanguageMembers records language refset acceptability by
// description. The data is indexed but not consulted by GetPreferredTerm.
func (s *Store) InsertLanguageMembers(members []snomed.LanguageRefsetMember) error {
	if err := s.checkLoading(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range members {
		s.languageByDescription[m.ReferencedComponentID] =
			append(s.languageByDescription[m.ReferencedComponentID], m)
	}
	return nil
}

// MRCM returns the MRCM rule index.
func (s *Store) MRCM() *MRCMIndex {
	return s.mrcm
}

// BeginServing installs the transitive closure, freezes the store, and
// publishes it read-only. The transition is irreversible.
func (s *Store) BeginServing(c *closure.Closure) error {
	if s.serving.Load() {
		return errors.WrapQuery(
			fmt.Errorf("%w: already serving", errors.ErrInvalidConfig),
			"Store", "BeginServing", "phase transition")
	}

	s.mu.Lock()
	s.closure = c
	s.activeSet = roaring64.New()
	for id, concept := range s.concepts {
		if concept.Active {
			s.activeSet.Add(id)
		}
	}
	s.countDanglingReferences()
	s.mu.Unlock()

	// Publication fence: readers observing serving==true see the fully
	// built indexes.
	s.serving.Store(true)

	s.logger.Info("store serving",
		"concepts", len(s.concepts),
		"relationships", len(s.relationships),
		"dangling_references", s.stats.DanglingReferences)
	return nil
}

// countDanglingReferences tallies relationships whose endpoints are not in
// the concept map. Dangling references are statistics, never failures.
func (s *Store) countDanglingReferences() {
	dangling := 0
	for _, r := range s.relationships {
		if _, ok := s.concepts[r.SourceID]; !ok {
			dangling++
			continue
		}
		if _, ok := s.concepts[r.DestinationID]; !ok {
			dangling++
		}
	}
	for conceptID := range s.descriptionsByConcept {
		if _, ok := s.concepts[conceptID]; !ok {
			dangling++
		}
	}
	s.stats.DanglingReferences = dangling
}

// Closure returns the installed transitive closure, or nil while loading.
func (s *Store) Closure() *closure.Closure {
	if !s.serving.Load() {
		return nil
	}
	return s.closure
}

// Stats returns the accumulated load statistics.
func (s *Store) Stats() LoadStats {
	return s.stats
}

func (s *Store) setFileStats(category string, stats FileStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.Files[category] = stats
}

func sortedIDs(set map[snomed.SctID]struct{}) []snomed.SctID {
	if len(set) == 0 {
		return nil
	}
	ids := make([]snomed.SctID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
