package closure

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/termgraph/snomed"
)

// mapHierarchy is a test double over explicit child adjacency.
type mapHierarchy struct {
	order    []snomed.SctID
	children map[snomed.SctID][]snomed.SctID
}

func (h *mapHierarchy) EachConceptID(visit func(id snomed.SctID) bool) {
	for _, id := range h.order {
		if !visit(id) {
			return
		}
	}
}

func (h *mapHierarchy) GetChildren(id snomed.SctID) []snomed.SctID {
	return h.children[id]
}

// diabetesHierarchy builds the fixture tree:
//
//	138875005 (root)
//	  └── 404684003 (clinical finding)
//	        ├── 73211009 (diabetes mellitus)
//	        │     ├── 46635009 (type 1)
//	        │     └── 44054006 (type 2)
//	        └── 22298006 (myocardial infarction)
func diabetesHierarchy() *mapHierarchy {
	return &mapHierarchy{
		order: []snomed.SctID{138875005, 404684003, 73211009, 46635009, 44054006, 22298006},
		children: map[snomed.SctID][]snomed.SctID{
			138875005: {404684003},
			404684003: {73211009, 22298006},
			73211009:  {46635009, 44054006},
		},
	}
}

func TestBuild_Descendants(t *testing.T) {
	c := Build(diabetesHierarchy(), slog.Default())

	assert.ElementsMatch(t,
		[]snomed.SctID{46635009, 44054006},
		c.Descendants(73211009))
	assert.ElementsMatch(t,
		[]snomed.SctID{73211009, 46635009, 44054006, 22298006},
		c.Descendants(404684003))
	assert.ElementsMatch(t,
		[]snomed.SctID{404684003, 73211009, 46635009, 44054006, 22298006},
		c.Descendants(138875005))

	// Leaves have no descendants; the root has no ancestors.
	assert.Empty(t, c.Descendants(46635009))
	assert.Empty(t, c.Ancestors(138875005))
}

func TestBuild_Ancestors(t *testing.T) {
	c := Build(diabetesHierarchy(), slog.Default())

	assert.ElementsMatch(t,
		[]snomed.SctID{73211009, 404684003, 138875005},
		c.Ancestors(46635009))
	assert.ElementsMatch(t,
		[]snomed.SctID{404684003, 138875005},
		c.Ancestors(73211009))
}

func TestBuild_ClosureConsistency(t *testing.T) {
	h := diabetesHierarchy()
	c := Build(h, slog.Default())

	// b in descendants(a) <=> a in ancestors(b), and a not in descendants(a).
	for _, a := range h.order {
		descSet := c.DescendantsBitmap(a)
		require.NotNil(t, descSet)
		assert.False(t, descSet.Contains(a), "self in descendants of %d", a)

		for _, b := range h.order {
			inDesc := descSet.Contains(b)
			ancSet := c.AncestorsBitmap(b)
			inAnc := ancSet != nil && ancSet.Contains(a)
			assert.Equal(t, inDesc, inAnc, "inversion mismatch a=%d b=%d", a, b)
		}
	}
}

func TestBuild_IsDescendantOf(t *testing.T) {
	c := Build(diabetesHierarchy(), slog.Default())

	assert.True(t, c.IsDescendantOf(46635009, 73211009))
	assert.True(t, c.IsDescendantOf(46635009, 138875005))
	assert.False(t, c.IsDescendantOf(73211009, 46635009))
	assert.False(t, c.IsDescendantOf(73211009, 73211009))
	assert.False(t, c.IsDescendantOf(22298006, 73211009))
}

func TestBuild_CycleQuarantine(t *testing.T) {
	// 100 -> 200 -> 300 -> 200 (cycle between 200 and 300), 300 -> 400
	h := &mapHierarchy{
		order: []snomed.SctID{100, 200, 300, 400},
		children: map[snomed.SctID][]snomed.SctID{
			100: {200},
			200: {300},
			300: {200, 400},
		},
	}

	c := Build(h, slog.Default())
	assert.Equal(t, 1, c.CycleCount())

	// Cycle members are mutual ancestors and mutual descendants.
	assert.True(t, c.IsDescendantOf(200, 300))
	assert.True(t, c.IsDescendantOf(300, 200))
	assert.ElementsMatch(t, []snomed.SctID{300, 400}, c.Descendants(200))
	assert.ElementsMatch(t, []snomed.SctID{200, 400}, c.Descendants(300))

	// Nodes below the cycle see both members as ancestors.
	assert.ElementsMatch(t, []snomed.SctID{100, 200, 300}, c.Ancestors(400))

	// The node above the cycle sees the whole cone.
	assert.ElementsMatch(t, []snomed.SctID{200, 300, 400}, c.Descendants(100))
}

func TestBuild_MultipleParents(t *testing.T) {
	// Diamond: 1 -> 2, 1 -> 3, 2 -> 4, 3 -> 4
	h := &mapHierarchy{
		order: []snomed.SctID{1, 2, 3, 4},
		children: map[snomed.SctID][]snomed.SctID{
			1: {2, 3},
			2: {4},
			3: {4},
		},
	}

	c := Build(h, slog.Default())
	assert.Equal(t, 0, c.CycleCount())
	assert.ElementsMatch(t, []snomed.SctID{2, 3, 4}, c.Descendants(1))
	assert.ElementsMatch(t, []snomed.SctID{1, 2, 3}, c.Ancestors(4))
}

func TestDescendants_SortedAscending(t *testing.T) {
	c := Build(diabetesHierarchy(), slog.Default())
	ids := c.Descendants(138875005)
	assert.True(t, sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] }))
}

func TestPersistence_RoundTrip(t *testing.T) {
	c := Build(diabetesHierarchy(), slog.Default())
	path := filepath.Join(t.TempDir(), "closure.bin")
	tag := Tag{
		ReleaseDate: "20250201",
		SourceHashes: map[string]string{
			"concept":      "aaa",
			"relationship": "bbb",
		},
	}

	require.NoError(t, c.Save(path, tag))

	loaded, err := LoadFile(path, tag)
	require.NoError(t, err)

	assert.Equal(t, c.ConceptCount(), loaded.ConceptCount())
	assert.Equal(t, c.CycleCount(), loaded.CycleCount())
	assert.Equal(t, c.Descendants(404684003), loaded.Descendants(404684003))
	assert.Equal(t, c.Ancestors(46635009), loaded.Ancestors(46635009))
	assert.True(t, loaded.IsDescendantOf(46635009, 138875005))
}

func TestPersistence_TagMismatchForcesRebuild(t *testing.T) {
	c := Build(diabetesHierarchy(), slog.Default())
	path := filepath.Join(t.TempDir(), "closure.bin")
	tag := Tag{ReleaseDate: "20250201", SourceHashes: map[string]string{"concept": "aaa"}}
	require.NoError(t, c.Save(path, tag))

	_, err := LoadFile(path, Tag{ReleaseDate: "20250801", SourceHashes: map[string]string{"concept": "aaa"}})
	assert.ErrorIs(t, err, ErrTagMismatch)

	_, err = LoadFile(path, Tag{ReleaseDate: "20250201", SourceHashes: map[string]string{"concept": "zzz"}})
	assert.ErrorIs(t, err, ErrTagMismatch)
}

func TestPersistence_RejectsForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-closure.bin")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a closure cache"), 0o644))

	_, err := LoadFile(path, Tag{})
	assert.ErrorIs(t, err, ErrBadFormat)
}
