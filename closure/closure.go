// Package closure precomputes the transitive ancestor and descendant sets
// of the IS_A hierarchy, enabling O(1) subsumption tests and O(1)
// descendant or ancestor enumeration.
//
// Sets are held as compressed 64-bit bitmaps, which stay small for the
// long-ancestor-chain and shallow-descendant-tree distributions typical of
// SNOMED CT.
package closure

import (
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/c360/termgraph/snomed"
)

// Hierarchy is the view of the store the builder needs: the node set and
// the child adjacency over active IS_A.
type Hierarchy interface {
	EachConceptID(visit func(id snomed.SctID) bool)
	GetChildren(id snomed.SctID) []snomed.SctID
}

// Closure holds the per-concept ancestor and descendant sets. Both sets
// exclude the concept itself; add-self is an operator concern.
type Closure struct {
	descendants map[snomed.SctID]*roaring64.Bitmap
	ancestors   map[snomed.SctID]*roaring64.Bitmap
	sccCount    int
}

// Build computes the closure by strongly-connected-component condensation
// over the child adjacency, accumulating descendant sets in reverse
// topological order, then inverting them into ancestor sets.
//
// Cycles never abort the build: all members of an SCC become mutual
// ancestors and mutual descendants of each other, and a warning is logged.
func Build(h Hierarchy, logger *slog.Logger) *Closure {
	if logger == nil {
		logger = slog.Default()
	}

	var nodes []snomed.SctID
	h.EachConceptID(func(id snomed.SctID) bool {
		nodes = append(nodes, id)
		return true
	})

	sccs := condense(h, nodes)

	c := &Closure{
		descendants: make(map[snomed.SctID]*roaring64.Bitmap, len(nodes)),
		ancestors:   make(map[snomed.SctID]*roaring64.Bitmap, len(nodes)),
	}

	// condense emits SCCs successors-first, so every child's cone is
	// final before its parents are visited.
	cones := make([]*roaring64.Bitmap, len(sccs.components))
	for sccIdx, members := range sccs.components {
		cone := roaring64.New()
		for _, m := range members {
			for _, child := range h.GetChildren(m) {
				childSCC, known := sccs.index[child]
				if known && childSCC == sccIdx {
					continue // internal cycle edge, covered by members below
				}
				cone.Add(child)
				if known {
					cone.Or(cones[childSCC])
					for _, cm := range sccs.components[childSCC] {
						cone.Add(cm)
					}
				}
			}
		}
		cones[sccIdx] = cone

		if len(members) > 1 {
			c.sccCount++
			logger.Warn("IS_A cycle quarantined",
				"members", len(members), "representative", members[0])
		}

		for _, m := range members {
			set := cone.Clone()
			for _, other := range members {
				if other != m {
					set.Add(other)
				}
			}
			c.descendants[m] = set
		}
	}

	// Invert descendants into ancestors.
	for _, id := range nodes {
		c.ancestors[id] = roaring64.New()
	}
	for id, set := range c.descendants {
		it := set.Iterator()
		for it.HasNext() {
			d := it.Next()
			anc, ok := c.ancestors[d]
			if !ok {
				anc = roaring64.New()
				c.ancestors[d] = anc
			}
			anc.Add(id)
		}
	}

	logger.Info("transitive closure built",
		"concepts", len(nodes), "cycles", c.sccCount)
	return c
}

// sccResult is the condensation of the hierarchy: components in reverse
// topological order (successors first) and a node-to-component index.
type sccResult struct {
	components [][]snomed.SctID
	index      map[snomed.SctID]int
}

// condense runs an iterative Tarjan over the child adjacency. Iterative so
// that the deepest real-world chains (and pathological inputs) cannot
// overflow the goroutine stack.
func condense(h Hierarchy, nodes []snomed.SctID) sccResult {
	result := sccResult{index: make(map[snomed.SctID]int, len(nodes))}

	type frame struct {
		node     snomed.SctID
		children []snomed.SctID
		next     int
	}

	indexOf := make(map[snomed.SctID]int, len(nodes))
	lowlink := make(map[snomed.SctID]int, len(nodes))
	onStack := make(map[snomed.SctID]bool, len(nodes))
	var tarjanStack []snomed.SctID
	counter := 0

	for _, root := range nodes {
		if _, visited := indexOf[root]; visited {
			continue
		}

		callStack := []frame{{node: root, children: h.GetChildren(root)}}
		indexOf[root] = counter
		lowlink[root] = counter
		counter++
		tarjanStack = append(tarjanStack, root)
		onStack[root] = true

		for len(callStack) > 0 {
			top := &callStack[len(callStack)-1]

			if top.next < len(top.children) {
				child := top.children[top.next]
				top.next++
				if _, visited := indexOf[child]; !visited {
					indexOf[child] = counter
					lowlink[child] = counter
					counter++
					tarjanStack = append(tarjanStack, child)
					onStack[child] = true
					callStack = append(callStack, frame{node: child, children: h.GetChildren(child)})
				} else if onStack[child] {
					if indexOf[child] < lowlink[top.node] {
						lowlink[top.node] = indexOf[child]
					}
				}
				continue
			}

			// Node finished: emit its SCC if it is a root.
			if lowlink[top.node] == indexOf[top.node] {
				var members []snomed.SctID
				for {
					n := len(tarjanStack) - 1
					member := tarjanStack[n]
					tarjanStack = tarjanStack[:n]
					onStack[member] = false
					members = append(members, member)
					if member == top.node {
						break
					}
				}
				sccIdx := len(result.components)
				for _, m := range members {
					result.index[m] = sccIdx
				}
				result.components = append(result.components, members)
			}

			finished := top.node
			callStack = callStack[:len(callStack)-1]
			if len(callStack) > 0 {
				parent := &callStack[len(callStack)-1]
				if lowlink[finished] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[finished]
				}
			}
		}
	}

	return result
}

// Descendants returns the descendant ids of a concept in ascending order,
// excluding the concept itself. Unknown ids yield nil.
func (c *Closure) Descendants(id snomed.SctID) []snomed.SctID {
	set, ok := c.descendants[id]
	if !ok || set.IsEmpty() {
		return nil
	}
	return set.ToArray()
}

// Ancestors returns the ancestor ids of a concept in ascending order,
// excluding the concept itself. Unknown ids yield nil.
func (c *Closure) Ancestors(id snomed.SctID) []snomed.SctID {
	set, ok := c.ancestors[id]
	if !ok || set.IsEmpty() {
		return nil
	}
	return set.ToArray()
}

// DescendantsBitmap returns the internal descendant set, or nil for
// unknown ids. Callers must not mutate the result.
func (c *Closure) DescendantsBitmap(id snomed.SctID) *roaring64.Bitmap {
	return c.descendants[id]
}

// AncestorsBitmap returns the internal ancestor set, or nil for unknown
// ids. Callers must not mutate the result.
func (c *Closure) AncestorsBitmap(id snomed.SctID) *roaring64.Bitmap {
	return c.ancestors[id]
}

// IsDescendantOf reports whether ancestorID is a transitive ancestor of
// conceptID.
func (c *Closure) IsDescendantOf(conceptID, ancestorID snomed.SctID) bool {
	set, ok := c.ancestors[conceptID]
	return ok && set.Contains(ancestorID)
}

// ConceptCount returns the number of concepts covered by the closure.
func (c *Closure) ConceptCount() int {
	return len(c.descendants)
}

// CycleCount returns the number of non-trivial SCCs quarantined during the
// build.
func (c *Closure) CycleCount() int {
	return c.sccCount
}
