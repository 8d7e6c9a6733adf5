package ecl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/c360/termgraph/errors"
	"github.com/c360/termgraph/snomed"
	"github.com/c360/termgraph/store"
)

// probeCheckInterval is how many refinement probes run between cancellation
// checks. Combinator boundaries always check.
const probeCheckInterval = 10_000

// Result is the outcome of evaluating an expression. IDs holds at most the
// requested limit; TotalCount is the full cardinality of the answer set so
// callers can report truncation.
type Result struct {
	IDs           []snomed.SctID `json:"ids"`
	TotalCount    int            `json:"total_count"`
	Truncated     bool           `json:"truncated"`
	ExecutionTime time.Duration  `json:"execution_time"`
}

// Evaluator walks ECL expression trees over a serving store.
type Evaluator struct {
	store  *store.Store
	logger *slog.Logger
}

// Deps holds runtime dependencies for the evaluator.
type Deps struct {
	Store  *store.Store
	Logger *slog.Logger
}

// NewEvaluator creates an evaluator. The store must be serving: evaluation
// relies on the closure and the active-concept set built at publish time.
func NewEvaluator(deps Deps) (*Evaluator, error) {
	if deps.Store == nil || !deps.Store.IsServing() {
		return nil, errors.WrapQuery(errors.ErrStoreNotServing,
			"Evaluator", "NewEvaluator", "store check")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{store: deps.Store, logger: logger}, nil
}

// Evaluate computes the answer set of an expression. A limit of zero means
// unlimited. On cancellation no partial result is returned.
func (e *Evaluator) Evaluate(ctx context.Context, expr Expr, limit int) (Result, error) {
	start := time.Now()

	set, err := e.eval(ctx, expr)
	if err != nil {
		return Result{}, err
	}

	total := int(set.GetCardinality())
	count := total
	if limit > 0 && limit < count {
		count = limit
	}

	ids := make([]snomed.SctID, 0, count)
	it := set.Iterator()
	for it.HasNext() && len(ids) < count {
		ids = append(ids, it.Next())
	}

	return Result{
		IDs:           ids,
		TotalCount:    total,
		Truncated:     total > count,
		ExecutionTime: time.Since(start),
	}, nil
}

// Matches reports whether a single concept satisfies the expression.
func (e *Evaluator) Matches(ctx context.Context, id snomed.SctID, expr Expr) (bool, error) {
	set, err := e.eval(ctx, expr)
	if err != nil {
		return false, err
	}
	return set.Contains(id), nil
}

// eval returns the answer set for one node. The returned bitmap is owned
// by the caller and safe to mutate.
func (e *Evaluator) eval(ctx context.Context, expr Expr) (*roaring64.Bitmap, error) {
	if err := checkCancelled(ctx); err != nil {
		return nil, err
	}

	switch node := expr.(type) {
	case Wildcard:
		return e.store.ActiveConceptsBitmap().Clone(), nil

	case ConceptRef:
		if err := e.checkConcept(node.ID); err != nil {
			return nil, err
		}
		set := roaring64.New()
		if e.store.IsConceptActive(node.ID) {
			set.Add(node.ID)
		}
		return set, nil

	case DescendantOf:
		return e.hierarchySet(node.ID, false, false)

	case DescendantOrSelf:
		return e.hierarchySet(node.ID, false, true)

	case AncestorOf:
		return e.hierarchySet(node.ID, true, false)

	case AncestorOrSelf:
		return e.hierarchySet(node.ID, true, true)

	case MemberOf:
		members, err := e.store.RefsetMembers(node.RefsetID)
		if err != nil {
			return nil, err
		}
		set := roaring64.New()
		set.AddMany(members)
		set.And(e.store.ActiveConceptsBitmap())
		return set, nil

	case And:
		left, err := e.eval(ctx, node.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(ctx, node.Right)
		if err != nil {
			return nil, err
		}
		left.And(right)
		return left, nil

	case Or:
		left, err := e.eval(ctx, node.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(ctx, node.Right)
		if err != nil {
			return nil, err
		}
		left.Or(right)
		return left, nil

	case Minus:
		left, err := e.eval(ctx, node.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(ctx, node.Right)
		if err != nil {
			return nil, err
		}
		left.AndNot(right)
		return left, nil

	case Refinement:
		return e.evalRefinement(ctx, node)

	case Grouped:
		return e.eval(ctx, node.Expr)

	default:
		return nil, errors.WrapQuery(
			fmt.Errorf("unknown ECL node type %T", expr),
			"Evaluator", "eval", "dispatch")
	}
}

// hierarchySet answers the four hierarchy operators from the closure.
func (e *Evaluator) hierarchySet(id snomed.SctID, ancestors, includeSelf bool) (*roaring64.Bitmap, error) {
	if err := e.checkConcept(id); err != nil {
		return nil, err
	}

	var shared *roaring64.Bitmap
	if ancestors {
		shared = e.store.AncestorsBitmap(id)
	} else {
		shared = e.store.DescendantsBitmap(id)
	}

	set := roaring64.New()
	if shared != nil {
		set.Or(shared)
	}
	if includeSelf {
		set.Add(id)
	}
	return set, nil
}

// evalRefinement filters the base set to concepts carrying, for every
// attribute, at least one active relationship of the attribute's type
// whose destination is in the attribute's value set. A match always
// references one physical relationship record.
func (e *Evaluator) evalRefinement(ctx context.Context, node Refinement) (*roaring64.Bitmap, error) {
	base, err := e.eval(ctx, node.Base)
	if err != nil {
		return nil, err
	}

	valueSets := make([]*roaring64.Bitmap, len(node.Attributes))
	for i, attr := range node.Attributes {
		valueSet, err := e.eval(ctx, attr.Value)
		if err != nil {
			return nil, err
		}
		valueSets[i] = valueSet
	}

	result := roaring64.New()
	probes := 0
	it := base.Iterator()
	for it.HasNext() {
		conceptID := it.Next()

		matchesAll := true
		for i, attr := range node.Attributes {
			probes++
			if probes%probeCheckInterval == 0 {
				if err := checkCancelled(ctx); err != nil {
					return nil, err
				}
			}
			if !e.hasAttribute(conceptID, attr.TypeID, valueSets[i]) {
				matchesAll = false
				break
			}
		}
		if matchesAll {
			result.Add(conceptID)
		}
	}
	return result, nil
}

// hasAttribute probes the concept's outgoing relationships for one active
// row of the given type targeting the value set.
func (e *Evaluator) hasAttribute(conceptID, typeID snomed.SctID, valueSet *roaring64.Bitmap) bool {
	found := false
	e.store.EachOutgoing(conceptID, func(r snomed.Relationship) bool {
		if r.Active && r.TypeID == typeID && valueSet.Contains(r.DestinationID) {
			found = true
			return false
		}
		return true
	})
	return found
}

func (e *Evaluator) checkConcept(id snomed.SctID) error {
	if !e.store.HasConcept(id) {
		return errors.WrapQuery(
			fmt.Errorf("%w: %d", errors.ErrUnknownConcept, id),
			"Evaluator", "checkConcept", "concept lookup")
	}
	return nil
}

func checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.WrapResource(
			fmt.Errorf("%w: %v", errors.ErrCancelled, err),
			"Evaluator", "checkCancelled", "cancellation check")
	}
	return nil
}
