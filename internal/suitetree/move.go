package suitetree

import (
	"github.com/qahub/qa-hub/internal/datastore"
	"github.com/qahub/qa-hub/internal/errors"
)

// Intent is the resolved meaning of a drag-and-drop placement. The surface
// that maps pointer geometry to an intent lives in the UI; these five
// intents and their semantics are the engine contract.
type Intent string

const (
	// IntentFirstChild makes dragged the first child of target.
	IntentFirstChild Intent = "first-child"
	// IntentBefore makes dragged the sibling immediately before target.
	IntentBefore Intent = "before"
	// IntentAfter makes dragged the sibling immediately after target.
	IntentAfter Intent = "after"
	// IntentPromote moves dragged up one level, to become a sibling of
	// target; only valid while dragged is a child of target.
	IntentPromote Intent = "promote"
	// IntentRoot moves dragged to the forest root; target is ignored.
	IntentRoot Intent = "root"
)

// Move planning failures, surfaced before any write is issued.
var (
	ErrSameSuite      = errors.NewStd("a suite cannot be dropped onto itself")
	ErrCycle          = errors.NewStd("a suite cannot be moved inside its own descendant")
	ErrUnknownSuite   = errors.NewStd("suite not present in the tree")
	ErrInvalidPromote = errors.NewStd("suite is not a child of the drop target")
	ErrUnknownIntent  = errors.NewStd("unknown drop intent")
)

// OrderShift is one sibling order update that must be applied, and awaited,
// before the dragged suite's own placement update. Once the full plan is
// applied, no two siblings share an order.
type OrderShift struct {
	SuiteID  uint
	NewOrder int
}

// Plan is the computed outcome of a move: the dragged suite's new placement
// plus the sibling shifts that make room for it. No write has happened yet;
// if applying any step fails, the caller re-fetches the authoritative tree
// instead of rolling back.
type Plan struct {
	SuiteID   uint
	NewParent *uint
	NewOrder  int
	Shifts    []OrderShift
}

// PlanMove validates a drag of draggedID onto targetID with the given
// intent and computes the placement. targetID is ignored for IntentRoot.
func (t *Tree) PlanMove(draggedID, targetID uint, intent Intent) (*Plan, error) {
	dragged, ok := t.arena[draggedID]
	if !ok {
		return nil, errors.New(ErrUnknownSuite).
			Category(errors.CategorySuiteTree).
			Context("suite_id", draggedID).
			Build()
	}

	if intent == IntentRoot {
		return t.planMoveToRoot(draggedID), nil
	}

	target, ok := t.arena[targetID]
	if !ok {
		return nil, errors.New(ErrUnknownSuite).
			Category(errors.CategorySuiteTree).
			Context("suite_id", targetID).
			Build()
	}
	if draggedID == targetID {
		return nil, ErrSameSuite
	}
	if t.IsDescendant(draggedID, targetID) {
		return nil, errors.New(ErrCycle).
			Category(errors.CategorySuiteTree).
			Context("dragged_id", draggedID).
			Context("target_id", targetID).
			Build()
	}

	switch intent {
	case IntentFirstChild:
		return t.planFirstChild(draggedID, targetID), nil
	case IntentBefore:
		return t.planInsert(draggedID, target, true), nil
	case IntentAfter:
		return t.planInsert(draggedID, target, false), nil
	case IntentPromote:
		if dragged.ParentID == nil || *dragged.ParentID != targetID {
			return nil, ErrInvalidPromote
		}
		return t.planInsert(draggedID, target, false), nil
	default:
		return nil, ErrUnknownIntent
	}
}

// planFirstChild slots dragged in at order 1 and renumbers target's existing
// children sequentially below it. Renumbering walks the sorted child list
// rather than comparing stored orders; stored orders may be nil or tied, and
// the plan must never leave two siblings sharing an order.
func (t *Tree) planFirstChild(draggedID, targetID uint) *Plan {
	plan := &Plan{SuiteID: draggedID, NewParent: &targetID, NewOrder: 1}
	next := 2
	for _, child := range t.Children(targetID) {
		if child.ID == draggedID {
			continue
		}
		if effectiveOrder(child) != next {
			plan.Shifts = append(plan.Shifts, OrderShift{SuiteID: child.ID, NewOrder: next})
		}
		next++
	}
	return plan
}

// planInsert places dragged next to target under target's parent. The sorted
// sibling list is walked in display order and renumbered sequentially around
// the insertion point, shifting only siblings whose stored order differs
// from their renumbered position.
func (t *Tree) planInsert(draggedID uint, target datastore.Suite, before bool) *Plan {
	plan := &Plan{SuiteID: draggedID, NewParent: target.ParentID}

	var siblings []datastore.Suite
	if target.ParentID == nil {
		siblings = t.Roots()
	} else {
		siblings = t.Children(*target.ParentID)
	}

	next := 1
	for _, sib := range siblings {
		if sib.ID == draggedID {
			continue
		}
		if before && sib.ID == target.ID {
			plan.NewOrder = next
			next++
		}
		if effectiveOrder(sib) != next {
			plan.Shifts = append(plan.Shifts, OrderShift{SuiteID: sib.ID, NewOrder: next})
		}
		next++
		if !before && sib.ID == target.ID {
			plan.NewOrder = next
			next++
		}
	}
	return plan
}

// planMoveToRoot appends dragged after the last root suite.
func (t *Tree) planMoveToRoot(draggedID uint) *Plan {
	maxOrder := 0
	for _, root := range t.Roots() {
		if root.ID == draggedID {
			continue
		}
		if order := effectiveOrder(root); order > maxOrder {
			maxOrder = order
		}
	}
	return &Plan{SuiteID: draggedID, NewParent: nil, NewOrder: maxOrder + 1}
}
