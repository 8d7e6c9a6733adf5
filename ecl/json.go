package ecl

import (
	"encoding/json"
	"fmt"

	"github.com/c360/termgraph/snomed"
)

// The JSON form is the wire contract with the external grammar parser.
// Every node is an object with an "op" discriminator:
//
//	{"op":"wildcard"}
//	{"op":"concept","id":73211009}
//	{"op":"descendant_or_self","id":73211009}
//	{"op":"member_of","refset_id":723264001}
//	{"op":"and","left":{...},"right":{...}}
//	{"op":"minus","left":{...},"right":{...}}
//	{"op":"refinement","base":{...},
//	 "attributes":[{"type_id":363698007,"value":{...}}]}
//	{"op":"grouped","expr":{...}}

type jsonNode struct {
	Op         string          `json:"op"`
	ID         snomed.SctID    `json:"id,omitempty"`
	RefsetID   snomed.SctID    `json:"refset_id,omitempty"`
	Left       *jsonNode       `json:"left,omitempty"`
	Right      *jsonNode       `json:"right,omitempty"`
	Base       *jsonNode       `json:"base,omitempty"`
	Expr       *jsonNode       `json:"expr,omitempty"`
	Attributes []jsonAttribute `json:"attributes,omitempty"`
}

type jsonAttribute struct {
	TypeID snomed.SctID `json:"type_id"`
	Value  *jsonNode    `json:"value"`
}

// MarshalExpr encodes an expression tree to its JSON form.
func MarshalExpr(expr Expr) ([]byte, error) {
	node, err := toNode(expr)
	if err != nil {
		return nil, err
	}
	return json.Marshal(node)
}

// UnmarshalExpr decodes the JSON form into an expression tree.
func UnmarshalExpr(data []byte) (Expr, error) {
	var node jsonNode
	if err := json.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("decoding ECL AST: %w", err)
	}
	return fromNode(&node)
}

func toNode(expr Expr) (*jsonNode, error) {
	switch e := expr.(type) {
	case Wildcard:
		return &jsonNode{Op: "wildcard"}, nil
	case ConceptRef:
		return &jsonNode{Op: "concept", ID: e.ID}, nil
	case DescendantOf:
		return &jsonNode{Op: "descendant_of", ID: e.ID}, nil
	case DescendantOrSelf:
		return &jsonNode{Op: "descendant_or_self", ID: e.ID}, nil
	case AncestorOf:
		return &jsonNode{Op: "ancestor_of", ID: e.ID}, nil
	case AncestorOrSelf:
		return &jsonNode{Op: "ancestor_or_self", ID: e.ID}, nil
	case MemberOf:
		return &jsonNode{Op: "member_of", RefsetID: e.RefsetID}, nil
	case And:
		return toBinary("and", e.Left, e.Right)
	case Or:
		return toBinary("or", e.Left, e.Right)
	case Minus:
		return toBinary("minus", e.Left, e.Right)
	case Refinement:
		base, err := toNode(e.Base)
		if err != nil {
			return nil, err
		}
		attrs := make([]jsonAttribute, len(e.Attributes))
		for i, a := range e.Attributes {
			value, err := toNode(a.Value)
			if err != nil {
				return nil, err
			}
			attrs[i] = jsonAttribute{TypeID: a.TypeID, Value: value}
		}
		return &jsonNode{Op: "refinement", Base: base, Attributes: attrs}, nil
	case Grouped:
		inner, err := toNode(e.Expr)
		if err != nil {
			return nil, err
		}
		return &jsonNode{Op: "grouped", Expr: inner}, nil
	default:
		return nil, fmt.Errorf("unknown ECL node type %T", expr)
	}
}

func toBinary(op string, left, right Expr) (*jsonNode, error) {
	l, err := toNode(left)
	if err != nil {
		return nil, err
	}
	r, err := toNode(right)
	if err != nil {
		return nil, err
	}
	return &jsonNode{Op: op, Left: l, Right: r}, nil
}

func fromNode(node *jsonNode) (Expr, error) {
	if node == nil {
		return nil, fmt.Errorf("missing ECL node")
	}
	switch node.Op {
	case "wildcard":
		return Wildcard{}, nil
	case "concept":
		return ConceptRef{ID: node.ID}, nil
	case "descendant_of":
		return DescendantOf{ID: node.ID}, nil
	case "descendant_or_self":
		return DescendantOrSelf{ID: node.ID}, nil
	case "ancestor_of":
		return AncestorOf{ID: node.ID}, nil
	case "ancestor_or_self":
		return AncestorOrSelf{ID: node.ID}, nil
	case "member_of":
		return MemberOf{RefsetID: node.RefsetID}, nil
	case "and", "or", "minus":
		left, err := fromNode(node.Left)
		if err != nil {
			return nil, err
		}
		right, err := fromNode(node.Right)
		if err != nil {
			return nil, err
		}
		switch node.Op {
		case "and":
			return And{Left: left, Right: right}, nil
		case "or":
			return Or{Left: left, Right: right}, nil
		default:
			return Minus{Left: left, Right: right}, nil
		}
	case "refinement":
		base, err := fromNode(node.Base)
		if err != nil {
			return nil, err
		}
		if len(node.Attributes) == 0 {
			return nil, fmt.Errorf("refinement without attributes")
		}
		attrs := make([]Attribute, len(node.Attributes))
		for i, a := range node.Attributes {
			value, err := fromNode(a.Value)
			if err != nil {
				return nil, err
			}
			attrs[i] = Attribute{TypeID: a.TypeID, Value: value}
		}
		return Refinement{Base: base, Attributes: attrs}, nil
	case "grouped":
		inner, err := fromNode(node.Expr)
		if err != nil {
			return nil, err
		}
		return Grouped{Expr: inner}, nil
	default:
		return nil, fmt.Errorf("unknown ECL op %q", node.Op)
	}
}
