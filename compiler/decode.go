package compiler

import (
	"encoding/json"

	"github.com/thisisjab/mongozilla/fault"
)

// nodeEnvelope is the JSON wire form shared by group and condition nodes.
// A node carrying "children" or "connector" is a group; everything else is
// a condition.
type nodeEnvelope struct {
	Children  []json.RawMessage `json:"children"`
	Connector Connector         `json:"connector"`
	Negated   bool              `json:"negated"`

	Column   string   `json:"column"`
	LHS      string   `json:"lhs"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// DecodeTree parses the JSON wire form of a condition tree. The root is
// always a group. Empty input decodes to a nil tree, which translates to an
// empty filter.
func DecodeTree(data []byte) (*GroupNode, error) {
	if len(data) == 0 {
		return nil, nil
	}

	node, err := decodeNode(data)
	if err != nil {
		return nil, err
	}

	if group, ok := node.(*GroupNode); ok {
		return group, nil
	}

	// A bare condition at the root is accepted and wrapped in an
	// implicit AND group.
	return &GroupNode{Children: []Node{node}, Connector: ConnectorAnd}, nil
}

func decodeNode(data []byte) (Node, error) {
	var env nodeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fault.New(fault.BadInputCode, "Condition tree contains badly-formed JSON.").WithOriginal(err)
	}

	if env.Children == nil && env.Connector == "" {
		return &ConditionNode{
			Column:   env.Column,
			LHS:      env.LHS,
			Operator: env.Operator,
			Value:    env.Value,
			Negated:  env.Negated,
		}, nil
	}

	connector := env.Connector
	if connector != ConnectorOr {
		connector = ConnectorAnd
	}

	group := &GroupNode{
		Children:  make([]Node, 0, len(env.Children)),
		Connector: connector,
		Negated:   env.Negated,
	}

	for _, raw := range env.Children {
		child, err := decodeNode(raw)
		if err != nil {
			return nil, err
		}
		group.Children = append(group.Children, child)
	}

	return group, nil
}
