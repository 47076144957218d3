package compiler

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestDecodeTree(t *testing.T) {
	input := `{
		"connector": "AND",
		"children": [
			{"column": "status", "operator": "eq", "value": "active"},
			{
				"connector": "OR",
				"negated": true,
				"children": [
					{"column": "age", "operator": "gt", "value": 65},
					{"lhs": "metadata.plan", "value": "free", "negated": true}
				]
			}
		]
	}`

	tree, err := DecodeTree([]byte(input))
	if err != nil {
		t.Fatalf("DecodeTree returned error: %v", err)
	}

	expected := &GroupNode{
		Connector: ConnectorAnd,
		Children: []Node{
			&ConditionNode{Column: "status", Operator: OperatorEq, Value: "active"},
			&GroupNode{
				Connector: ConnectorOr,
				Negated:   true,
				Children: []Node{
					&ConditionNode{Column: "age", Operator: OperatorGt, Value: float64(65)},
					&ConditionNode{LHS: "metadata.plan", Value: "free", Negated: true},
				},
			},
		},
	}

	if !reflect.DeepEqual(tree, expected) {
		t.Fatalf("DecodeTree()\n%+v,\nwant %+v", tree, expected)
	}
}

func TestDecodeTreeEmptyInput(t *testing.T) {
	tree, err := DecodeTree(nil)
	if err != nil {
		t.Fatalf("DecodeTree(nil) returned error: %v", err)
	}
	if tree != nil {
		t.Fatalf("DecodeTree(nil) = %+v, want nil tree", tree)
	}
}

func TestDecodeTreeBareCondition(t *testing.T) {
	tree, err := DecodeTree([]byte(`{"column": "age", "operator": "lt", "value": 18}`))
	if err != nil {
		t.Fatalf("DecodeTree(bare condition) returned error: %v", err)
	}

	// A bare condition is wrapped in an implicit AND group, so it
	// translates without a redundant wrapper.
	actual := NewTranslator(nil).Translate(tree)
	expected := bson.M{"age": bson.M{"$lt": float64(18)}}
	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf("Translate(decoded bare condition)\n%+v,\nwant %+v", actual, expected)
	}
}

func TestDecodeTreeBadJSON(t *testing.T) {
	if _, err := DecodeTree([]byte(`{"connector":`)); err == nil {
		t.Fatal("DecodeTree(bad json): expected error, got nil")
	}
}

func TestDecodeTreeUnknownConnectorDefaultsToAnd(t *testing.T) {
	tree, err := DecodeTree([]byte(`{"connector": "XOR", "children": [{"column": "a", "value": 1}]}`))
	if err != nil {
		t.Fatalf("DecodeTree returned error: %v", err)
	}

	if tree.Connector != ConnectorAnd {
		t.Fatalf("Connector = %q, want %q", tree.Connector, ConnectorAnd)
	}
}
