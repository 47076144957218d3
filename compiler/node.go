package compiler

// Node is the interface that all nodes in the condition tree must implement.
// It uses a private marker method to ensure only types defined in this
// package can be used as nodes, creating a controlled "sum type" behavior.
type Node interface {
	conditionNode()
}

// Connector is the logical operator joining a group's children.
type Connector string

const (
	// ConnectorAnd is satisfied only if all children are satisfied.
	// It is the default connector when none is given.
	ConnectorAnd Connector = "AND"
	// ConnectorOr is satisfied if at least one child is satisfied.
	ConnectorOr Connector = "OR"
)

// GroupNode is a composite node joining child nodes with a connector.
// Negated applies to the whole combined group, after its children have been
// translated, independent of any negation already applied to the children.
type GroupNode struct {
	Children  []Node
	Connector Connector
	Negated   bool
}

func (n *GroupNode) conditionNode() {}

// Operator defines the type of comparison performed by a condition node.
// The zero value means equality. Values outside the declared constants are
// translated as equality (see Translator).
type Operator string

const (
	// OperatorEq checks if the field is equal to the value.
	OperatorEq Operator = "eq"
	// OperatorGt checks if the field is strictly greater than the value.
	OperatorGt Operator = "gt"
	// OperatorGte checks if the field is greater than or equal to the value.
	OperatorGte Operator = "gte"
	// OperatorLt checks if the field is strictly less than the value.
	OperatorLt Operator = "lt"
	// OperatorLte checks if the field is less than or equal to the value.
	OperatorLte Operator = "lte"
	// OperatorIn checks if the field is in the list of values.
	OperatorIn Operator = "in"
	// OperatorContains checks if the field contains the value,
	// ignoring case.
	OperatorContains Operator = "contains"
)

// ConditionNode is a leaf node in the condition tree.
// It represents a concrete comparison against a single field.
type ConditionNode struct {
	// Column is the structured field target resolved by the query layer.
	// When empty, LHS is used instead.
	Column string

	// LHS is the string rendering of the left-hand side of the comparison.
	// It is only consulted when Column is absent.
	LHS string

	// Operator defines the relationship between the field and the value.
	// An empty operator means equality.
	Operator Operator

	// Value is the literal data to compare against.
	Value any

	// Negated inverts this single comparison.
	Negated bool
}

func (n *ConditionNode) conditionNode() {}

// Field returns the field name this condition filters on, falling back to
// the string rendering of the left-hand side when no structured column is
// present. It never fails.
func (n *ConditionNode) Field() string {
	if n.Column != "" {
		return n.Column
	}
	return n.LHS
}

// Columns collects every field name referenced by the tree, in child order.
func Columns(node Node) []string {
	var cols []string

	switch n := node.(type) {
	case *GroupNode:
		for _, child := range n.Children {
			cols = append(cols, Columns(child)...)
		}
	case *ConditionNode:
		cols = append(cols, n.Field())
	}

	return cols
}
