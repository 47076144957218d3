package compiler

import (
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
)

// Translator converts a condition tree into a MongoDB filter document.
// It is stateless apart from its logger; a single Translator may be shared
// across goroutines.
type Translator struct {
	logger *slog.Logger
}

// NewTranslator creates a translator. The logger is only used to report
// unrecognized comparison operators and may be nil.
func NewTranslator(logger *slog.Logger) *Translator {
	return &Translator{logger: logger}
}

// Translate recursively translates a condition tree into a filter document.
// A nil tree, or a tree with no children, translates to an empty filter,
// which matches all documents. Translate never fails: conditions without a
// structured column fall back to the string rendering of their left-hand
// side, and unrecognized operators fall back to equality.
func (t *Translator) Translate(node *GroupNode) bson.M {
	if node == nil || len(node.Children) == 0 {
		return bson.M{}
	}

	filters := make([]bson.M, 0, len(node.Children))
	for _, child := range node.Children {
		switch c := child.(type) {
		case *GroupNode:
			// Composite node: recurse. The child applies its own
			// negation before returning.
			filters = append(filters, t.Translate(c))
		case *ConditionNode:
			filters = append(filters, t.translateCondition(c))
		}
	}

	// Foreign Node implementations contribute nothing; a group holding
	// only those is treated as empty.
	if len(filters) == 0 {
		return bson.M{}
	}

	var combined bson.M
	if node.Connector == ConnectorOr {
		combined = bson.M{"$or": filters}
	} else if len(filters) > 1 {
		combined = bson.M{"$and": filters}
	} else {
		// A single AND-ed child needs no $and wrapper.
		combined = filters[0]
	}

	// Group negation scopes over the whole combined clause.
	if node.Negated {
		combined = bson.M{"$not": combined}
	}

	return combined
}

// translateCondition converts a single comparison into a filter fragment.
func (t *Translator) translateCondition(cond *ConditionNode) bson.M {
	field := cond.Field()

	var filter bson.M
	switch cond.Operator {
	case OperatorEq, "":
		filter = bson.M{field: cond.Value}
	case OperatorGt:
		filter = bson.M{field: bson.M{"$gt": cond.Value}}
	case OperatorGte:
		filter = bson.M{field: bson.M{"$gte": cond.Value}}
	case OperatorLt:
		filter = bson.M{field: bson.M{"$lt": cond.Value}}
	case OperatorLte:
		filter = bson.M{field: bson.M{"$lte": cond.Value}}
	case OperatorIn:
		filter = bson.M{field: bson.M{"$in": cond.Value}}
	case OperatorContains:
		filter = bson.M{field: bson.M{"$regex": cond.Value, "$options": "i"}}
	default:
		// Unknown operators are treated as equality. This can mask a
		// typo'd operator, so it is logged.
		if t.logger != nil {
			t.logger.Warn("unrecognized comparison operator. treating as equality.", "operator", string(cond.Operator), "field", field)
		}
		filter = bson.M{field: cond.Value}
	}

	if cond.Negated {
		if inner, ok := filter[field]; ok && len(filter) == 1 {
			// The fragment's only key is the field itself: negate
			// the field's condition, not the whole fragment.
			filter = bson.M{field: bson.M{"$not": inner}}
		} else {
			filter = bson.M{"$not": filter}
		}
	}

	return filter
}
