package compiler

import (
	"fmt"

	"github.com/thisisjab/mongozilla/fault"
	"go.mongodb.org/mongo-driver/bson"
)

// QueryDescriptor is the unit handed to the execution sink for reads. It is
// constructed per query and discarded after execution.
type QueryDescriptor struct {
	// Collection is the name of the collection to query.
	Collection string `json:"collection"`

	// Filter is the translated filter document. An empty filter matches
	// all documents.
	Filter bson.M `json:"filter"`

	// Projection maps each selected field to 1. An empty projection
	// returns all fields.
	Projection bson.M `json:"projection"`

	// Limit specifies the maximum number of documents to return.
	// Must be between 0 and 1000; 0 means no limit.
	Limit int64 `json:"limit"`

	// Skip specifies how many matching documents to skip.
	Skip int64 `json:"skip"`
}

// Compile assembles a query descriptor from a condition tree, the selected
// fields, and paging bounds.
func (t *Translator) Compile(collection string, tree *GroupNode, fields []string, limit, skip int64) QueryDescriptor {
	return QueryDescriptor{
		Collection: collection,
		Filter:     t.Translate(tree),
		Projection: BuildProjection(fields),
		Limit:      limit,
		Skip:       skip,
	}
}

func (d QueryDescriptor) Validate() error {
	// MAYBE: In future we may want to read these from configs.
	const LimitMax = 1000

	if d.Collection == "" {
		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{"collection": []string{"Field is required."}})
	}

	if d.Limit < 0 {
		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{"limit": []string{"Negative values are not supported."}})
	}

	if d.Limit > LimitMax {
		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{"limit": []string{fmt.Sprintf("Values larger than %d are not supported.", LimitMax)}})
	}

	if d.Skip < 0 {
		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{"skip": []string{"Negative values are not supported."}})
	}

	return nil
}
