package compiler

import (
	"fmt"

	"github.com/thisisjab/mongozilla/fault"
	"go.mongodb.org/mongo-driver/bson"
)

// InsertPayload is the interface all insert payload shapes implement.
// It uses a private marker method so the set of shapes is closed; the
// normalizer dispatches on the variant instead of sniffing container types.
type InsertPayload interface {
	insertPayload()
}

// FlatRow is a single row given as a flat, positional value sequence.
// Its length must match the number of target fields.
type FlatRow []any

func (FlatRow) insertPayload() {}

// RowSequence is a sequence of positional rows. Only the first row is
// normalized per call; inserting the remaining rows is driven by repeated
// calls from the caller.
type RowSequence [][]any

func (RowSequence) insertPayload() {}

// MappingSequence is a sequence of documents already keyed by field name.
// Only the first mapping is used.
type MappingSequence []bson.M

func (MappingSequence) insertPayload() {}

// Normalize turns an insert payload into a single document ready for
// insertion, keyed by the given field names. It fails fast with a specific
// fault code and produces no partial document:
//
//   - no_insert_data when the payload is nil or empty
//   - field_count_mismatch when a flat row's length differs from the
//     field-name count
//   - unrecognized_insert_shape when the payload is not one of the
//     declared variants
func Normalize(data InsertPayload, fieldNames []string) (bson.M, error) {
	switch d := data.(type) {
	case nil:
		return nil, fault.New(fault.NoInsertDataCode, "No values to insert were found.")

	case FlatRow:
		if len(d) == 0 {
			return nil, fault.New(fault.NoInsertDataCode, "No values to insert were found.")
		}
		if len(d) != len(fieldNames) {
			return nil, fault.New(fault.FieldCountMismatchCode, fmt.Sprintf("Row has %d values but %d fields were given.", len(d), len(fieldNames)))
		}
		return zipRow(fieldNames, d), nil

	case RowSequence:
		if len(d) == 0 || len(d[0]) == 0 {
			return nil, fault.New(fault.NoInsertDataCode, "No values to insert were found.")
		}
		return zipRow(fieldNames, d[0]), nil

	case MappingSequence:
		if len(d) == 0 || len(d[0]) == 0 {
			return nil, fault.New(fault.NoInsertDataCode, "No values to insert were found.")
		}
		return d[0], nil

	default:
		return nil, fault.New(fault.UnrecognizedInsertShapeCode, fmt.Sprintf("Insert payload shape %T is not recognized.", data))
	}
}

// zipRow pairs field names with values positionally, stopping at the
// shorter of the two.
func zipRow(fieldNames []string, row []any) bson.M {
	document := bson.M{}
	for i, name := range fieldNames {
		if i >= len(row) {
			break
		}
		document[name] = row[i]
	}
	return document
}
