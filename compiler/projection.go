package compiler

import "go.mongodb.org/mongo-driver/bson"

// BuildProjection builds a field-inclusion document from the selected
// columns. An empty input yields an empty projection, which the store
// treats as "return all fields".
func BuildProjection(fields []string) bson.M {
	projection := bson.M{}
	for _, f := range fields {
		projection[f] = 1
	}
	return projection
}
