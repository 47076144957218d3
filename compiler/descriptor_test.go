package compiler

import (
	"errors"
	"reflect"
	"testing"

	"github.com/thisisjab/mongozilla/fault"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildProjection(t *testing.T) {
	tests := map[string]struct {
		fields   []string
		expected bson.M
	}{
		"empty":  {nil, bson.M{}},
		"single": {[]string{"name"}, bson.M{"name": 1}},
		"multi":  {[]string{"id", "name", "age"}, bson.M{"id": 1, "name": 1, "age": 1}},
		"dotted": {[]string{"metadata.plan"}, bson.M{"metadata.plan": 1}},
	}

	for name, tc := range tests {
		actual := BuildProjection(tc.fields)
		if !reflect.DeepEqual(actual, tc.expected) {
			t.Fatalf("BuildProjection(%s)\n%+v,\nwant %+v", name, actual, tc.expected)
		}
	}
}

func TestCompile(t *testing.T) {
	tr := NewTranslator(nil)

	tree := &GroupNode{
		Connector: ConnectorAnd,
		Children: []Node{
			&ConditionNode{Column: "status", Value: "active"},
		},
	}

	actual := tr.Compile("users", tree, []string{"id", "name"}, 50, 10)

	expected := QueryDescriptor{
		Collection: "users",
		Filter:     bson.M{"status": "active"},
		Projection: bson.M{"id": 1, "name": 1},
		Limit:      50,
		Skip:       10,
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf("Compile()\n%+v,\nwant %+v", actual, expected)
	}
}

func TestQueryDescriptorValidate(t *testing.T) {
	valid := QueryDescriptor{Collection: "users", Limit: 100}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate(valid descriptor) returned error: %v", err)
	}

	tests := map[string]QueryDescriptor{
		"missing collection": {Limit: 10},
		"negative limit":     {Collection: "users", Limit: -1},
		"limit too large":    {Collection: "users", Limit: 1001},
		"negative skip":      {Collection: "users", Skip: -1},
	}

	for name, desc := range tests {
		err := desc.Validate()
		if err == nil {
			t.Fatalf("Validate(%s): expected error, got nil", name)
		}

		var f fault.Fault
		if !errors.As(err, &f) {
			t.Fatalf("Validate(%s): expected a fault, got %T", name, err)
		}
	}
}
