package transform

import (
	"os"
	"path/filepath"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

const stampScript = `
function transform_document(doc)
	doc["source"] = "lua"
	if doc["age"] ~= nil then
		doc["adult"] = doc["age"] >= 18
	end
	return doc
end
`

func TestLuaTransformer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stamp.lua")
	if err := os.WriteFile(path, []byte(stampScript), 0o644); err != nil {
		t.Fatalf("cannot write script: %v", err)
	}

	lt, err := NewLuaTransformer(LuaTransformerConfig{Name: "stamp", ScriptPath: path})
	if err != nil {
		t.Fatalf("NewLuaTransformer returned error: %v", err)
	}

	actual, err := lt.Transform(bson.M{"name": "Alice", "age": 30})
	if err != nil {
		t.Fatalf("Transform returned error: %v", err)
	}

	if actual["source"] != "lua" {
		t.Fatalf("source = %v, want lua", actual["source"])
	}
	if actual["adult"] != true {
		t.Fatalf("adult = %v, want true", actual["adult"])
	}
	if actual["name"] != "Alice" {
		t.Fatalf("name = %v, want Alice", actual["name"])
	}
}

func TestLuaTransformerRejectsDocument(t *testing.T) {
	script := `
function transform_document(doc)
	return nil
end
`
	path := filepath.Join(t.TempDir(), "reject.lua")
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatalf("cannot write script: %v", err)
	}

	lt, err := NewLuaTransformer(LuaTransformerConfig{Name: "reject", ScriptPath: path})
	if err != nil {
		t.Fatalf("NewLuaTransformer returned error: %v", err)
	}

	if _, err := lt.Transform(bson.M{"name": "Alice"}); err == nil {
		t.Fatal("Transform: expected error for rejected document, got nil")
	}
}
