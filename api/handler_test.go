package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/thisisjab/mongozilla/compiler"
	"github.com/thisisjab/mongozilla/schema"
	"go.mongodb.org/mongo-driver/bson"
)

type fakeStorage struct {
	lastDescriptor compiler.QueryDescriptor
	lastCollection string
	lastDocument   bson.M
	queryResult    []bson.M
}

func (f *fakeStorage) Query(_ context.Context, desc compiler.QueryDescriptor) ([]bson.M, error) {
	f.lastDescriptor = desc
	return f.queryResult, nil
}

func (f *fakeStorage) InsertOne(_ context.Context, collection string, document bson.M) error {
	f.lastCollection = collection
	f.lastDocument = document
	return nil
}

func newTestServer(t *testing.T, st Storage, schemas *schema.Registry) *server {
	t.Helper()

	srv, err := NewServer(Config{Addr: "localhost:0"}, slog.New(slog.DiscardHandler), Services{
		Storage:    st,
		Translator: compiler.NewTranslator(nil),
		Schemas:    schemas,
	})
	if err != nil {
		t.Fatalf("NewServer returned error: %v", err)
	}

	return srv
}

func doRequest(t *testing.T, srv *server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, req)
	return rec
}

func TestQueryCollectionHandler(t *testing.T) {
	st := &fakeStorage{queryResult: []bson.M{{"name": "Alice"}}}
	srv := newTestServer(t, st, nil)

	body := `{
		"where": {
			"connector": "AND",
			"children": [
				{"column": "age", "operator": "gt", "value": 18},
				{"column": "status", "value": "active"}
			]
		},
		"select": ["name"],
		"limit": 50,
		"skip": 10
	}`

	rec := doRequest(t, srv, http.MethodPost, "/api/collections/users/query", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	expected := compiler.QueryDescriptor{
		Collection: "users",
		Filter: bson.M{"$and": []bson.M{
			{"age": bson.M{"$gt": float64(18)}},
			{"status": "active"},
		}},
		Projection: bson.M{"name": 1},
		Limit:      50,
		Skip:       10,
	}

	if !reflect.DeepEqual(st.lastDescriptor, expected) {
		t.Fatalf("descriptor\n%+v,\nwant %+v", st.lastDescriptor, expected)
	}

	var resp struct {
		Success bool           `json:"success"`
		Data    []bson.M       `json:"data"`
		Meta    map[string]any `json:"metadata"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("cannot decode response: %v", err)
	}
	if !resp.Success || len(resp.Data) != 1 {
		t.Fatalf("unexpected response: %s", rec.Body.String())
	}
}

func TestQueryCollectionHandlerEmptyWhere(t *testing.T) {
	st := &fakeStorage{}
	srv := newTestServer(t, st, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/collections/users/query", `{"limit": 10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	if !reflect.DeepEqual(st.lastDescriptor.Filter, bson.M{}) {
		t.Fatalf("filter = %+v, want empty filter", st.lastDescriptor.Filter)
	}
}

func TestQueryCollectionHandlerLimitTooLarge(t *testing.T) {
	srv := newTestServer(t, &fakeStorage{}, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/collections/users/query", `{"limit": 5000}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestQueryCollectionHandlerDisallowedField(t *testing.T) {
	schemaFile := filepath.Join(t.TempDir(), "schema.yaml")
	content := `
collections:
  users:
    fields: [_id, name, age]
    filterable: "^[a-z_][a-z0-9_.]*$"
`
	if err := os.WriteFile(schemaFile, []byte(content), 0o644); err != nil {
		t.Fatalf("cannot write schema file: %v", err)
	}

	registry, err := schema.NewRegistry(slog.New(slog.DiscardHandler), schemaFile)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	srv := newTestServer(t, &fakeStorage{}, registry)

	body := `{"where": {"children": [{"column": "$where", "value": "1"}]}}`
	rec := doRequest(t, srv, http.MethodPost, "/api/collections/users/query", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}
}

func TestInsertDocumentHandlerFlatValues(t *testing.T) {
	st := &fakeStorage{}
	srv := newTestServer(t, st, nil)

	body := `{"columns": ["id", "name"], "values": [1, "Alice"]}`
	rec := doRequest(t, srv, http.MethodPost, "/api/collections/users/documents", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	if st.lastCollection != "users" {
		t.Fatalf("collection = %q, want users", st.lastCollection)
	}

	expected := bson.M{"id": float64(1), "name": "Alice"}
	if !reflect.DeepEqual(st.lastDocument, expected) {
		t.Fatalf("document\n%+v,\nwant %+v", st.lastDocument, expected)
	}
}

func TestInsertDocumentHandlerObjectsPreferredOverRows(t *testing.T) {
	st := &fakeStorage{}
	srv := newTestServer(t, st, nil)

	body := `{"columns": ["id"], "objects": [{"id": 7}], "rows": [[9]]}`
	rec := doRequest(t, srv, http.MethodPost, "/api/collections/users/documents", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	expected := bson.M{"id": float64(7)}
	if !reflect.DeepEqual(st.lastDocument, expected) {
		t.Fatalf("document\n%+v,\nwant %+v", st.lastDocument, expected)
	}
}

func TestInsertDocumentHandlerNoData(t *testing.T) {
	srv := newTestServer(t, &fakeStorage{}, nil)

	rec := doRequest(t, srv, http.MethodPost, "/api/collections/users/documents", `{"columns": ["id"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
}

func TestInsertDocumentHandlerCountMismatch(t *testing.T) {
	srv := newTestServer(t, &fakeStorage{}, nil)

	body := `{"columns": ["id", "name"], "values": [1]}`
	rec := doRequest(t, srv, http.MethodPost, "/api/collections/users/documents", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusUnprocessableEntity, rec.Body.String())
	}
}

func TestInsertDocumentHandlerColumnsFromSchema(t *testing.T) {
	schemaFile := filepath.Join(t.TempDir(), "schema.yaml")
	content := `
collections:
  users:
    fields: [id, name]
`
	if err := os.WriteFile(schemaFile, []byte(content), 0o644); err != nil {
		t.Fatalf("cannot write schema file: %v", err)
	}

	registry, err := schema.NewRegistry(slog.New(slog.DiscardHandler), schemaFile)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	st := &fakeStorage{}
	srv := newTestServer(t, st, registry)

	rec := doRequest(t, srv, http.MethodPost, "/api/collections/users/documents", `{"rows": [[1, "Alice"], [2, "Bob"]]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	expected := bson.M{"id": float64(1), "name": "Alice"}
	if !reflect.DeepEqual(st.lastDocument, expected) {
		t.Fatalf("document\n%+v,\nwant %+v", st.lastDocument, expected)
	}
}
