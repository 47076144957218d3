package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/thisisjab/mongozilla/compiler"
	"github.com/thisisjab/mongozilla/fault"
	"go.mongodb.org/mongo-driver/bson"
)

type queryRequest struct {
	// Where is the JSON wire form of the condition tree. Absent or empty
	// means "match everything".
	Where json.RawMessage `json:"where"`

	// Select lists the fields to project. Empty means all fields.
	Select []string `json:"select"`

	Limit int64 `json:"limit"`
	Skip  int64 `json:"skip"`
}

func (s *server) queryCollectionHandler(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	// Reading query object from request
	var req queryRequest
	if s.returnOnError(w, r, s.readJson(w, r, &req)) {
		return
	}

	tree, err := compiler.DecodeTree(req.Where)
	if s.returnOnError(w, r, err) {
		return
	}

	if s.returnOnError(w, r, s.validateFilterFields(collection, tree)) {
		return
	}

	// Compiling the descriptor
	desc := s.services.Translator.Compile(collection, tree, req.Select, req.Limit, req.Skip)
	if s.returnOnError(w, r, desc.Validate()) {
		return
	}

	// Getting response
	documents, err := s.services.Storage.Query(r.Context(), desc)
	if s.returnOnError(w, r, err) {
		return
	}

	// Return JSON response
	s.writeJson( // nolint:errcheck
		w,
		http.StatusOK,
		apiResponse{
			Success:  true,
			Data:     documents,
			Metadata: map[string]any{"count": len(documents)},
		},
		nil,
	)
}

// validateFilterFields rejects filters naming fields outside the
// collection's declared filterable pattern. Collections without a pattern
// (or without a schema at all) accept any field.
func (s *server) validateFilterFields(collection string, tree *compiler.GroupNode) error {
	if tree == nil || s.services.Schemas == nil {
		return nil
	}

	col, ok := s.services.Schemas.Collection(collection)
	if !ok || col.FilterPattern == nil {
		return nil
	}

	for _, field := range compiler.Columns(tree) {
		if !col.FilterPattern.MatchString(field) {
			return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
				field: []string{"Field is not allowed in filters."},
			})
		}
	}

	return nil
}

type insertRequest struct {
	// Columns names the target fields, positionally matching values/rows.
	// When absent, the collection's declared fields are used.
	Columns []string `json:"columns"`

	Values  []any    `json:"values"`
	Objects []bson.M `json:"objects"`
	Rows    [][]any  `json:"rows"`
}

// payload picks the container holding the insert data, preferring explicit
// values, then objects, then rows. A nil result normalizes to a
// no_insert_data fault.
func (req insertRequest) payload() compiler.InsertPayload {
	switch {
	case len(req.Values) > 0:
		return compiler.FlatRow(req.Values)
	case len(req.Objects) > 0:
		return compiler.MappingSequence(req.Objects)
	case len(req.Rows) > 0:
		return compiler.RowSequence(req.Rows)
	default:
		return nil
	}
}

func (s *server) insertDocumentHandler(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	var req insertRequest
	if s.returnOnError(w, r, s.readJson(w, r, &req)) {
		return
	}

	fieldNames := req.Columns
	if len(fieldNames) == 0 {
		if s.services.Schemas == nil {
			s.handleError(w, r, fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
				"columns": []string{"Field is required when no schema is configured."},
			}))
			return
		}

		declared, err := s.services.Schemas.Fields(collection)
		if s.returnOnError(w, r, err) {
			return
		}
		fieldNames = declared
	}

	document, err := compiler.Normalize(req.payload(), fieldNames)
	if s.returnOnError(w, r, err) {
		return
	}

	for _, t := range s.services.Transforms[collection] {
		document, err = t.Transform(document)
		if err != nil {
			s.handleError(w, r, fmt.Errorf("transform `%s` failed: %w", t.Name(), err))
			return
		}
	}

	if s.returnOnError(w, r, s.services.Storage.InsertOne(r.Context(), collection, document)) {
		return
	}

	s.writeJson( // nolint:errcheck
		w,
		http.StatusCreated,
		apiResponse{
			Success: true,
			Data:    document,
		},
		nil,
	)
}
