package transform

import "go.mongodb.org/mongo-driver/bson"

// DocumentTransformer is the contract for pre-insert document transforms.
// Transformers run after normalization and before the document is handed to
// the storage sink.
type DocumentTransformer interface {
	Name() string
	Transform(document bson.M) (bson.M, error)
}
