package ports

import "context"

// DocumentStore is the capability interface over the managed document
// database. Documents are addressed by collection and id; out/doc values
// marshal via encoding/json.
type DocumentStore interface {
	Get(ctx context.Context, collection, id string, out interface{}) error
	Set(ctx context.Context, collection, id string, doc interface{}) error
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, collection, id string) error
}
