package domain

import "context"

// DocumentStore writes rendered document bodies to durable storage and
// returns an opaque file reference. Storage mechanics live outside the
// pipeline.
type DocumentStore interface {
	Save(ctx context.Context, name string, content *DocumentContent) (fileRef string, err error)
	Load(ctx context.Context, fileRef string) (*DocumentContent, error)
}
