// Package firestore wraps Firestore collections with typed accessors.
package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection is a typed view over a Firestore collection. T must carry
// firestore struct tags.
type Collection[T any] struct {
	Ref *firestore.CollectionRef
}

func NewCollection[T any](ref *firestore.CollectionRef) *Collection[T] {
	return &Collection[T]{Ref: ref}
}

func (c *Collection[T]) Doc(id string) *DocumentRef[T] {
	return &DocumentRef[T]{Ref: c.Ref.Doc(id)}
}

type DocumentRef[T any] struct {
	Ref *firestore.DocumentRef
}

func (d *DocumentRef[T]) ID() string {
	return d.Ref.ID
}

// Get returns the decoded document, or nil (no error) when it is missing.
func (d *DocumentRef[T]) Get(ctx context.Context) (*T, error) {
	snap, err := d.Ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, err
	}
	var v T
	if err := snap.DataTo(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *DocumentRef[T]) Set(ctx context.Context, data *T) error {
	_, err := d.Ref.Set(ctx, data)
	return err
}

// Update merges a partial map into the document. Keys must match the
// Firestore snake_case field names.
func (d *DocumentRef[T]) Update(ctx context.Context, updates map[string]interface{}) error {
	_, err := d.Ref.Set(ctx, updates, firestore.MergeAll)
	return err
}
