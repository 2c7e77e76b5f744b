package port

import (
	"context"
	"io"
)

// SaveInput encapsulates the parameters needed to store a document.
type SaveInput struct {
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// DocumentStore abstracts where uploaded documents live. The returned
// location is opaque to callers and is passed back to Read and Delete.
type DocumentStore interface {
	Save(ctx context.Context, input SaveInput) (location string, err error)
	Read(ctx context.Context, location string) ([]byte, error)
	Delete(ctx context.Context, location string) error
}
