package blob

import "context"

// Stored describes a blob after a successful put. Locator is the durable
// opaque reference kept on the document record; Key and Bucket are backend
// coordinates recorded in metadata so delete can find the bytes later.
type Stored struct {
	Locator string
	Key     string
	Bucket  string
}

// Store accepts file bytes and returns a durable locator. Implementations are
// chosen at the composition root; core logic never branches on the backend.
type Store interface {
	Put(ctx context.Context, data []byte, suggestedName, mimeType string) (Stored, error)
	Delete(ctx context.Context, key string) error
}
