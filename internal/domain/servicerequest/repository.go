package servicerequest

import "context"

// RequestSource loads a service-request snapshot from some backing store.
type RequestSource interface {
	LoadRequests(ctx context.Context) (*Dataset, error)
}

// PostSource loads the weak-signal dataset. Implementations return
// (nil, nil) when the dataset does not exist so the gap analysis can be
// skipped without failing the run.
type PostSource interface {
	LoadPosts(ctx context.Context) ([]WeakSignalPost, error)
}

// RequestSourceFunc adapts a function to RequestSource.
type RequestSourceFunc func(ctx context.Context) (*Dataset, error)

// LoadRequests calls f.
func (f RequestSourceFunc) LoadRequests(ctx context.Context) (*Dataset, error) { return f(ctx) }

// PostSourceFunc adapts a function to PostSource.
type PostSourceFunc func(ctx context.Context) ([]WeakSignalPost, error)

// LoadPosts calls f.
func (f PostSourceFunc) LoadPosts(ctx context.Context) ([]WeakSignalPost, error) { return f(ctx) }

//Personal.AI order the ending
