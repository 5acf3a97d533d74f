package domain

import (
	"context"
	"net/url"
	"time"
)

// FigureAPI is the single point of contact with the upstream statistics API.
type FigureAPI interface {
	// Query issues a cached GET and returns the raw JSON body.
	Query(ctx context.Context, path string, query url.Values, useCache bool) ([]byte, error)
	// Mutate issues a write (PUT, POST or DELETE) with a JSON body and
	// invalidates every cache tag under the path prefix.
	Mutate(ctx context.Context, path string, body any, method string) ([]byte, error)
	// Namespace returns the cache-tag namespace.
	Namespace() string
	// InvalidateTags invalidates cached entries carrying any of the tags.
	InvalidateTags(ctx context.Context, tags []string) error
}

// TagCache provides read/write access to cached upstream responses with
// TTL expiry and tag-based bulk invalidation.
type TagCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string)
	Invalidate(ctx context.Context, key string)
	InvalidateTags(ctx context.Context, tags []string)
}

// ReferenceStore holds the figure references attached to content, used to
// decide which consumers a webhook notification affects.
type ReferenceStore interface {
	Register(ctx context.Context, ref FigureReference) error
	Unregister(ctx context.Context, entityID, field, figureID string) error
	List(ctx context.Context) ([]FigureReference, error)
	Matching(ctx context.Context, record Figure, includeByID bool) ([]FigureReference, error)
	UpdateValue(ctx context.Context, figureID string, value float64, valueText, unit string) error
}

// EventPublisher announces figure updates to downstream consumers.
type EventPublisher interface {
	PublishFigureUpdated(ctx context.Context, event FigureUpdatedEvent) error
}
