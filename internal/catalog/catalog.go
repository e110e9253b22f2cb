// Package catalog resolves item codes to display metadata.
package catalog

import (
	"context"

	apperrors "github.com/karolberezicki/ActualFoundation/pkg/errors"
)

// Content is the catalog entry for one sellable item.
type Content struct {
	Code        string
	DisplayName string
}

// ContentLookup resolves an item code. An unknown code returns ErrNotFound
// so session creation can reject the line item.
type ContentLookup interface {
	Resolve(ctx context.Context, code string) (Content, error)
}

// StaticCatalog serves a fixed in-memory content set.
type StaticCatalog struct {
	entries map[string]Content
}

// NewStaticCatalog builds a catalog from the given entries.
func NewStaticCatalog(entries []Content) *StaticCatalog {
	m := make(map[string]Content, len(entries))
	for _, e := range entries {
		m[e.Code] = e
	}
	return &StaticCatalog{entries: m}
}

// Resolve looks up an item code.
func (c *StaticCatalog) Resolve(_ context.Context, code string) (Content, error) {
	entry, ok := c.entries[code]
	if !ok {
		return Content{}, apperrors.NotFound("catalog item", code)
	}
	return entry, nil
}
