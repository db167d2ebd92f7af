package server

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

// CatalogSummary describes a stored catalog without its content.
type CatalogSummary struct {
	Name        string `json:"name"`
	ObjectCount int    `json:"objectCount"`
	UpdatedAt   string `json:"updatedAt"`
}

type CatalogStore interface {
	ListCatalogs(ctx context.Context) ([]CatalogSummary, error)
	// GetCatalog returns the raw catalog document.
	GetCatalog(ctx context.Context, name string) ([]byte, error)
	PutCatalog(ctx context.Context, name string, data []byte, objectCount int) error
	DeleteCatalog(ctx context.Context, name string) error
}
