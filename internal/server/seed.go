package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/playperu/planetquest/internal/catalog"
)

// SeedDemo stores the demo catalog if the store is empty.
// Idempotent: does nothing if any catalog exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, store CatalogStore) error {
	existing, err := store.ListCatalogs(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	cat, err := catalog.Parse(catalog.Demo)
	if err != nil {
		return fmt.Errorf("parsing demo catalog: %w", err)
	}
	if err := store.PutCatalog(ctx, catalog.DemoName, catalog.Demo, len(cat.Objects)); err != nil {
		return err
	}

	logger.Info("demo catalog seeded", "name", catalog.DemoName, "objects", len(cat.Objects))
	return nil
}
