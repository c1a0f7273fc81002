package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/tallyho/tally/internal/config"
	"github.com/tallyho/tally/internal/model"
	"github.com/tallyho/tally/internal/shop"
	"github.com/tallyho/tally/internal/storage"
)

// initStore opens the configured database and loads the shopping store
// over it. The returned closer must be deferred by the caller.
func initStore(ctx context.Context) (*shop.Store, func(), error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDBPath
	}
	dbPath = config.ExpandPath(dbPath)

	kv, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, nil, err
	}

	if err := kv.Migrate(ctx); err != nil {
		_ = kv.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := shop.New(ctx, kv)
	if err != nil {
		_ = kv.Close()
		return nil, nil, fmt.Errorf("failed to load shopping store: %w", err)
	}

	return store, func() { _ = kv.Close() }, nil
}

// resolveCategory matches a user-supplied category reference against the
// store: exact id first, then case-insensitive name.
func resolveCategory(store *shop.Store, ref string) (model.Category, error) {
	if cat, ok := store.CategoryByID(ref); ok {
		return cat, nil
	}

	categories := store.Categories()
	for _, cat := range categories {
		if strings.EqualFold(cat.Name, ref) {
			return cat, nil
		}
	}

	names := make([]string, 0, len(categories))
	for _, cat := range categories {
		names = append(names, cat.Name)
	}
	return model.Category{}, fmt.Errorf("unknown category %q (have: %s)", ref, strings.Join(names, ", "))
}
