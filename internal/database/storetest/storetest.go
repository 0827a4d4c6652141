// Package storetest holds behavior tests shared by every ProductWriter
// implementation.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kozaktomas/visual-search/internal/database"
	"github.com/kozaktomas/visual-search/internal/fingerprint"
)

// Run exercises store, which must start empty.
func Run(t *testing.T, store database.ProductWriter) {
	ctx := context.Background()

	t.Run("SaveAndGet", func(t *testing.T) {
		p := &database.StoredProduct{
			ID:          "prod-1",
			Name:        "Desk Lamp",
			Category:    "Home & Living",
			ImageURL:    "https://example.com/lamp.jpg",
			Fingerprint: fingerprint.FromUint64(0x0123456789abcdef),
		}
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("Failed to save product: %v", err)
		}
		if p.CreatedAt.IsZero() {
			t.Error("Save should set CreatedAt")
		}

		got, err := store.Get(ctx, "prod-1")
		if err != nil {
			t.Fatalf("Failed to get product: %v", err)
		}
		if got == nil {
			t.Fatal("Expected product, got nil")
		}
		if got.Name != "Desk Lamp" || got.Category != "Home & Living" {
			t.Errorf("Unexpected product %+v", got)
		}
		if !got.Fingerprint.Equal(p.Fingerprint) {
			t.Errorf("Fingerprint = %s, want %s", got.Fingerprint, p.Fingerprint)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		got, err := store.Get(ctx, "does-not-exist")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != nil {
			t.Errorf("Expected nil for missing product, got %+v", got)
		}
	})

	t.Run("SaveUpserts", func(t *testing.T) {
		p := &database.StoredProduct{
			ID:          "prod-1",
			Name:        "Desk Lamp v2",
			Category:    "Home & Living",
			ImageURL:    "https://example.com/lamp2.jpg",
			Fingerprint: fingerprint.FromUint64(0xff),
		}
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("Failed to update product: %v", err)
		}

		count, err := store.Count(ctx)
		if err != nil {
			t.Fatalf("Count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 product after upsert, got %d", count)
		}

		got, _ := store.Get(ctx, "prod-1")
		if got == nil || got.Name != "Desk Lamp v2" {
			t.Errorf("Expected updated product, got %+v", got)
		}
	})

	t.Run("ListAndSnapshotOrder", func(t *testing.T) {
		for i := range 5 {
			category := "Electronics"
			if i%2 == 1 {
				category = "Clothing"
			}
			p := &database.StoredProduct{
				ID:          fmt.Sprintf("prod-%d", i+2),
				Name:        fmt.Sprintf("Product %d", i+2),
				Category:    category,
				ImageURL:    "https://example.com/p.jpg",
				Fingerprint: fingerprint.FromUint64(uint64(i)),
			}
			if err := store.Save(ctx, p); err != nil {
				t.Fatalf("Failed to save %s: %v", p.ID, err)
			}
		}

		products, err := store.List(ctx, "")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(products) != 6 {
			t.Fatalf("Expected 6 products, got %d", len(products))
		}
		for i := 1; i < len(products); i++ {
			prev, cur := products[i-1], products[i]
			if prev.CreatedAt.After(cur.CreatedAt) ||
				(prev.CreatedAt.Equal(cur.CreatedAt) && prev.ID > cur.ID) {
				t.Errorf("List not ordered by created_at, id at %d", i)
			}
		}

		entries, err := store.Snapshot(ctx, "")
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(entries) != len(products) {
			t.Fatalf("Snapshot has %d entries, List has %d", len(entries), len(products))
		}
		for i := range entries {
			if entries[i].ID != products[i].ID {
				t.Errorf("Snapshot[%d] = %s, List[%d] = %s", i, entries[i].ID, i, products[i].ID)
			}
		}
	})

	t.Run("CategoryFilter", func(t *testing.T) {
		// Case and dashes are normalized.
		entries, err := store.Snapshot(ctx, "CLOTHING")
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if len(entries) != 2 {
			t.Errorf("Expected 2 clothing entries, got %d", len(entries))
		}

		products, err := store.List(ctx, "home-living")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(products) != 0 {
			t.Errorf("Expected no products for home-living, got %d", len(products))
		}

		products, err = store.List(ctx, "home & living")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(products) != 1 {
			t.Errorf("Expected 1 product for home & living, got %d", len(products))
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "prod-2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if got, _ := store.Get(ctx, "prod-2"); got != nil {
			t.Error("Expected product to be deleted")
		}
		if err := store.Delete(ctx, "prod-2"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("DeleteAll", func(t *testing.T) {
		n, err := store.DeleteAll(ctx)
		if err != nil {
			t.Fatalf("DeleteAll failed: %v", err)
		}
		if n != 5 {
			t.Errorf("Expected 5 deleted, got %d", n)
		}

		entries, err := store.Snapshot(ctx, "")
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		if entries == nil || len(entries) != 0 {
			t.Errorf("Expected empty non-nil snapshot, got %v", entries)
		}
	})
}
