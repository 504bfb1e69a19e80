// Package store — in-memory Store implementation.
package store

import (
	"context"
	"sync"

	"github.com/shopshot/shopshot/pkg/models"
)

// MemoryStore implements Store with mutex-guarded slices and maps. Batch
// items are held in a slice to preserve insertion order; histories are
// prepended so the newest asset is always first.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []*models.BatchItem
	assets []*models.GeneratedAsset
	videos []*models.GeneratedVideo
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// ── Batch items ──────────────────────────────────────────────

func (m *MemoryStore) ListItems(_ context.Context) ([]models.BatchItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.BatchItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, *it)
	}
	return out, nil
}

func (m *MemoryStore) GetItem(_ context.Context, id string) (*models.BatchItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, it := range m.items {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, &ErrNotFound{Entity: "batch item", Key: id}
}

func (m *MemoryStore) CreateItem(_ context.Context, item *models.BatchItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *item
	m.items = append(m.items, &cp)
	return nil
}

func (m *MemoryStore) UpdateItem(_ context.Context, item *models.BatchItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.ID == item.ID {
			cp := *item
			m.items[i] = &cp
			return nil
		}
	}
	return &ErrNotFound{Entity: "batch item", Key: item.ID}
}

func (m *MemoryStore) MutateItem(_ context.Context, id string, fn func(*models.BatchItem) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.ID == id {
			cp := *it
			if err := fn(&cp); err != nil {
				return err
			}
			m.items[i] = &cp
			return nil
		}
	}
	return &ErrNotFound{Entity: "batch item", Key: id}
}

func (m *MemoryStore) DeleteItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return &ErrNotFound{Entity: "batch item", Key: id}
}

// ── Image history ────────────────────────────────────────────

func (m *MemoryStore) ListAssets(_ context.Context) ([]models.GeneratedAsset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.GeneratedAsset, 0, len(m.assets))
	for _, a := range m.assets {
		out = append(out, *a)
	}
	return out, nil
}

func (m *MemoryStore) GetAsset(_ context.Context, id string) (*models.GeneratedAsset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assets {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, &ErrNotFound{Entity: "asset", Key: id}
}

// AppendAssets prepends a production run's results so history stays
// newest-first, preserving the order within the batch itself.
func (m *MemoryStore) AppendAssets(_ context.Context, assets []models.GeneratedAsset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prepend := make([]*models.GeneratedAsset, 0, len(assets))
	for i := range assets {
		cp := assets[i]
		prepend = append(prepend, &cp)
	}
	m.assets = append(prepend, m.assets...)
	return nil
}

func (m *MemoryStore) DeleteAsset(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.assets {
		if a.ID == id {
			m.assets = append(m.assets[:i], m.assets[i+1:]...)
			return nil
		}
	}
	return &ErrNotFound{Entity: "asset", Key: id}
}

// ── Video history ────────────────────────────────────────────

func (m *MemoryStore) ListVideos(_ context.Context) ([]models.GeneratedVideo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.GeneratedVideo, 0, len(m.videos))
	for _, v := range m.videos {
		out = append(out, *v)
	}
	return out, nil
}

func (m *MemoryStore) AppendVideo(_ context.Context, video *models.GeneratedVideo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *video
	m.videos = append([]*models.GeneratedVideo{&cp}, m.videos...)
	return nil
}

func (m *MemoryStore) DeleteVideo(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range m.videos {
		if v.ID == id {
			m.videos = append(m.videos[:i], m.videos[i+1:]...)
			return nil
		}
	}
	return &ErrNotFound{Entity: "video", Key: id}
}
