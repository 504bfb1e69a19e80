// Package store provides the process-lifetime working state for the
// ShopShot backend: the batch item queue and the generated image and
// video histories. There is no persistence layer; state lives exactly as
// long as the process.
package store

import (
	"context"

	"github.com/shopshot/shopshot/pkg/models"
)

// Store is the storage interface the orchestrator and handlers depend on.
// Keeping it an interface makes mocks trivial in tests.
type Store interface {
	BatchItemStore
	AssetStore
	VideoStore
}

// BatchItemStore manages the upload queue. Items keep their insertion
// order; the generation pass depends on it.
type BatchItemStore interface {
	ListItems(ctx context.Context) ([]models.BatchItem, error)
	GetItem(ctx context.Context, id string) (*models.BatchItem, error)
	CreateItem(ctx context.Context, item *models.BatchItem) error
	UpdateItem(ctx context.Context, item *models.BatchItem) error
	// MutateItem applies fn to the latest stored state under the store's
	// write lock. Concurrent writers (user edits, the analysis
	// write-back) must use it instead of a get-modify-update sequence,
	// which can lose the other side's fields.
	MutateItem(ctx context.Context, id string, fn func(*models.BatchItem) error) error
	DeleteItem(ctx context.Context, id string) error
}

// AssetStore is the append-only image history, newest first.
type AssetStore interface {
	ListAssets(ctx context.Context) ([]models.GeneratedAsset, error)
	GetAsset(ctx context.Context, id string) (*models.GeneratedAsset, error)
	AppendAssets(ctx context.Context, assets []models.GeneratedAsset) error
	DeleteAsset(ctx context.Context, id string) error
}

// VideoStore is the append-only video history, newest first.
type VideoStore interface {
	ListVideos(ctx context.Context) ([]models.GeneratedVideo, error)
	AppendVideo(ctx context.Context, video *models.GeneratedVideo) error
	DeleteVideo(ctx context.Context, id string) error
}

// ErrNotFound is returned when a requested entity does not exist.
type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}
