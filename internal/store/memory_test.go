package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopshot/shopshot/pkg/models"
)

func TestMemoryStore_ItemLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	item := &models.BatchItem{ID: "a", FileName: "shirt.png", Status: models.ItemStatusPending}
	if err := s.CreateItem(ctx, item); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	got, err := s.GetItem(ctx, "a")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.FileName != "shirt.png" {
		t.Errorf("FileName = %q, want shirt.png", got.FileName)
	}

	// Mutating the returned copy must not leak into the store.
	got.Status = models.ItemStatusError
	again, _ := s.GetItem(ctx, "a")
	if again.Status != models.ItemStatusPending {
		t.Errorf("store leaked a mutation: status = %q", again.Status)
	}

	got.Status = models.ItemStatusReady
	if err := s.UpdateItem(ctx, got); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	updated, _ := s.GetItem(ctx, "a")
	if updated.Status != models.ItemStatusReady {
		t.Errorf("status after update = %q, want ready", updated.Status)
	}

	if err := s.DeleteItem(ctx, "a"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if _, err := s.GetItem(ctx, "a"); err == nil {
		t.Error("GetItem after delete should fail")
	}
}

func TestMemoryStore_ItemsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, id := range []string{"first", "second", "third"} {
		if err := s.CreateItem(ctx, &models.BatchItem{ID: id}); err != nil {
			t.Fatalf("CreateItem(%s): %v", id, err)
		}
	}

	items, err := s.ListItems(ctx)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if items[i].ID != w {
			t.Errorf("items[%d].ID = %q, want %q", i, items[i].ID, w)
		}
	}
}

func TestMemoryStore_NotFoundTyped(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.GetItem(ctx, "missing")
	var notFound *ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("GetItem error = %T, want *ErrNotFound", err)
	}
	if notFound.Key != "missing" {
		t.Errorf("Key = %q, want missing", notFound.Key)
	}

	if err := s.UpdateItem(ctx, &models.BatchItem{ID: "missing"}); !errors.As(err, &notFound) {
		t.Errorf("UpdateItem error = %T, want *ErrNotFound", err)
	}
	if err := s.DeleteAsset(ctx, "missing"); !errors.As(err, &notFound) {
		t.Errorf("DeleteAsset error = %T, want *ErrNotFound", err)
	}
}

func TestMemoryStore_MutateItem(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.CreateItem(ctx, &models.BatchItem{
		ID:            "a",
		FileName:      "shirt.png",
		SelectedAngle: models.AngleFront,
	}); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	if err := s.MutateItem(ctx, "a", func(it *models.BatchItem) error {
		it.SelectedAngle = models.AngleBack
		return nil
	}); err != nil {
		t.Fatalf("MutateItem: %v", err)
	}
	got, _ := s.GetItem(ctx, "a")
	if got.SelectedAngle != models.AngleBack || got.FileName != "shirt.png" {
		t.Errorf("item after mutate = %+v", got)
	}

	// A failing fn leaves the stored item untouched.
	wantErr := errors.New("rejected")
	err := s.MutateItem(ctx, "a", func(it *models.BatchItem) error {
		it.FileName = "clobbered.png"
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("MutateItem error = %v, want %v", err, wantErr)
	}
	got, _ = s.GetItem(ctx, "a")
	if got.FileName != "shirt.png" {
		t.Errorf("failed mutation leaked: FileName = %q", got.FileName)
	}

	var notFound *ErrNotFound
	if err := s.MutateItem(ctx, "missing", func(*models.BatchItem) error { return nil }); !errors.As(err, &notFound) {
		t.Errorf("MutateItem(missing) error = %T, want *ErrNotFound", err)
	}
}

func TestMemoryStore_HistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.AppendAssets(ctx, []models.GeneratedAsset{{ID: "run1-a"}, {ID: "run1-b"}}); err != nil {
		t.Fatalf("AppendAssets: %v", err)
	}
	if err := s.AppendAssets(ctx, []models.GeneratedAsset{{ID: "run2-a"}}); err != nil {
		t.Fatalf("AppendAssets: %v", err)
	}

	assets, err := s.ListAssets(ctx)
	if err != nil {
		t.Fatalf("ListAssets: %v", err)
	}
	want := []string{"run2-a", "run1-a", "run1-b"}
	if len(assets) != len(want) {
		t.Fatalf("history length = %d, want %d", len(assets), len(want))
	}
	for i, w := range want {
		if assets[i].ID != w {
			t.Errorf("assets[%d].ID = %q, want %q", i, assets[i].ID, w)
		}
	}
}

func TestMemoryStore_VideoHistory(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.AppendVideo(ctx, &models.GeneratedVideo{ID: "v1"}); err != nil {
		t.Fatalf("AppendVideo: %v", err)
	}
	if err := s.AppendVideo(ctx, &models.GeneratedVideo{ID: "v2"}); err != nil {
		t.Fatalf("AppendVideo: %v", err)
	}

	videos, err := s.ListVideos(ctx)
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if videos[0].ID != "v2" || videos[1].ID != "v1" {
		t.Errorf("video order = [%s %s], want [v2 v1]", videos[0].ID, videos[1].ID)
	}

	if err := s.DeleteVideo(ctx, "v2"); err != nil {
		t.Fatalf("DeleteVideo: %v", err)
	}
	videos, _ = s.ListVideos(ctx)
	if len(videos) != 1 || videos[0].ID != "v1" {
		t.Errorf("videos after delete = %v", videos)
	}
}
