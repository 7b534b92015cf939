package repository

import (
	"context"
	"testing"

	"persona-chat-server/internal/model"
)

func TestLorebookRepository_GetUnsetKeyReturnsEmpty(t *testing.T) {
	repo := NewLorebookRepository(openTestDB(t))

	value, err := repo.Get(context.Background(), model.LorebookKeyPersonality)
	if err != nil {
		t.Fatalf("Get on unset key failed: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty string, got %q", value)
	}
}

func TestLorebookRepository_SetIsUpsert(t *testing.T) {
	repo := NewLorebookRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Set(ctx, model.LorebookKeyPersonality, "v1"); err != nil {
		t.Fatalf("first set failed: %v", err)
	}
	if err := repo.Set(ctx, model.LorebookKeyPersonality, "v2"); err != nil {
		t.Fatalf("second set failed: %v", err)
	}

	value, err := repo.Get(ctx, model.LorebookKeyPersonality)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "v2" {
		t.Errorf("expected overwrite to v2, got %q", value)
	}

	// 覆盖而不是追加：表里只应有一行
	var count int64
	if err := repo.db.Model(&model.LorebookEntry{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly 1 row, got %d", count)
	}
}

func TestLorebookRepository_SetIdempotent(t *testing.T) {
	repo := NewLorebookRepository(openTestDB(t))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Set(ctx, model.LorebookKeyPersonality, "same"); err != nil {
			t.Fatalf("set %d failed: %v", i, err)
		}
	}

	value, err := repo.Get(ctx, model.LorebookKeyPersonality)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "same" {
		t.Errorf("expected %q, got %q", "same", value)
	}
}

func TestLorebookRepository_EmptyValueIsValid(t *testing.T) {
	repo := NewLorebookRepository(openTestDB(t))
	ctx := context.Background()

	if err := repo.Set(ctx, model.LorebookKeyPersonality, "something"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := repo.Set(ctx, model.LorebookKeyPersonality, ""); err != nil {
		t.Fatalf("set to empty failed: %v", err)
	}

	value, err := repo.Get(ctx, model.LorebookKeyPersonality)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty string after clearing, got %q", value)
	}
}
