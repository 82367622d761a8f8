package repo

import (
	"Marketplace/internal/model"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

// хелпер для создания базового item
func mkItem(owner, category string, created time.Time, imageURLs ...string) model.Item {
	id := uuid.NewString()
	it := model.Item{
		ID:        id,
		OwnerID:   owner,
		Title:     "title " + id[:8],
		Price:     10,
		Category:  category,
		Status:    model.StatusActive,
		CreatedAt: created.UTC(),
	}
	for i, u := range imageURLs {
		it.Images = append(it.Images, model.Image{
			ID:        uuid.NewString(),
			ItemID:    id,
			Ordinal:   i,
			Key:       uuid.NewString() + ".png",
			URL:       u,
			MimeType:  "image/png",
			SizeBytes: 3,
		})
	}
	return it
}

func TestItemRepository_Create_GetByID_ImageOrder(t *testing.T) {
	db := newTestDB(t)
	r := NewItemRepository(db)
	ctx := context.Background()

	it := mkItem("owner-1", "furniture", time.Now(), "http://x/A", "http://x/B", "http://x/C")
	assert.NoError(t, r.Create(ctx, &it))

	got, err := r.GetByID(ctx, it.ID)
	assert.NoError(t, err)
	assert.Equal(t, "owner-1", got.OwnerID)
	if assert.Len(t, got.Images, 3) {
		assert.Equal(t, "http://x/A", got.Images[0].URL)
		assert.Equal(t, "http://x/B", got.Images[1].URL)
		assert.Equal(t, "http://x/C", got.Images[2].URL)
	}
	assert.Equal(t, "http://x/A", got.ImageURL())

	_, err = r.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestItemRepository_Create_RollsBackOnImageFailure(t *testing.T) {
	db := newTestDB(t)
	r := NewItemRepository(db)
	ctx := context.Background()

	first := mkItem("owner-1", "books", time.Now(), "http://x/A")
	assert.NoError(t, r.Create(ctx, &first))

	// повторно используем ключ изображения, уникальный индекс ломает транзакцию
	second := mkItem("owner-1", "books", time.Now(), "http://x/B")
	second.Images[0].Key = first.Images[0].Key
	assert.Error(t, r.Create(ctx, &second))

	_, err := r.GetByID(ctx, second.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestItemRepository_List_Filters(t *testing.T) {
	db := newTestDB(t)
	r := NewItemRepository(db)
	ctx := context.Background()

	t1 := time.Now().Add(-3 * time.Hour)
	t2 := time.Now().Add(-2 * time.Hour)
	t3 := time.Now().Add(-1 * time.Hour)

	a := mkItem("u1", "furniture", t1)
	b := mkItem("u1", "books", t2)
	c := mkItem("u2", "furniture", t3)
	for _, it := range []*model.Item{&a, &b, &c} {
		assert.NoError(t, r.Create(ctx, it))
	}

	// все, новые первыми
	all, err := r.List(ctx, ItemFilter{})
	assert.NoError(t, err)
	if assert.Len(t, all, 3) {
		assert.Equal(t, c.ID, all[0].ID)
		assert.Equal(t, b.ID, all[1].ID)
		assert.Equal(t, a.ID, all[2].ID)
	}

	byCat, err := r.List(ctx, ItemFilter{Category: "furniture"})
	assert.NoError(t, err)
	assert.Len(t, byCat, 2)

	byOwner, err := r.List(ctx, ItemFilter{OwnerID: "u1"})
	assert.NoError(t, err)
	assert.Len(t, byOwner, 2)

	page, err := r.List(ctx, ItemFilter{Limit: 1, Offset: 1})
	assert.NoError(t, err)
	if assert.Len(t, page, 1) {
		assert.Equal(t, b.ID, page[0].ID)
	}
}

func TestItemRepository_UpdateStatus(t *testing.T) {
	db := newTestDB(t)
	r := NewItemRepository(db)
	ctx := context.Background()

	it := mkItem("u1", "furniture", time.Now())
	assert.NoError(t, r.Create(ctx, &it))

	assert.NoError(t, r.UpdateStatus(ctx, it.ID, model.StatusSold))
	got, err := r.GetByID(ctx, it.ID)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusSold, got.Status)

	sold, err := r.List(ctx, ItemFilter{Status: model.StatusSold})
	assert.NoError(t, err)
	assert.Len(t, sold, 1)

	assert.ErrorIs(t, r.UpdateStatus(ctx, uuid.NewString(), model.StatusSold), gorm.ErrRecordNotFound)
}
