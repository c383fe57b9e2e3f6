package repository

import (
	"context"
	"fmt"

	"cafefinder/model"

	"gorm.io/gorm"
)

// editable lists the columns an edit may change; id, owner_id and created_at are fixed.
var editable = []string{
	"name", "map_url", "img_url", "location", "seats",
	"has_toilet", "has_wifi", "has_sockets", "can_take_calls", "coffee_price",
}

type CafeRepository struct {
	db *gorm.DB
}

func NewCafeRepository(db *gorm.DB) *CafeRepository {
	return &CafeRepository{db: db}
}

func (r *CafeRepository) List(ctx context.Context) ([]model.Cafe, error) {
	var cafes []model.Cafe
	if err := r.db.WithContext(ctx).Order("id").Find(&cafes).Error; err != nil {
		return nil, fmt.Errorf("list cafes: %w", err)
	}
	return cafes, nil
}

func (r *CafeRepository) FindByID(ctx context.Context, id uint) (*model.Cafe, error) {
	var cafe model.Cafe
	if err := r.db.WithContext(ctx).First(&cafe, id).Error; err != nil {
		return nil, translate(err)
	}
	return &cafe, nil
}

func (r *CafeRepository) Create(ctx context.Context, cafe *model.Cafe) error {
	cafe.Prepare()
	return translate(r.db.WithContext(ctx).Create(cafe).Error)
}

// CreateBatch inserts all cafes in one statement; nothing is stored if any row fails.
func (r *CafeRepository) CreateBatch(ctx context.Context, cafes []model.Cafe) error {
	if len(cafes) == 0 {
		return nil
	}
	for i := range cafes {
		cafes[i].Prepare()
	}
	return translate(r.db.WithContext(ctx).Create(&cafes).Error)
}

func (r *CafeRepository) Update(ctx context.Context, cafe *model.Cafe) error {
	cafe.Prepare()
	result := r.db.WithContext(ctx).
		Model(&model.Cafe{ID: cafe.ID}).
		Select(editable).
		Updates(cafe)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ImageInUse reports whether any cafe still points at imgURL.
func (r *CafeRepository) ImageInUse(ctx context.Context, imgURL string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Cafe{}).Where("img_url = ?", imgURL).Count(&n).Error; err != nil {
		return false, fmt.Errorf("count cafes by image: %w", err)
	}
	return n > 0, nil
}

func (r *CafeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&model.Cafe{}, id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
