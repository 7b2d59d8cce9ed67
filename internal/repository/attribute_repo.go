package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"partsshop_v1_202610/internal/model"
)

// ==================== AttributeRepository 属性仓库 ====================

// AttributeRepository 属性定义与可选值仓库接口
type AttributeRepository interface {
	Create(ctx context.Context, attr *model.AttributeDefinition) error
	GetByID(ctx context.Context, id int64) (*model.AttributeDefinition, error)
	GetByKey(ctx context.Context, key string) (*model.AttributeDefinition, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.AttributeDefinition, error)
	List(ctx context.Context) ([]model.AttributeDefinition, error)
	Upsert(ctx context.Context, attr *model.AttributeDefinition) (*model.AttributeDefinition, error)
	Delete(ctx context.Context, id int64) error

	// 可选值
	GetOption(ctx context.Context, id int64) (*model.AttributeOption, error)
	ListOptions(ctx context.Context, attributeID int64) ([]model.AttributeOption, error)
	UpsertOption(ctx context.Context, opt *model.AttributeOption) (*model.AttributeOption, error)
	UpdateOptionOrders(ctx context.Context, attributeID int64, orders map[int64]int) error
	DeleteOption(ctx context.Context, id int64) error

	// 事务
	WithTx(tx *gorm.DB) AttributeRepository
	Transaction(ctx context.Context, fn func(txRepo AttributeRepository) error) error
}

// ==================== 实现 ====================

type attributeRepository struct {
	db *gorm.DB
}

// NewAttributeRepository 创建属性仓库
func NewAttributeRepository(db *gorm.DB) AttributeRepository {
	return &attributeRepository{db: db}
}

func optionsOrdered(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order ASC, id ASC")
}

func (r *attributeRepository) Create(ctx context.Context, attr *model.AttributeDefinition) error {
	return r.db.WithContext(ctx).Omit("Options").Create(attr).Error
}

func (r *attributeRepository) GetByID(ctx context.Context, id int64) (*model.AttributeDefinition, error) {
	var attr model.AttributeDefinition
	err := r.db.WithContext(ctx).Preload("Options", optionsOrdered).First(&attr, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attr, nil
}

func (r *attributeRepository) GetByKey(ctx context.Context, key string) (*model.AttributeDefinition, error) {
	var attr model.AttributeDefinition
	err := r.db.WithContext(ctx).Preload("Options", optionsOrdered).Where("key = ?", key).First(&attr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &attr, nil
}

// GetByIDs 批量获取（含可选值），不存在的 ID 不出现在结果中
func (r *attributeRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*model.AttributeDefinition, error) {
	result := make(map[int64]*model.AttributeDefinition, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var attrs []model.AttributeDefinition
	if err := r.db.WithContext(ctx).
		Preload("Options", optionsOrdered).
		Where("id IN ?", ids).
		Find(&attrs).Error; err != nil {
		return nil, err
	}
	for i := range attrs {
		result[attrs[i].ID] = &attrs[i]
	}
	return result, nil
}

func (r *attributeRepository) List(ctx context.Context) ([]model.AttributeDefinition, error) {
	var attrs []model.AttributeDefinition
	err := r.db.WithContext(ctx).
		Preload("Options", optionsOrdered).
		Order("label ASC, id ASC").
		Find(&attrs).Error
	return attrs, err
}

// Upsert 按 key 幂等写入，冲突时更新 label/type
func (r *attributeRepository) Upsert(ctx context.Context, attr *model.AttributeDefinition) (*model.AttributeDefinition, error) {
	err := r.db.WithContext(ctx).Omit("Options").Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"label", "type", "updated_by", "updated_at", "deleted_at",
		}),
	}).Create(attr).Error
	if err != nil {
		return nil, err
	}
	return r.GetByKey(ctx, attr.Key)
}

// Delete 物理删除属性及其可选值
func (r *attributeRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("attribute_id = ?", id).Delete(&model.AttributeOption{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("attribute_id = ?", id).Delete(&model.ProductAttributeValue{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&model.AttributeDefinition{}, id).Error
	})
}

// ==================== 可选值 ====================

func (r *attributeRepository) GetOption(ctx context.Context, id int64) (*model.AttributeOption, error) {
	var opt model.AttributeOption
	err := r.db.WithContext(ctx).First(&opt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &opt, nil
}

func (r *attributeRepository) ListOptions(ctx context.Context, attributeID int64) ([]model.AttributeOption, error) {
	var opts []model.AttributeOption
	err := optionsOrdered(r.db.WithContext(ctx)).
		Where("attribute_id = ?", attributeID).
		Find(&opts).Error
	return opts, err
}

// UpsertOption 按 (attribute_id, value) 幂等写入，冲突时更新排序
func (r *attributeRepository) UpsertOption(ctx context.Context, opt *model.AttributeOption) (*model.AttributeOption, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attribute_id"}, {Name: "value"}},
		DoUpdates: clause.AssignmentColumns([]string{"sort_order", "updated_at", "deleted_at"}),
	}).Create(opt).Error
	if err != nil {
		return nil, err
	}

	var saved model.AttributeOption
	if err := r.db.WithContext(ctx).
		Where("attribute_id = ? AND value = ?", opt.AttributeID, opt.Value).
		First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateOptionOrders 批量更新排序 optionID -> order
func (r *attributeRepository) UpdateOptionOrders(ctx context.Context, attributeID int64, orders map[int64]int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, order := range orders {
			if err := tx.Model(&model.AttributeOption{}).
				Where("id = ? AND attribute_id = ?", id, attributeID).
				Update("sort_order", order).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *attributeRepository) DeleteOption(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.AttributeOption{}, id).Error
}

func (r *attributeRepository) WithTx(tx *gorm.DB) AttributeRepository {
	return &attributeRepository{db: tx}
}

func (r *attributeRepository) Transaction(ctx context.Context, fn func(txRepo AttributeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}
