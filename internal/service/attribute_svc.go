package service

import (
	"context"
	"strings"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/facet"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/pkg/cache"
	"partsshop_v1_202610/pkg/utils"
)

// ==================== AttributeService 属性服务 ====================

// AttributeService 属性定义与可选值管理
type AttributeService struct {
	attrRepo   repository.AttributeRepository
	filterRepo repository.CategoryFilterRepository
	cache      cache.Cache
}

// NewAttributeService 创建属性服务
func NewAttributeService(
	attrRepo repository.AttributeRepository,
	filterRepo repository.CategoryFilterRepository,
	c cache.Cache,
) *AttributeService {
	return &AttributeService{attrRepo: attrRepo, filterRepo: filterRepo, cache: orNoop(c)}
}

// UpsertAttribute 按 key 幂等写入；key 为空时由 label 生成
func (s *AttributeService) UpsertAttribute(ctx context.Context, key, label string, typ model.AttributeType) (*model.AttributeDefinition, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	attr, err := s.normalize(key, label, typ)
	if err != nil {
		return nil, err
	}

	saved, err := s.attrRepo.Upsert(ctx, attr)
	if err != nil {
		return nil, err
	}
	invalidateCatalog(ctx, s.cache)
	return saved, nil
}

// UpsertOption 按 (属性, 值) 幂等写入
func (s *AttributeService) UpsertOption(ctx context.Context, attributeID int64, value string, order int) (*model.AttributeOption, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, invalidArg("可选值不能为空")
	}

	attr, err := s.attrRepo.GetByID(ctx, attributeID)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, notFound("属性", attributeID)
	}

	opt, err := s.attrRepo.UpsertOption(ctx, &model.AttributeOption{
		AttributeID: attributeID,
		Value:       value,
		Order:       order,
	})
	if err != nil {
		return nil, err
	}
	invalidateCatalog(ctx, s.cache)
	return opt, nil
}

// CreateAttribute 新建属性，key 已存在时返回 DuplicateKeyError
func (s *AttributeService) CreateAttribute(ctx context.Context, req *dto.CreateAttributeReq) (*dto.AttributeResp, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	attr, err := s.normalize(req.Key, req.Label, model.AttributeType(req.Type))
	if err != nil {
		return nil, err
	}

	existing, err := s.attrRepo.GetByKey(ctx, attr.Key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateKeyError{Resource: "属性", Key: attr.Key}
	}

	if err := s.attrRepo.Create(ctx, attr); err != nil {
		return nil, translateDBError(err, "属性", attr.Key)
	}
	return toAttributeResp(attr), nil
}

// UpdateAttribute 修改展示名
func (s *AttributeService) UpdateAttribute(ctx context.Context, id int64, req *dto.UpdateAttributeReq) (*dto.AttributeResp, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	attr, err := s.attrRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, notFound("属性", id)
	}

	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, invalidArg("属性名称不能为空")
	}
	saved, err := s.attrRepo.Upsert(ctx, &model.AttributeDefinition{Key: attr.Key, Label: label, Type: attr.Type})
	if err != nil {
		return nil, err
	}
	invalidateCatalog(ctx, s.cache)
	return toAttributeResp(saved), nil
}

// ListAttributes 全部属性及可选值
func (s *AttributeService) ListAttributes(ctx context.Context) ([]dto.AttributeResp, error) {
	attrs, err := s.attrRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]dto.AttributeResp, 0, len(attrs))
	for i := range attrs {
		list = append(list, *toAttributeResp(&attrs[i]))
	}
	return list, nil
}

// GetAttribute 属性详情
func (s *AttributeService) GetAttribute(ctx context.Context, id int64) (*dto.AttributeResp, error) {
	attr, err := s.attrRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if attr == nil {
		return nil, notFound("属性", id)
	}
	return toAttributeResp(attr), nil
}

// ReorderOptions 按 optionIDs 的顺序重新编号，必须恰好覆盖该属性的全部可选值
func (s *AttributeService) ReorderOptions(ctx context.Context, attributeID int64, optionIDs []int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	attr, err := s.attrRepo.GetByID(ctx, attributeID)
	if err != nil {
		return err
	}
	if attr == nil {
		return notFound("属性", attributeID)
	}
	opts, err := s.attrRepo.ListOptions(ctx, attributeID)
	if err != nil {
		return err
	}

	owned := make(map[int64]struct{}, len(opts))
	for _, o := range opts {
		owned[o.ID] = struct{}{}
	}
	if len(optionIDs) != len(owned) {
		return invalidArg("需要提供全部 %d 个可选值", len(owned))
	}

	orders := make(map[int64]int, len(optionIDs))
	for i, id := range optionIDs {
		if _, ok := owned[id]; !ok {
			return invalidArg("可选值 %d 不属于属性 %d", id, attributeID)
		}
		if _, dup := orders[id]; dup {
			return invalidArg("可选值 %d 重复", id)
		}
		orders[id] = i
	}

	if err := s.attrRepo.UpdateOptionOrders(ctx, attributeID, orders); err != nil {
		return err
	}
	invalidateCatalog(ctx, s.cache)
	return nil
}

// DeleteOption 删除可选值
func (s *AttributeService) DeleteOption(ctx context.Context, optionID int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	opt, err := s.attrRepo.GetOption(ctx, optionID)
	if err != nil {
		return err
	}
	if opt == nil {
		return notFound("可选值", optionID)
	}
	if err := s.attrRepo.DeleteOption(ctx, optionID); err != nil {
		return err
	}
	invalidateCatalog(ctx, s.cache)
	return nil
}

// DeleteAttribute 删除属性；仍被分类筛选器引用时拒绝
func (s *AttributeService) DeleteAttribute(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	attr, err := s.attrRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if attr == nil {
		return notFound("属性", id)
	}

	inUse, err := s.filterRepo.CountByAttribute(ctx, id)
	if err != nil {
		return err
	}
	if inUse > 0 {
		return ErrAttributeInUse
	}

	if err := s.attrRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidateCatalog(ctx, s.cache)
	return nil
}

// ==================== 辅助方法 ====================

func (s *AttributeService) normalize(key, label string, typ model.AttributeType) (*model.AttributeDefinition, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, invalidArg("属性名称不能为空")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = utils.MachineKey(label)
	}
	if key == "" {
		return nil, invalidArg("无法从名称生成属性 key: %s", label)
	}
	if facet.IsReservedKey(key) {
		return nil, invalidArg("属性 key %q 与内置筛选或保留参数冲突", key)
	}
	if typ == "" {
		typ = model.AttributeTypeEnum
	}
	if typ != model.AttributeTypeEnum {
		return nil, invalidArg("不支持的属性类型: %s", typ)
	}
	return &model.AttributeDefinition{Key: key, Label: label, Type: typ}, nil
}

func toAttributeResp(attr *model.AttributeDefinition) *dto.AttributeResp {
	resp := &dto.AttributeResp{
		ID:      attr.ID,
		Key:     attr.Key,
		Label:   attr.Label,
		Type:    string(attr.Type),
		Options: make([]dto.AttributeOptionResp, 0, len(attr.Options)),
	}
	for _, o := range attr.Options {
		resp.Options = append(resp.Options, dto.AttributeOptionResp{ID: o.ID, Value: o.Value, Order: o.Order})
	}
	return resp
}
