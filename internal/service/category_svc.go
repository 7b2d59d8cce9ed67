package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/facet"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/pkg/cache"
	"partsshop_v1_202610/pkg/logger"
	"partsshop_v1_202610/pkg/utils"
)

// ==================== CategoryService 分类服务 ====================

// CategoryService 分类树与分类详情
type CategoryService struct {
	categoryRepo repository.CategoryRepository
	cache        cache.Cache
}

// NewCategoryService 创建分类服务
func NewCategoryService(categoryRepo repository.CategoryRepository, c cache.Cache) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, cache: orNoop(c)}
}

// ==================== 前台查询 ====================

// GetCategoryBySlug 分类详情；不存在或未启用时返回 nil
func (s *CategoryService) GetCategoryBySlug(ctx context.Context, slug string) (*dto.CategoryDetail, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug, false)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, nil
	}

	children, err := s.categoryRepo.ListChildren(ctx, category.ID, false)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	counts, err := s.categoryRepo.CountProducts(ctx, ids, true)
	if err != nil {
		return nil, err
	}

	detail := &dto.CategoryDetail{
		ID:          category.ID,
		Name:        category.Name,
		Slug:        category.Slug,
		Description: category.Description,
		Icon:        category.Icon,
		Image:       category.Image,
		Children:    make([]dto.CategoryChild, 0, len(children)),
	}
	if category.Parent != nil {
		detail.Parent = &dto.CategoryRef{Name: category.Parent.Name, Slug: category.Parent.Slug}
	}
	for _, c := range children {
		detail.Children = append(detail.Children, dto.CategoryChild{
			ID:           c.ID,
			Name:         c.Name,
			Slug:         c.Slug,
			Icon:         c.Icon,
			Image:        c.Image,
			ProductCount: counts[c.ID],
		})
	}
	return detail, nil
}

// GetCategoryTree 根分类及其下两层，附带各节点直接挂载的上架商品数
func (s *CategoryService) GetCategoryTree(ctx context.Context, includeInactive bool) ([]dto.CategoryNode, error) {
	key := treeCacheKey(includeInactive)
	var cached []dto.CategoryNode
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	tree, err := s.buildTree(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, key, tree, 0); err != nil {
		logger.L().Warn("[Category] 写入分类树缓存失败", zap.Error(err))
	}
	return tree, nil
}

// WarmCache 重建分类树缓存（定时任务使用）
func (s *CategoryService) WarmCache(ctx context.Context) (int, error) {
	tree, err := s.buildTree(ctx, false)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Set(ctx, treeCacheKey(false), tree, 0); err != nil {
		return 0, err
	}
	return len(tree), nil
}

func (s *CategoryService) buildTree(ctx context.Context, includeInactive bool) ([]dto.CategoryNode, error) {
	categories, err := s.categoryRepo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(categories))
	children := make(map[int64][]model.Category)
	var roots []model.Category
	for _, c := range categories {
		ids = append(ids, c.ID)
		if c.ParentID == nil {
			roots = append(roots, c)
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], c)
		}
	}

	counts, err := s.categoryRepo.CountProducts(ctx, ids, true)
	if err != nil {
		return nil, err
	}

	toNode := func(c model.Category) dto.CategoryNode {
		return dto.CategoryNode{
			ID:           c.ID,
			Name:         c.Name,
			Slug:         c.Slug,
			Icon:         c.Icon,
			Image:        c.Image,
			Order:        c.Order,
			IsActive:     c.IsActive,
			ProductCount: counts[c.ID],
		}
	}

	// List 已按 sort_order, name 排序，分组后顺序保持
	tree := make([]dto.CategoryNode, 0, len(roots))
	for _, root := range roots {
		rootNode := toNode(root)
		for _, child := range children[root.ID] {
			childNode := toNode(child)
			for _, grandchild := range children[child.ID] {
				childNode.Children = append(childNode.Children, toNode(grandchild))
			}
			rootNode.Children = append(rootNode.Children, childNode)
		}
		tree = append(tree, rootNode)
	}
	return tree, nil
}

// ==================== 后台管理 ====================

// GetCategory 后台分类详情（包含未启用）
func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, notFound("分类", id)
	}
	return category, nil
}

// CreateCategory 创建分类
func (s *CategoryService) CreateCategory(ctx context.Context, req *dto.CreateCategoryReq) (*model.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidArg("分类名称不能为空")
	}
	slug, err := s.resolveSlug(ctx, req.Slug, name, 0)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.categoryRepo.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, notFound("父分类", *req.ParentID)
		}
	}

	category := &model.Category{
		Name:        name,
		Slug:        slug,
		ParentID:    req.ParentID,
		Icon:        req.Icon,
		Image:       req.Image,
		Description: req.Description,
		IsActive:    req.IsActive == nil || *req.IsActive,
		Order:       req.Order,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, translateDBError(err, "分类", slug)
	}

	invalidateCatalog(ctx, s.cache)
	logger.L().Info("[Category] 创建分类", zap.Int64("id", category.ID), zap.String("slug", slug))
	return category, nil
}

// UpdateCategory 修改分类；移动父分类时拒绝成环
func (s *CategoryService) UpdateCategory(ctx context.Context, id int64, req *dto.UpdateCategoryReq) (*model.Category, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, notFound("分类", id)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, invalidArg("分类名称不能为空")
		}
		category.Name = name
	}
	if req.Slug != nil && *req.Slug != category.Slug {
		slug, err := s.resolveSlug(ctx, *req.Slug, category.Name, id)
		if err != nil {
			return nil, err
		}
		category.Slug = slug
	}

	switch {
	case req.ClearParent:
		category.ParentID = nil
	case req.ParentID != nil:
		if err := s.checkParent(ctx, id, *req.ParentID); err != nil {
			return nil, err
		}
		parentID := *req.ParentID
		category.ParentID = &parentID
	}

	if req.Icon != nil {
		category.Icon = *req.Icon
	}
	if req.Image != nil {
		category.Image = *req.Image
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if req.Order != nil {
		category.Order = *req.Order
	}

	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return nil, translateDBError(err, "分类", category.Slug)
	}
	invalidateCatalog(ctx, s.cache)
	return category, nil
}

// DeleteCategory 删除分类；仍有子分类或商品时拒绝
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	category, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if category == nil {
		return notFound("分类", id)
	}

	children, err := s.categoryRepo.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	counts, err := s.categoryRepo.CountProducts(ctx, []int64{id}, false)
	if err != nil {
		return err
	}
	if children > 0 || counts[id] > 0 {
		return ErrCategoryInUse
	}

	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidateCatalog(ctx, s.cache)
	logger.L().Info("[Category] 删除分类", zap.Int64("id", id), zap.String("slug", category.Slug))
	return nil
}

// ==================== 辅助方法 ====================

// checkParent 新父分类必须存在，且不能是自身或自身的后代
func (s *CategoryService) checkParent(ctx context.Context, id, parentID int64) error {
	visited := map[int64]struct{}{}
	path := []int64{id}
	current := &parentID
	first := true
	for current != nil {
		if *current == id {
			return &facet.CyclicCategoryError{CategoryID: id, Path: append(path, id)}
		}
		if _, seen := visited[*current]; seen {
			// 现有数据已成环，新父分类不可用
			return &facet.CyclicCategoryError{CategoryID: *current, Path: append(path, *current)}
		}
		visited[*current] = struct{}{}
		path = append(path, *current)

		next, found, err := s.categoryRepo.ParentOf(ctx, *current)
		if err != nil {
			return err
		}
		if !found {
			if first {
				return notFound("父分类", parentID)
			}
			return nil
		}
		first = false
		current = next
	}
	return nil
}

// resolveSlug 未指定时由名称生成，冲突返回 DuplicateKeyError
func (s *CategoryService) resolveSlug(ctx context.Context, raw, name string, excludeID int64) (string, error) {
	slug := utils.Slugify(raw)
	if slug == "" {
		slug = utils.Slugify(name)
	}
	if slug == "" {
		return "", invalidArg("无法生成 slug: %s", name)
	}
	exists, err := s.categoryRepo.ExistsBySlug(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", &DuplicateKeyError{Resource: "分类", Key: slug}
	}
	return slug, nil
}
