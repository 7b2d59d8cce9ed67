package service

import (
	"context"
	"strings"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/pkg/cache"
	"partsshop_v1_202610/pkg/utils"
)

// BrandService 品牌管理
type BrandService struct {
	brandRepo repository.BrandRepository
	cache     cache.Cache
}

func NewBrandService(brandRepo repository.BrandRepository, c cache.Cache) *BrandService {
	return &BrandService{brandRepo: brandRepo, cache: orNoop(c)}
}

// ListBrands 品牌列表，前台只看启用的
func (s *BrandService) ListBrands(ctx context.Context, activeOnly bool) ([]dto.BrandResp, error) {
	brands, err := s.brandRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	list := make([]dto.BrandResp, 0, len(brands))
	for i := range brands {
		list = append(list, toBrandResp(&brands[i]))
	}
	return list, nil
}

func (s *BrandService) CreateBrand(ctx context.Context, req *dto.BrandReq) (*dto.BrandResp, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	brand := &model.Brand{
		Name:     strings.TrimSpace(req.Name),
		Logo:     req.Logo,
		Order:    req.Order,
		IsActive: boolOr(req.IsActive, true),
	}
	slug, err := s.resolveSlug(ctx, req.Slug, brand.Name, 0)
	if err != nil {
		return nil, err
	}
	brand.Slug = slug

	if err := s.brandRepo.Create(ctx, brand); err != nil {
		return nil, translateDBError(err, "品牌", slug)
	}
	invalidateCatalog(ctx, s.cache)
	resp := toBrandResp(brand)
	return &resp, nil
}

func (s *BrandService) UpdateBrand(ctx context.Context, id int64, req *dto.BrandReq) (*dto.BrandResp, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	brand, err := s.brandRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if brand == nil {
		return nil, notFound("品牌", id)
	}

	brand.Name = strings.TrimSpace(req.Name)
	brand.Logo = req.Logo
	brand.Order = req.Order
	if req.IsActive != nil {
		brand.IsActive = *req.IsActive
	}
	if req.Slug != "" && req.Slug != brand.Slug {
		slug, err := s.resolveSlug(ctx, req.Slug, brand.Name, id)
		if err != nil {
			return nil, err
		}
		brand.Slug = slug
	}

	if err := s.brandRepo.Update(ctx, brand); err != nil {
		return nil, translateDBError(err, "品牌", brand.Slug)
	}
	invalidateCatalog(ctx, s.cache)
	resp := toBrandResp(brand)
	return &resp, nil
}

// DeleteBrand 仍有商品引用时拒绝
func (s *BrandService) DeleteBrand(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	brand, err := s.brandRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if brand == nil {
		return notFound("品牌", id)
	}
	count, err := s.brandRepo.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrBrandInUse
	}
	if err := s.brandRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidateCatalog(ctx, s.cache)
	return nil
}

func (s *BrandService) resolveSlug(ctx context.Context, raw, name string, excludeID int64) (string, error) {
	if name == "" {
		return "", invalidArg("品牌名称不能为空")
	}
	slug := utils.Slugify(raw)
	if slug == "" {
		slug = utils.Slugify(name)
	}
	existing, err := s.brandRepo.GetBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	if existing != nil && existing.ID != excludeID {
		return "", &DuplicateKeyError{Resource: "品牌", Key: slug}
	}
	return slug, nil
}

func toBrandResp(b *model.Brand) dto.BrandResp {
	return dto.BrandResp{
		ID:       b.ID,
		Name:     b.Name,
		Slug:     b.Slug,
		Logo:     b.Logo,
		Order:    b.Order,
		IsActive: b.IsActive,
	}
}
