package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/pkg/cache"
	"partsshop_v1_202610/pkg/logger"
	"partsshop_v1_202610/pkg/utils"
)

// ==================== ProductService 商品服务 ====================

// ProductService 商品详情与后台管理
type ProductService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	brandRepo    repository.BrandRepository
	attrRepo     repository.AttributeRepository
	// 商品数量挂在分类树缓存上，写操作后需失效
	cache cache.Cache
}

// NewProductService 创建商品服务
func NewProductService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	brandRepo repository.BrandRepository,
	attrRepo repository.AttributeRepository,
	c cache.Cache,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		brandRepo:    brandRepo,
		attrRepo:     attrRepo,
		cache:        orNoop(c),
	}
}

// GetProductBySlug 前台商品详情，只返回上架商品
func (s *ProductService) GetProductBySlug(ctx context.Context, slug string) (*dto.ProductDetail, error) {
	product, err := s.productRepo.GetBySlug(ctx, slug, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, notFound("商品", slug)
	}
	return toProductDetail(product), nil
}

// ==================== 后台管理 ====================

// ListProducts 后台商品列表
func (s *ProductService) ListProducts(ctx context.Context, req *dto.AdminProductListReq) (*dto.PageResult[*dto.ProductDetail], error) {
	products, total, err := s.productRepo.List(ctx, repository.ProductFilter{
		CategoryID: req.CategoryID,
		BrandID:    req.BrandID,
		IsActive:   req.IsActive,
		Keyword:    req.Keyword,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		return nil, err
	}
	list := make([]*dto.ProductDetail, 0, len(products))
	for i := range products {
		list = append(list, toProductDetail(&products[i]))
	}
	return dto.NewPageResult(list, total, req.Page, req.PageSize), nil
}

// GetProduct 后台商品详情（含下架）
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*dto.ProductDetail, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, notFound("商品", id)
	}
	return toProductDetail(product), nil
}

// CreateProduct 创建商品；未指定 slug 时由名称生成，冲突时追加随机后缀
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.ProductReq) (*dto.ProductDetail, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	slug, err := s.resolveSlug(ctx, req.Slug, req.Name, 0)
	if err != nil {
		return nil, err
	}

	product := &model.Product{Slug: slug}
	if err := applyProductReq(product, req); err != nil {
		return nil, err
	}
	product.Attributes = toAttributeValues(req.Attributes)

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, translateDBError(err, "商品", slug)
	}
	invalidateCatalog(ctx, s.cache)
	logger.L().Info("[Product] 创建商品", zap.Int64("id", product.ID), zap.String("slug", slug))
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct 修改商品，属性值整体替换
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, req *dto.ProductReq) (*dto.ProductDetail, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, notFound("商品", id)
	}
	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}
	if req.Slug != "" && utils.Slugify(req.Slug) != product.Slug {
		slug, err := s.resolveSlug(ctx, req.Slug, req.Name, id)
		if err != nil {
			return nil, err
		}
		product.Slug = slug
	}
	if err := applyProductReq(product, req); err != nil {
		return nil, err
	}

	values := toAttributeValues(req.Attributes)
	err = s.productRepo.Transaction(ctx, func(txRepo repository.ProductRepository) error {
		if err := txRepo.Update(ctx, product); err != nil {
			return translateDBError(err, "商品", product.Slug)
		}
		return txRepo.ReplaceAttributes(ctx, id, values)
	})
	if err != nil {
		return nil, err
	}
	invalidateCatalog(ctx, s.cache)
	return s.GetProduct(ctx, id)
}

// DeleteProduct 软删除商品
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if product == nil {
		return notFound("商品", id)
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	invalidateCatalog(ctx, s.cache)
	return nil
}

// ==================== 辅助方法 ====================

func (s *ProductService) validate(ctx context.Context, req *dto.ProductReq) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalidArg("商品名称不能为空")
	}
	if req.Price.IsNegative() {
		return invalidArg("价格不能为负数")
	}
	if req.Stock < 0 {
		return invalidArg("库存不能为负数")
	}

	category, err := s.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return notFound("分类", req.CategoryID)
	}

	if req.BrandID != nil {
		brand, err := s.brandRepo.GetByID(ctx, *req.BrandID)
		if err != nil {
			return err
		}
		if brand == nil {
			return notFound("品牌", *req.BrandID)
		}
	}

	if len(req.Attributes) > 0 {
		ids := make([]int64, 0, len(req.Attributes))
		for _, a := range req.Attributes {
			ids = append(ids, a.AttributeID)
		}
		attrs, err := s.attrRepo.GetByIDs(ctx, ids)
		if err != nil {
			return err
		}
		for _, a := range req.Attributes {
			if _, ok := attrs[a.AttributeID]; !ok {
				return notFound("属性", a.AttributeID)
			}
		}
	}
	return nil
}

func (s *ProductService) resolveSlug(ctx context.Context, raw, name string, excludeID int64) (string, error) {
	explicit := strings.TrimSpace(raw) != ""
	base := utils.Slugify(raw)
	if base == "" {
		base = utils.Slugify(name)
	}
	if base == "" {
		return "", invalidArg("无法生成 slug: %s", name)
	}

	exists, err := s.productRepo.ExistsBySlug(ctx, base, excludeID)
	if err != nil {
		return "", err
	}
	if !exists {
		return base, nil
	}
	if explicit {
		return "", &DuplicateKeyError{Resource: "商品", Key: base}
	}
	return base + "-" + uuid.New().String()[:8], nil
}

func applyProductReq(p *model.Product, req *dto.ProductReq) error {
	p.Name = strings.TrimSpace(req.Name)
	p.SKU = strings.TrimSpace(req.SKU)
	p.Description = req.Description
	p.CategoryID = req.CategoryID
	p.BrandID = req.BrandID
	p.Price = req.Price
	p.Stock = req.Stock
	p.IsActive = boolOr(req.IsActive, true)
	p.Order = req.Order

	images := req.Images
	if images == nil {
		images = []string{}
	}
	raw, err := json.Marshal(images)
	if err != nil {
		return err
	}
	p.Images = datatypes.JSON(raw)
	return nil
}

// toAttributeValues 同一属性的重复值去重
func toAttributeValues(inputs []dto.ProductAttrInput) []model.ProductAttributeValue {
	type pair struct {
		attributeID int64
		value       string
	}
	seen := make(map[pair]struct{}, len(inputs))
	values := make([]model.ProductAttributeValue, 0, len(inputs))
	for _, in := range inputs {
		value := strings.TrimSpace(in.Value)
		key := pair{in.AttributeID, value}
		if _, dup := seen[key]; dup || value == "" {
			continue
		}
		seen[key] = struct{}{}
		values = append(values, model.ProductAttributeValue{AttributeID: in.AttributeID, Value: value})
	}
	return values
}

func productImages(p *model.Product) []string {
	images := []string{}
	if len(p.Images) > 0 {
		if err := json.Unmarshal(p.Images, &images); err != nil {
			logger.L().Warn("[Product] 图片字段解析失败", zap.Int64("id", p.ID), zap.Error(err))
		}
	}
	return images
}

func toProductCard(p *model.Product) dto.ProductCard {
	card := dto.ProductCard{
		ID:      p.ID,
		Name:    p.Name,
		Slug:    p.Slug,
		SKU:     p.SKU,
		Price:   p.Price,
		InStock: p.Stock > 0,
	}
	if p.Brand != nil {
		card.Brand = &dto.BrandRef{Name: p.Brand.Name, Slug: p.Brand.Slug}
	}
	if images := productImages(p); len(images) > 0 {
		card.Image = images[0]
	}
	return card
}

func toProductDetail(p *model.Product) *dto.ProductDetail {
	detail := &dto.ProductDetail{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		SKU:         p.SKU,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		Order:       p.Order,
		CategoryID:  p.CategoryID,
		BrandID:     p.BrandID,
		Images:      productImages(p),
		Attributes:  make([]dto.ProductAttr, 0, len(p.Attributes)),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Category != nil {
		detail.Category = &dto.CategoryRef{Name: p.Category.Name, Slug: p.Category.Slug}
	}
	if p.Brand != nil {
		detail.Brand = &dto.BrandRef{Name: p.Brand.Name, Slug: p.Brand.Slug}
	}
	for _, a := range p.Attributes {
		attr := dto.ProductAttr{Value: a.Value}
		if a.Attribute != nil {
			attr.Key = a.Attribute.Key
			attr.Label = a.Attribute.Label
		}
		detail.Attributes = append(detail.Attributes, attr)
	}
	return detail
}
