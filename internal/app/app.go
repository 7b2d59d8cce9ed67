// Package app 组装仓库、服务与控制器
package app

import (
	"github.com/go-resty/resty/v2"
	"gorm.io/gorm"

	"partsshop_v1_202610/internal/controller"
	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/internal/router"
	"partsshop_v1_202610/internal/service"
	"partsshop_v1_202610/pkg/cache"
)

// ==================== 依赖容器 ====================

// Dependencies 依赖容器
type Dependencies struct {
	DB          *gorm.DB
	Cache       cache.Cache
	Repos       *Repositories
	Services    *Services
	Controllers *router.Controllers
}

// Repositories 仓库集合
type Repositories struct {
	Attribute repository.AttributeRepository
	Category  repository.CategoryRepository
	Filter    repository.CategoryFilterRepository
	Brand     repository.BrandRepository
	Product   repository.ProductRepository
	Order     repository.OrderRepository
	User      repository.UserRepository
}

// Services 服务集合
type Services struct {
	Attribute  *service.AttributeService
	Category   *service.CategoryService
	Filter     *service.FilterService
	Brand      *service.BrandService
	Product    *service.ProductService
	Storefront *service.StorefrontService
	Order      *service.OrderService
	User       *service.UserService
	Storage    *service.StorageService
}

// Options 外部依赖
type Options struct {
	Storage    service.StorageProvider
	HTTPClient *resty.Client // 远程图片抓取，nil 使用默认客户端
	Bank       service.BankTransferOptions
}

// ==================== 初始化 ====================

// Build 初始化所有依赖
func Build(db *gorm.DB, c cache.Cache, opts Options) *Dependencies {
	if c == nil {
		c = cache.Noop{}
	}

	// -------- Repo 层 --------
	repos := initRepositories(db)

	// -------- 业务服务 --------
	services := &Services{
		Attribute: service.NewAttributeService(repos.Attribute, repos.Filter, c),
		Category:  service.NewCategoryService(repos.Category, c),
		Filter:    service.NewFilterService(repos.Category, repos.Filter, repos.Attribute, c),
		Brand:     service.NewBrandService(repos.Brand, c),
		Product:   service.NewProductService(repos.Product, repos.Category, repos.Brand, repos.Attribute, c),
		Order:     service.NewOrderService(db, repos.Order, opts.Bank),
		User:      service.NewUserService(repos.User),
		Storage:   service.NewStorageService(opts.Storage, opts.HTTPClient),
	}
	services.Storefront = service.NewStorefrontService(
		services.Category, services.Filter,
		repos.Category, repos.Brand, repos.Product,
	)

	// -------- Controller 层 --------
	return &Dependencies{
		DB:          db,
		Cache:       c,
		Repos:       repos,
		Services:    services,
		Controllers: initControllers(services),
	}
}

func initRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Attribute: repository.NewAttributeRepository(db),
		Category:  repository.NewCategoryRepository(db),
		Filter:    repository.NewCategoryFilterRepository(db),
		Brand:     repository.NewBrandRepository(db),
		Product:   repository.NewProductRepository(db),
		Order:     repository.NewOrderRepository(db),
		User:      repository.NewUserRepository(db),
	}
}

func initControllers(svc *Services) *router.Controllers {
	return &router.Controllers{
		Catalog:   controller.NewCatalogController(svc.Category, svc.Storefront, svc.Product, svc.Brand),
		Category:  controller.NewCategoryController(svc.Category, svc.Filter),
		Attribute: controller.NewAttributeController(svc.Attribute),
		Product:   controller.NewProductController(svc.Product, svc.Brand),
		Order:     controller.NewOrderController(svc.Order),
		User:      controller.NewUserController(svc.User),
		Upload:    controller.NewUploadController(svc.Storage),
	}
}
