package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"partsshop_v1_202610/internal/controller"
	"partsshop_v1_202610/internal/middleware"
	"partsshop_v1_202610/pkg/metrics"
)

// Controllers 路由依赖的控制器集合
type Controllers struct {
	Catalog   *controller.CatalogController
	Category  *controller.CategoryController
	Attribute *controller.AttributeController
	Product   *controller.ProductController
	Order     *controller.OrderController
	User      *controller.UserController
	Upload    *controller.UploadController
}

// Options 路由选项
type Options struct {
	Limiter *middleware.ActionLimiter
	// 结账冷却时间，0 使用默认值
	CheckoutCooldown time.Duration
	// 本地存储目录，非空时挂载 /uploads 静态路由
	UploadDir string
}

// New 创建 gin 引擎并注册全部路由
func New(ctls *Controllers, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Metrics(), middleware.RequestLogger())
	InitRoutes(r, ctls, opts)
	return r
}

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, ctls *Controllers, opts Options) {
	limiter := opts.Limiter
	if limiter == nil {
		limiter = middleware.NewActionLimiter()
	}

	// 运维
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	// 1. 前台
	api := r.Group("/api")
	{
		// GET /api/categories
		api.GET("/categories", ctls.Catalog.CategoryTree)
		api.GET("/categories/:slug", ctls.Catalog.CategoryPage)
		api.GET("/categories/:slug/products", ctls.Catalog.CategoryProducts)
		api.GET("/products/:slug", ctls.Catalog.ProductDetail)
		api.GET("/brands", ctls.Catalog.Brands)

		api.POST("/checkout",
			middleware.ActionRateLimit(limiter, middleware.ActionCheckout, opts.CheckoutCooldown),
			ctls.Order.Checkout,
		)
		api.GET("/orders/track", ctls.Order.Track)

		auth := api.Group("/auth")
		{
			auth.POST("/login",
				middleware.ActionRateLimit(limiter, middleware.ActionLogin, 0),
				ctls.User.Login,
			)
			auth.POST("/refresh", ctls.User.RefreshToken)

			// 登录后可用
			authed := auth.Group("", middleware.JWTAuth(), middleware.AuditContext())
			authed.GET("/profile", ctls.User.GetProfile)
			authed.PUT("/password", ctls.User.ChangePassword)
		}
	}

	// 2. 后台：JWT + 管理员
	admin := r.Group("/api/admin",
		middleware.JWTAuth(),
		middleware.AuditContext(),
		middleware.RequireRole("admin"),
	)
	{
		attrs := admin.Group("/attributes")
		{
			attrs.GET("", ctls.Attribute.List)
			attrs.POST("", ctls.Attribute.Create)
			attrs.GET("/:id", ctls.Attribute.Get)
			attrs.PUT("/:id", ctls.Attribute.Update)
			attrs.DELETE("/:id", ctls.Attribute.Delete)
			attrs.POST("/:id/options", ctls.Attribute.UpsertOption)
			attrs.PUT("/:id/options/order", ctls.Attribute.ReorderOptions)
		}
		admin.DELETE("/options/:optionId", ctls.Attribute.DeleteOption)

		categories := admin.Group("/categories")
		{
			categories.GET("", ctls.Category.Tree)
			categories.POST("", ctls.Category.Create)
			categories.PUT("/:id", ctls.Category.Update)
			categories.DELETE("/:id", ctls.Category.Delete)
			categories.GET("/:id/filters", ctls.Category.ListFilters)
			categories.POST("/:id/filters", ctls.Category.CreateFilter)
			categories.GET("/:id/filters/effective", ctls.Category.EffectiveFilters)
		}
		admin.PUT("/filters/:filterId", ctls.Category.UpdateFilter)
		admin.DELETE("/filters/:filterId", ctls.Category.DeleteFilter)

		brands := admin.Group("/brands")
		{
			brands.GET("", ctls.Product.ListBrands)
			brands.POST("", ctls.Product.CreateBrand)
			brands.PUT("/:id", ctls.Product.UpdateBrand)
			brands.DELETE("/:id", ctls.Product.DeleteBrand)
		}

		products := admin.Group("/products")
		{
			products.GET("", ctls.Product.List)
			products.POST("", ctls.Product.Create)
			products.GET("/:id", ctls.Product.Get)
			products.PUT("/:id", ctls.Product.Update)
			products.DELETE("/:id", ctls.Product.Delete)
		}

		orders := admin.Group("/orders")
		{
			orders.GET("", ctls.Order.List)
			orders.GET("/stats", ctls.Order.GetStats)
			orders.GET("/:id", ctls.Order.GetByID)
			orders.PUT("/:id/status", ctls.Order.UpdateStatus)
		}

		users := admin.Group("/users")
		{
			users.GET("", ctls.User.ListUsers)
			users.POST("", ctls.User.CreateUser)
			users.GET("/:id", ctls.User.GetUser)
			users.PUT("/:id", ctls.User.UpdateUser)
			users.PUT("/:id/password", ctls.User.ResetPassword)
			users.DELETE("/:id", ctls.User.DeleteUser)
		}

		uploads := admin.Group("/uploads")
		{
			uploads.POST("", ctls.Upload.Upload)
			uploads.POST("/remote", ctls.Upload.UploadRemote)
			uploads.DELETE("", ctls.Upload.Delete)
		}
	}
}
