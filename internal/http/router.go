package http

import (
	"log/slog"

	"github.com/geocoder89/shopapi/internal/cache"
	"github.com/geocoder89/shopapi/internal/http/handlers"
	"github.com/geocoder89/shopapi/internal/http/middlewares"
	"github.com/geocoder89/shopapi/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "shopapi"

type ProductRepo interface {
	handlers.ProductStore
	handlers.ProductLookup
}

// Deps is everything the HTTP layer needs, built once in main.
type Deps struct {
	Env                string
	CORSAllowedOrigins []string
	MaxBodyBytes       int64
	Tracing            bool

	Accounts handlers.AuthService
	Tokens   middlewares.TokenVerifier
	Users    middlewares.UserFinder

	Categories handlers.CategoryStore
	Products   ProductRepo
	Comments   handlers.CommentStore
	Cache      cache.Store

	// named dependencies checked by /readyz
	Ready map[string]handlers.Pinger

	// nil disables request metrics and /metrics
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(log *slog.Logger, d Deps) *gin.Engine {
	if d.Env != "dev" && d.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if d.Tracing {
		r.Use(otelgin.Middleware(serviceName))
	}
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.CORSAllowedOrigins))
	if d.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(d.MaxBodyBytes))
	}

	var rejections middlewares.RejectionObserver
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
		rejections = d.Prom
		if d.Gatherer != nil {
			r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
		}
	}

	health := handlers.NewHealthHandler(d.Ready)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	r.GET("/api-docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authMW := middlewares.NewAuthMiddleware(d.Tokens, d.Users, rejections, log)
	signedIn := authMW.RequireSignIn()
	admin := authMW.RequireAdmin()

	v1 := r.Group("/api/v1")
	v1.Use(middlewares.RequireJSON())

	authH := handlers.NewAuthHandler(d.Accounts)
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authH.Register)
		authGroup.POST("/login", authH.Login)
		authGroup.POST("/forgot-password", authH.ForgotPassword)
		authGroup.GET("/user-auth", signedIn, authH.UserAuth)
		authGroup.GET("/admin-auth", admin, authH.AdminAuth)
	}

	categoriesH := handlers.NewCategoriesHandler(d.Categories, d.Cache)
	categoryGroup := v1.Group("/category")
	{
		categoryGroup.POST("/create-category", admin, categoriesH.Create)
		categoryGroup.PUT("/update-category/:id", admin, categoriesH.Update)
		categoryGroup.GET("/get-category", categoriesH.List)
		categoryGroup.GET("/single-category/:slug", categoriesH.GetBySlug)
		categoryGroup.DELETE("/delete-category/:id", admin, categoriesH.Delete)
	}

	productsH := handlers.NewProductsHandler(d.Products, d.Cache)
	productGroup := v1.Group("/product")
	{
		productGroup.POST("/create-product", admin, productsH.Create)
		productGroup.PUT("/update-product/:pid", admin, productsH.Update)
		productGroup.GET("/products", productsH.List)
		productGroup.GET("/product/:slug", productsH.GetBySlug)
		productGroup.DELETE("/product/:pid", admin, productsH.Delete)
		productGroup.POST("/product-filters", productsH.Filter)
	}

	commentsH := handlers.NewCommentsHandler(d.Comments, d.Products, d.Users)
	commentGroup := v1.Group("/comments")
	{
		commentGroup.GET("/product/:productId", commentsH.ListForProduct)
		commentGroup.POST("/product/:productId", signedIn, commentsH.Create)
		commentGroup.PATCH("/:commentId", signedIn, commentsH.Update)
		commentGroup.DELETE("/:commentId", signedIn, commentsH.Delete)
	}

	return r
}
