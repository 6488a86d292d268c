package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/MikeMC777/storefront-ecom/docs"
	"github.com/MikeMC777/storefront-ecom/internal/catalog"
	"github.com/MikeMC777/storefront-ecom/internal/config"
	"github.com/MikeMC777/storefront-ecom/internal/db"
	"github.com/MikeMC777/storefront-ecom/internal/httpx"
	"github.com/MikeMC777/storefront-ecom/internal/logger"
	"github.com/MikeMC777/storefront-ecom/internal/shutdown"
)

// @title           Catalog Service API
// @version         1.0
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "catalog-service", Env: cfg.AppEnv, Level: cfg.LogLevel})
	if err := cfg.RequireJWTSecret(); err != nil {
		log.Error("config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connect", slog.Any("err", err))
		os.Exit(1)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("postgres migrate", slog.Any("err", err))
		os.Exit(1)
	}

	enforcer, err := httpx.NewEnforcer()
	if err != nil {
		log.Error("rbac", slog.Any("err", err))
		os.Exit(1)
	}

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(catalog.NewPGRepo(pool), httpx.NewVerifier(cfg.JWTSecret), enforcer, log,
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
			ExposeHeaders:    []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.InstanceName(docs.CatalogInfo.InstanceName())))

	httpx.Run(ctx, cancel, httpx.NewServer(cfg.CatalogSvcAddr, r), log)
}

func newRouter(repo catalog.Repository, v *httpx.Verifier, e *casbin.Enforcer, log *slog.Logger, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(log))
	r.Use(mw...)

	r.GET("/products", listOnlyHandler(repo))
	r.GET("/products/search", searchHandler(repo))
	r.GET("/products/:id", getProductHandler(repo))

	admin := r.Group("/products", httpx.Authenticate(v), httpx.Authorize(e, httpx.ObjProducts, httpx.ActWrite))
	admin.POST("", createProductHandler(repo))
	admin.PUT("/:id", updateProductHandler(repo))
	admin.DELETE("/:id", deleteProductHandler(repo))
	return r
}
