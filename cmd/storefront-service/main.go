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
	"github.com/MikeMC777/storefront-ecom/internal/cart"
	"github.com/MikeMC777/storefront-ecom/internal/catalog"
	"github.com/MikeMC777/storefront-ecom/internal/checkout"
	"github.com/MikeMC777/storefront-ecom/internal/config"
	"github.com/MikeMC777/storefront-ecom/internal/db"
	"github.com/MikeMC777/storefront-ecom/internal/httpx"
	"github.com/MikeMC777/storefront-ecom/internal/logger"
	"github.com/MikeMC777/storefront-ecom/internal/mongostore"
	"github.com/MikeMC777/storefront-ecom/internal/order"
	"github.com/MikeMC777/storefront-ecom/internal/payment"
	"github.com/MikeMC777/storefront-ecom/internal/profilerpc"
	"github.com/MikeMC777/storefront-ecom/internal/shutdown"
)

// deps groups what the handlers need so tests can swap pieces out.
type deps struct {
	carts     *cart.Service
	checkout  checkoutAPI
	orders    *order.Service
	orderRepo order.Repository
	profiles  profileAPI
	verifier  *httpx.Verifier
	enforcer  *casbin.Enforcer
	log       *slog.Logger
}

// @title           Storefront Service API
// @version         1.0
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "storefront-service", Env: cfg.AppEnv, Level: cfg.LogLevel})
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

	store, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Error("mongo connect", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		_ = store.Close(closeCtx)
	}()
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Error("mongo indexes", slog.Any("err", err))
		os.Exit(1)
	}

	profiles, err := profilerpc.Dial(cfg.ProfileSvcAddr, cfg.ProfileServiceToken)
	if err != nil {
		log.Error("profile service dial", slog.Any("err", err))
		os.Exit(1)
	}
	defer profiles.Close()

	enforcer, err := httpx.NewEnforcer()
	if err != nil {
		log.Error("rbac", slog.Any("err", err))
		os.Exit(1)
	}

	products := catalog.NewClient(cfg.CatalogSvcBaseURL)
	carts := cart.NewService(cart.NewMongoRepo(store.Carts()), products)
	orderRepo := order.NewPGRepo(pool)
	orders := order.NewService(orderRepo, order.Notifiers{
		order.LogNotifier{Log: log},
		checkout.ProfileNotifier{Profiles: profiles},
	}, log)
	pricing := order.Pricing{TaxRate: cfg.TaxRate, Shipping: cfg.ShippingFlat}

	d := deps{
		carts: carts,
		checkout: checkout.NewService(carts, products, profiles, orders,
			checkout.NewMongoPending(store.Checkouts()), providers(cfg, log),
			checkout.Config{Currency: cfg.Currency, Pricing: pricing}, log),
		orders:    orders,
		orderRepo: orderRepo,
		profiles:  profiles,
		verifier:  httpx.NewVerifier(cfg.JWTSecret),
		enforcer:  enforcer,
		log:       log,
	}

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(d, cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID", CartHeader},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.InstanceName(docs.StorefrontInfo.InstanceName())))

	httpx.Run(ctx, cancel, httpx.NewServer(cfg.StorefrontSvcAddr, r), log)
}

// providers registers every processor that has credentials configured.
func providers(cfg config.Config, log *slog.Logger) payment.Registry {
	var ps []payment.Provider
	if pp, err := payment.NewPayPal(cfg.PayPalClientID, cfg.PayPalSecret, cfg.PayPalAPIBase); err != nil {
		log.Warn("paypal disabled", slog.Any("err", err))
	} else {
		ps = append(ps, pp)
	}
	if st, err := payment.NewStripe(cfg.StripeSecretKey, cfg.StripeSuccessURL, cfg.StripeCancelURL); err != nil {
		log.Warn("stripe disabled", slog.Any("err", err))
	} else {
		ps = append(ps, st)
	}
	reg := payment.NewRegistry(ps...)
	log.Info("payment providers", slog.Any("enabled", reg.Names()))
	return reg
}

func newRouter(d deps, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger(d.log))
	r.Use(mw...)

	auth := httpx.Authenticate(d.verifier)

	c := r.Group("/cart", httpx.OptionalAuth(d.verifier))
	c.GET("", getCartHandler(d.carts))
	c.DELETE("", clearCartHandler(d.carts))
	c.GET("/quote", quoteCartHandler(d.checkout))
	c.POST("/items", addCartItemHandler(d.carts))
	c.PATCH("/items/:product_id", updateCartItemHandler(d.carts))
	c.DELETE("/items/:product_id", removeCartItemHandler(d.carts))

	p := r.Group("/payments", auth, httpx.Authorize(d.enforcer, httpx.ObjCheckout, httpx.ActWrite))
	p.POST("/:provider/orders", createPaymentHandler(d.checkout))
	p.POST("/:provider/orders/:id/capture", capturePaymentHandler(d.checkout))

	o := r.Group("/orders", auth, httpx.Authorize(d.enforcer, httpx.ObjOrders, httpx.ActRead))
	o.GET("/:id", getOrderHandler(d.orderRepo))
	o.GET("/:id/items", getOrderItemsHandler(d.orderRepo))
	o.GET("/user/:user_id", listOrdersByUserHandler(d.orderRepo))

	a := r.Group("/admin/orders", auth, httpx.Authorize(d.enforcer, httpx.ObjOrders, httpx.ActManage))
	a.GET("", adminListOrdersHandler(d.orderRepo))
	a.GET("/:id/transitions", orderTransitionsHandler(d.orders))
	a.PUT("/:id/status", updateOrderStatusHandler(d.orders))

	m := r.Group("/me", auth, httpx.Authorize(d.enforcer, httpx.ObjProfile, httpx.ActManage))
	m.GET("/profile", getProfileHandler(d.profiles))
	m.PUT("/profile", updateProfileHandler(d.profiles))
	m.GET("/addresses", listAddressesHandler(d.profiles))
	m.POST("/addresses", addAddressHandler(d.profiles))
	m.PUT("/addresses/:id", updateAddressHandler(d.profiles))
	m.DELETE("/addresses/:id", deleteAddressHandler(d.profiles))
	m.POST("/addresses/:id/default", setDefaultAddressHandler(d.profiles))
	return r
}
