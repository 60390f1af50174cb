package router

import (
	"time"

	"github.com/napestudio/stock-control-sub000/internal/config"
	"github.com/napestudio/stock-control-sub000/internal/handler"
	"github.com/napestudio/stock-control-sub000/internal/middleware"
	"github.com/napestudio/stock-control-sub000/internal/repository"
	"github.com/napestudio/stock-control-sub000/internal/service"
	"github.com/napestudio/stock-control-sub000/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	stockRepo := repository.NewStockRepository(db)
	stockMovementRepo := repository.NewStockMovementRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	ledger := service.NewStockLedger(stockRepo, stockMovementRepo)
	catalogSvc := service.NewCatalogService(variantRepo, stockMovementRepo, ledger, rdb)
	sessionSvc := service.NewSessionService(sessionRepo)
	saleSvc := service.NewSaleService(saleRepo, variantRepo, stockRepo, customerRepo, sessionRepo, ledger, dispatcher)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	sessionsH := handler.NewSessionsHandler(sessionSvc)
	variantsH := handler.NewVariantsHandler(catalogSvc)
	priceH := handler.NewPriceCheckHandler(catalogSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check — no auth required
	r.GET("/v1/price/:sku", priceH.BySKU)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyStaff := middleware.RequireRole("cashier", "supervisor", "admin")
	backOffice := middleware.RequireRole("supervisor", "admin")

	v1 := r.Group("/v1", jwtMW)
	{
		sales := v1.Group("/sales", anyStaff)
		{
			sales.POST("", salesH.Create)
			sales.GET("", salesH.List)
			sales.POST("/quick", salesH.Quick)
			sales.GET("/:id", salesH.Get)
			sales.DELETE("/:id", salesH.Cancel)
			sales.POST("/:id/items", salesH.AddItem)
			sales.POST("/:id/complete", salesH.Complete)
			sales.PATCH("/items/:itemId", salesH.SetItemQuantity)
			sales.DELETE("/items/:itemId", salesH.RemoveItem)
		}
		// Refunds need back-office privileges
		v1.POST("/sales/:id/refund", backOffice, salesH.Refund)

		sessions := v1.Group("/sessions", anyStaff)
		{
			sessions.POST("", sessionsH.Open)
			sessions.GET("/active", sessionsH.Active)
			sessions.GET("/:id", sessionsH.Get)
			sessions.POST("/:id/close", sessionsH.Close)
			sessions.GET("/:id/summary", sessionsH.Summary)
			sessions.POST("/:id/movements", sessionsH.AddMovement)
			sessions.GET("/:id/movements", sessionsH.Movements)
		}
		v1.GET("/sessions", backOffice, sessionsH.History)

		v1.GET("/variants", anyStaff, variantsH.List)
		v1.GET("/variants/:id", anyStaff, variantsH.Get)
		v1.POST("/variants/:id/stock/adjust", backOffice, variantsH.AdjustStock)
		v1.POST("/variants/:id/stock/receive", backOffice, variantsH.ReceiveStock)
		v1.GET("/stock/movements", backOffice, variantsH.Movements)
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
