package router

import (
	"time"

	"github.com/FMABr/ducks-demo/internal/cache"
	"github.com/FMABr/ducks-demo/internal/config"
	"github.com/FMABr/ducks-demo/internal/handler"
	"github.com/FMABr/ducks-demo/internal/middleware"
	"github.com/FMABr/ducks-demo/internal/repository"
	"github.com/FMABr/ducks-demo/internal/service"
	"github.com/FMABr/ducks-demo/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// A nil rdb runs without ranking cache and receipt jobs.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
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
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	duckRepo := repository.NewDuckRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	rankingRepo := repository.NewRankingRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	var saleOpts []service.SaleOption
	var rankingCache service.RankingCache
	if rdb != nil {
		rc := cache.NewRankingCache(rdb, cfg.RankingCacheTTL())
		rankingCache = rc
		saleOpts = append(saleOpts,
			service.WithRankingInvalidator(rc),
			service.WithReceiptDispatcher(worker.NewDispatcher(rdb)),
		)
	}

	duckSvc := service.NewDuckService(duckRepo, saleRepo)
	customerSvc := service.NewCustomerService(customerRepo, saleRepo)
	employeeSvc := service.NewEmployeeService(employeeRepo, saleRepo)
	saleSvc := service.NewSaleService(saleRepo, duckRepo, customerRepo, employeeRepo, saleOpts...)
	rankingSvc := service.NewRankingService(rankingRepo, rankingCache)
	reportSvc := service.NewReportService(duckRepo, saleRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	ducksH := handler.NewDucksHandler(duckSvc)
	customersH := handler.NewCustomersHandler(customerSvc)
	employeesH := handler.NewEmployeesHandler(employeeSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	rankingsH := handler.NewRankingsHandler(rankingSvc)
	reportsH := handler.NewReportsHandler(reportSvc)

	// ── Routes ───────────────────────────────────────────────────────────────
	r.GET("/health", handler.Health(db, rdb))

	v1 := r.Group("/v1")
	{
		ducks := v1.Group("/ducks")
		{
			ducks.POST("", ducksH.Create)
			ducks.GET("", ducksH.List)
			ducks.GET("/sold", ducksH.ListSold)
			ducks.GET("/:id", ducksH.Get)
			ducks.GET("/:id/price", ducksH.Price)
			ducks.PUT("/:id", ducksH.Replace)
			ducks.PATCH("/:id", ducksH.Patch)
			ducks.DELETE("/:id", ducksH.Delete)
		}

		customers := v1.Group("/customers")
		{
			customers.POST("", customersH.Create)
			customers.GET("", customersH.List)
			customers.GET("/:id", customersH.Get)
			customers.PUT("/:id", customersH.Replace)
			customers.PATCH("/:id", customersH.Patch)
			customers.DELETE("/:id", customersH.Delete)
		}

		employees := v1.Group("/employees")
		{
			employees.POST("", employeesH.Create)
			employees.GET("", employeesH.List)
			employees.GET("/rankings/count", rankingsH.ByCount)
			employees.GET("/rankings/revenue", rankingsH.ByRevenue)
			employees.GET("/:id", employeesH.Get)
			employees.PUT("/:id", employeesH.Replace)
			employees.PATCH("/:id", employeesH.Patch)
			employees.DELETE("/:id", employeesH.Delete)
		}

		sales := v1.Group("/sales")
		{
			sales.POST("", salesH.Create)
			sales.GET("", salesH.List)
			sales.GET("/:id", salesH.Get)
		}

		reports := v1.Group("/reports")
		{
			reports.GET("/ducks", reportsH.Ducks)
			reports.GET("/ducks.xlsx", reportsH.DucksXLSX)
		}
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
