// Package server assembles services, handlers and middleware into the HTTP router.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"budgetory/internal/handlers"
	"budgetory/internal/logger"
	"budgetory/internal/middleware"
	"budgetory/internal/models"
	"budgetory/internal/services"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configure the router.
type Options struct {
	CORSAllowedOrigins []string
	// RequestLogging enables the per-request access log.
	RequestLogging bool
	// Swagger serves the API docs under /swagger.
	Swagger bool
	// Health is pinged by /api/health. Nil reports ok unconditionally.
	Health Pinger
}

// NewRouter wires every service and handler onto a gin engine backed by db.
func NewRouter(db *gorm.DB, opts Options) *gin.Engine {
	scopeService := services.NewScopeService(db)
	userService := services.NewUserService(db)
	budgetService := services.NewBudgetService(db, scopeService)
	walletService := services.NewWalletService(db, scopeService)
	allocationService := services.NewWalletDepositService(db, scopeService)
	periodService := services.NewPeriodService(db, scopeService)
	categoryService := services.NewCategoryService(db, scopeService)
	entityService := services.NewEntityService(db, scopeService)
	transferService := services.NewTransferService(db, scopeService)
	predictionService := services.NewPredictionService(db, scopeService)
	chartService := services.NewChartService(db, scopeService)
	auditService := services.NewAuditService(db)

	authHandler := handlers.NewAuthHandler(userService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	walletHandler := handlers.NewWalletHandler(walletService, allocationService, auditService)
	periodHandler := handlers.NewPeriodHandler(periodService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	entityHandler := handlers.NewEntityHandler(entityService, auditService)
	transferHandler := handlers.NewTransferHandler(transferService, auditService)
	predictionHandler := handlers.NewPredictionHandler(predictionService, auditService)
	chartHandler := handlers.NewChartHandler(chartService)
	choicesHandler := handlers.NewChoicesHandler()

	router := gin.New()
	router.Use(gin.Recovery())
	if opts.RequestLogging {
		router.Use(middleware.RequestLogging())
	}
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(opts.CORSAllowedOrigins))

	if opts.Swagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/api/health", health(opts.Health))

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	choices := protected.Group("/choices")
	choices.GET("/category-types", choicesHandler.GetCategoryTypes)
	choices.GET("/category-priorities", choicesHandler.GetCategoryPriorities)
	choices.GET("/deposit-types", choicesHandler.GetDepositTypes)
	choices.GET("/period-statuses", choicesHandler.GetPeriodStatuses)
	choices.GET("/transfer-types", choicesHandler.GetTransferTypes)
	choices.GET("/progress-statuses", choicesHandler.GetProgressStatuses)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/:budget_id", budgetHandler.GetBudget)
	budgets.PUT("/:budget_id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:budget_id", budgetHandler.DeleteBudget)

	budget := budgets.Group("/:budget_id")

	wallets := budget.Group("/wallets")
	wallets.POST("", walletHandler.CreateWallet)
	wallets.GET("", walletHandler.GetWallets)
	wallets.GET("/:wallet_id", walletHandler.GetWallet)
	wallets.PUT("/:wallet_id", walletHandler.UpdateWallet)
	wallets.DELETE("/:wallet_id", walletHandler.DeleteWallet)
	wallets.POST("/:wallet_id/deposits", walletHandler.AllocateDeposit)
	wallets.GET("/:wallet_id/deposits", walletHandler.GetWalletDeposits)
	wallets.PUT("/:wallet_id/deposits/:id", walletHandler.UpdateAllocation)
	wallets.DELETE("/:wallet_id/deposits/:id", walletHandler.RemoveAllocation)

	periods := budget.Group("/periods")
	periods.POST("", periodHandler.CreatePeriod)
	periods.GET("", periodHandler.GetPeriods)
	periods.GET("/:id", periodHandler.GetPeriod)
	periods.PUT("/:id", periodHandler.UpdatePeriod)
	periods.DELETE("/:id", periodHandler.DeletePeriod)
	periods.POST("/:id/predictions/copy", predictionHandler.CopyPredictions)
	periods.GET("/:id/categories/:category_id/result", predictionHandler.GetCategoryResult)
	periods.GET("/:id/uncategorized", predictionHandler.GetUncategorizedResults)
	periods.GET("/:id/deposit-results", predictionHandler.GetDepositResults)
	periods.GET("/:id/user-results", predictionHandler.GetUserResults)

	registerCategories(budget.Group("/categories"), categoryHandler)
	registerCategories(budget.Group("/income-categories"), categoryHandler.ForType(models.CategoryTypeIncome))
	registerCategories(budget.Group("/expense-categories"), categoryHandler.ForType(models.CategoryTypeExpense))

	entities := budget.Group("/entities")
	entities.POST("", entityHandler.CreateEntity)
	entities.GET("", entityHandler.GetEntities)
	entities.GET("/:id", entityHandler.GetEntity)
	entities.PUT("/:id", entityHandler.UpdateEntity)
	entities.DELETE("/:id", entityHandler.DeleteEntity)

	deposits := budget.Group("/deposits")
	deposits.POST("", entityHandler.CreateDeposit)
	deposits.GET("", entityHandler.GetDeposits)
	deposits.GET("/:id", entityHandler.GetDeposit)
	deposits.PUT("/:id", entityHandler.UpdateDeposit)
	deposits.DELETE("/:id", entityHandler.DeleteDeposit)
	deposits.GET("/:id/balance", transferHandler.DepositBalance)

	registerTransfers(budget.Group("/incomes"), transferHandler.ForType(models.TransferTypeIncome))
	registerTransfers(budget.Group("/expenses"), transferHandler.ForType(models.TransferTypeExpense))
	registerTransfers(budget.Group("/relocations"), transferHandler.ForType(models.TransferTypeRelocation))

	predictions := budget.Group("/predictions")
	predictions.POST("", predictionHandler.CreatePrediction)
	predictions.GET("", predictionHandler.GetPredictions)
	predictions.GET("/:id", predictionHandler.GetPrediction)
	predictions.PUT("/:id", predictionHandler.UpdatePrediction)
	predictions.DELETE("/:id", predictionHandler.DeletePrediction)

	charts := budget.Group("/charts")
	charts.GET("/transfers-in-periods", chartHandler.GetTransfersInPeriods)
	charts.GET("/top-entities-in-period", chartHandler.GetTopEntitiesInPeriod)
	charts.GET("/category-results-in-periods", chartHandler.GetCategoryInPeriods)
	charts.GET("/deposits-in-periods", chartHandler.GetDepositsInPeriods)

	return router
}

func registerCategories(g *gin.RouterGroup, h *handlers.CategoryHandler) {
	g.POST("", h.CreateCategory)
	g.GET("", h.GetCategories)
	g.GET("/:id", h.GetCategory)
	g.PUT("/:id", h.UpdateCategory)
	g.DELETE("/:id", h.DeleteCategory)
}

func registerTransfers(g *gin.RouterGroup, h *handlers.TransferHandler) {
	g.POST("", h.CreateTransfer)
	g.GET("", h.GetTransfers)
	g.PATCH("/bulk", h.BulkUpdateTransfers)
	g.DELETE("/bulk", h.BulkDeleteTransfers)
	g.GET("/:id", h.GetTransfer)
	g.PUT("/:id", h.UpdateTransfer)
	g.DELETE("/:id", h.DeleteTransfer)
}

// health answers 503 when the database does not respond.
func health(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				logger.Named("health").Warnw("database ping failed", "error", err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
