package router

import (
	"database/sql"

	"siteworks_backend/internal/handlers"
	"siteworks_backend/internal/middleware"
	"siteworks_backend/internal/repositories"
	"siteworks_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	workerRepo := repositories.NewWorkerRepository(db)
	siteRepo := repositories.NewSiteRepository(db)
	assignmentRepo := repositories.NewAssignmentRepository(db)
	workRecordRepo := repositories.NewWorkRecordRepository(db)
	payrollRepo := repositories.NewPayrollRepository(db)

	// Initialize Services
	serviceDB := repositories.NewDB(db)
	authService := services.NewAuthService(workerRepo, serviceDB)
	siteService := services.NewSiteService(siteRepo, serviceDB)
	assignmentService := services.NewAssignmentService(assignmentRepo, workerRepo, siteRepo, serviceDB)
	workRecordService := services.NewWorkRecordService(workRecordRepo, workerRepo, siteRepo, serviceDB)
	payrollService := services.NewPayrollService(payrollRepo, workRecordRepo, workerRepo, serviceDB)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	siteHandler := handlers.NewSiteHandler(siteService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	workRecordHandler := handlers.NewWorkRecordHandler(workRecordService)
	payrollHandler := handlers.NewPayrollHandler(payrollService)

	apiV1 := engine.Group("/api/v1")

	// Public authentication routes
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	// Authenticated routes
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)

		SetupSiteRoutes(authenticated, siteHandler, assignmentHandler)
		SetupWorkerRoutes(authenticated, assignmentHandler)
		SetupAssignmentRoutes(authenticated, assignmentHandler)
		SetupWorkRecordRoutes(authenticated, workRecordHandler)
		SetupPayrollRoutes(authenticated, payrollHandler)
	}
}

// SetupPublicAuthRoutes wires the routes that need no token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.RegisterWorker)
	group.POST("/login", authHandler.Login)
}

// SetupAuthenticatedAuthRoutes wires the token-bound auth routes.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetCurrentUser)
}
