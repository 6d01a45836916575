package router

import (
	"siteworks_backend/internal/handlers"
	"siteworks_backend/internal/middleware"
	"siteworks_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// managementRoles are the roles allowed to run assignment and staffing flows.
var managementRoles = []models.Role{
	models.RoleSiteManager,
	models.RoleCustomerManager,
	models.RoleAdmin,
	models.RoleSystemAdmin,
}

// SetupSiteRoutes sets up the site routes.
// Note: RoleAuthMiddleware is applied specifically for write and read operations.
func SetupSiteRoutes(authenticatedGroup *gin.RouterGroup, siteHandler *handlers.SiteHandler, assignmentHandler *handlers.AssignmentHandler) {
	siteWriteRoutes := authenticatedGroup.Group("/sites")
	siteWriteRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSystemAdmin))
	{
		siteWriteRoutes.POST("", siteHandler.CreateSite)
		siteWriteRoutes.PUT("/:id", siteHandler.UpdateSite)
	}

	// Reads are open to every authenticated role; visibility is narrowed per
	// organization inside the service.
	authenticatedGroup.GET("/sites", siteHandler.GetSites)
	authenticatedGroup.GET("/sites/:id", siteHandler.GetSiteByID)
	authenticatedGroup.GET("/sites/:id/workers", middleware.RoleAuthMiddleware(managementRoles...), assignmentHandler.GetSiteWorkers)
}

// SetupWorkerRoutes sets up the per-worker assignment lookup routes.
func SetupWorkerRoutes(authenticatedGroup *gin.RouterGroup, assignmentHandler *handlers.AssignmentHandler) {
	workerRoutes := authenticatedGroup.Group("/workers")
	{
		workerRoutes.GET("/:workerId/current-site", assignmentHandler.GetCurrentSite)
		workerRoutes.GET("/:workerId/assignments", assignmentHandler.GetAssignmentHistory)
		workerRoutes.DELETE("/:workerId/assignment", middleware.RoleAuthMiddleware(managementRoles...), assignmentHandler.UnassignWorker)
	}
}

// SetupAssignmentRoutes sets up the assignment mutation routes.
func SetupAssignmentRoutes(authenticatedGroup *gin.RouterGroup, assignmentHandler *handlers.AssignmentHandler) {
	assignmentRoutes := authenticatedGroup.Group("/assignments")
	assignmentRoutes.Use(middleware.RoleAuthMiddleware(managementRoles...))
	{
		assignmentRoutes.POST("", assignmentHandler.AssignWorker)
		assignmentRoutes.PATCH("/:id/reactivate", assignmentHandler.ReactivateAssignment)
	}
}

// SetupWorkRecordRoutes sets up the daily labor entry routes.
func SetupWorkRecordRoutes(authenticatedGroup *gin.RouterGroup, workRecordHandler *handlers.WorkRecordHandler) {
	workRecordRoutes := authenticatedGroup.Group("/work-records")
	workRecordRoutes.Use(middleware.RoleAuthMiddleware(managementRoles...))
	{
		workRecordRoutes.POST("", workRecordHandler.SubmitWorkRecord)
		workRecordRoutes.GET("", workRecordHandler.GetWorkRecords)
	}
}

// SetupPayrollRoutes sets up the payroll routes. Publishing and snapshot
// transitions move money state, so they stay admin-only.
func SetupPayrollRoutes(authenticatedGroup *gin.RouterGroup, payrollHandler *handlers.PayrollHandler) {
	payrollRoutes := authenticatedGroup.Group("/payroll")
	payrollRoutes.Use(middleware.RoleAuthMiddleware(managementRoles...))
	{
		payrollRoutes.GET("/workers/:workerId/preview", payrollHandler.PreviewPayroll)
		payrollRoutes.GET("/summaries", payrollHandler.GetMonthSummaries)
	}

	payrollAdminRoutes := authenticatedGroup.Group("/payroll")
	payrollAdminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleSystemAdmin))
	{
		payrollAdminRoutes.POST("/publish", payrollHandler.PublishPayroll)
		payrollAdminRoutes.PATCH("/snapshots/:id/approve", payrollHandler.ApproveSnapshot)
		payrollAdminRoutes.PATCH("/snapshots/:id/pay", payrollHandler.MarkSnapshotPaid)
	}
}
