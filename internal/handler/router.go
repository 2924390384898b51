package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ZiadSaad78/student-sorter-hub/internal/middleware"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	"github.com/ZiadSaad78/student-sorter-hub/internal/repository"
	"github.com/ZiadSaad78/student-sorter-hub/internal/service"
)

// RouterDeps bundles everything the HTTP layer needs.
type RouterDeps struct {
	Auth          *service.AuthService
	Students      *service.StudentService
	Buildings     *service.BuildingService
	Rooms         *service.RoomService
	Assignments   *service.AssignmentService
	Applications  *service.ApplicationService
	Fees          *service.FeeService
	Complaints    *service.ComplaintService
	Notifications *service.NotificationService
	Dashboard     *service.DashboardService
	Reports       *service.ReportService
	Metrics       *service.MetricsService
	Users         *repository.UserRepository
}

// Register wires all API routes onto the given group.
func Register(api *gin.RouterGroup, deps RouterDeps) {
	authHandler := NewAuthHandler(deps.Auth)
	studentHandler := NewStudentHandler(deps.Students)
	buildingHandler := NewBuildingHandler(deps.Buildings, deps.Assignments)
	roomHandler := NewRoomHandler(deps.Rooms, deps.Assignments)
	assignmentHandler := NewAssignmentHandler(deps.Assignments)
	applicationHandler := NewApplicationHandler(deps.Applications)
	feeHandler := NewFeeHandler(deps.Fees)
	complaintHandler := NewComplaintHandler(deps.Complaints)
	notificationHandler := NewNotificationHandler(deps.Notifications)
	dashboardHandler := NewDashboardHandler(deps.Dashboard, deps.Metrics)
	reportHandler := NewReportHandler(deps.Reports)

	auth := api.Group("/auth")
	{
		auth.POST("/login", middleware.Audit(deps.Users, models.AuditActionLogin, "auth"), authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
	}

	authed := api.Group("")
	authed.Use(middleware.JWT(deps.Auth))
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.POST("/auth/change-password", authHandler.ChangePassword)
		authed.GET("/auth/me", authHandler.Me)
	}

	staff := api.Group("")
	staff.Use(middleware.JWT(deps.Auth), middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
	{
		staff.GET("/students", studentHandler.List)
		staff.POST("/students", studentHandler.Create)
		staff.PUT("/students/:id", studentHandler.Update)
		staff.PUT("/students/:id/status", studentHandler.SetStatus)
		staff.DELETE("/students/:id", studentHandler.Delete)

		staff.GET("/buildings", buildingHandler.List)
		staff.GET("/buildings/:id", buildingHandler.Get)
		staff.POST("/buildings", buildingHandler.Create)
		staff.PUT("/buildings/:id", buildingHandler.Update)
		staff.DELETE("/buildings/:id", buildingHandler.Delete)
		staff.GET("/buildings/:id/eligible-students", buildingHandler.EligibleStudents)

		staff.GET("/rooms", roomHandler.List)
		staff.GET("/rooms/:id", roomHandler.Get)
		staff.POST("/rooms", roomHandler.Create)
		staff.PUT("/rooms/:id", roomHandler.Update)
		staff.DELETE("/rooms/:id", roomHandler.Delete)
		staff.GET("/rooms/:id/occupants", roomHandler.Occupants)

		staff.GET("/assignments", assignmentHandler.History)
		staff.POST("/assignments", assignmentHandler.Assign)
		staff.DELETE("/assignments", assignmentHandler.Unassign)

		staff.GET("/applications", applicationHandler.List)
		staff.GET("/applications/windows", applicationHandler.ListWindows)
		staff.POST("/applications/windows", applicationHandler.CreateWindow)
		staff.PUT("/applications/windows/:id", applicationHandler.SetWindowActive)
		staff.GET("/applications/:id", applicationHandler.Get)
		staff.POST("/applications", applicationHandler.Submit)
		staff.PUT("/applications/:id/accept", applicationHandler.Accept)
		staff.PUT("/applications/:id/reject", applicationHandler.Reject)

		staff.GET("/fees", feeHandler.List)
		staff.POST("/fees", feeHandler.Create)
		staff.PUT("/fees/:id/pay", feeHandler.MarkPaid)

		staff.GET("/complaints", complaintHandler.List)
		staff.POST("/complaints", complaintHandler.Create)
		staff.PUT("/complaints/:id/resolve", complaintHandler.Resolve)

		staff.PUT("/notifications/:id/read", notificationHandler.MarkRead)

		staff.GET("/dashboard/summary", dashboardHandler.Summary)
		staff.GET("/dashboard/metrics", dashboardHandler.SystemMetrics)
	}

	// Students may read their own notifications; staff can read anyone's.
	studentScoped := api.Group("")
	studentScoped.Use(middleware.JWT(deps.Auth), middleware.RBAC(string(models.RoleAdmin), string(models.RoleStaff), middleware.SelfScope))
	{
		studentScoped.GET("/students/:id", studentHandler.Get)
		studentScoped.GET("/students/:id/notifications", notificationHandler.ListForStudent)
		studentScoped.PUT("/students/:id/notifications/read-all", notificationHandler.MarkAllRead)
	}

	if deps.Reports != nil {
		reports := api.Group("/reports")
		// Downloads authenticate via the signed token in the URL itself.
		reports.GET("/download/:token", reportHandler.Download)

		reportsAuthed := reports.Group("")
		reportsAuthed.Use(middleware.JWT(deps.Auth), middleware.RequireRoles(models.RoleAdmin, models.RoleStaff))
		{
			reportsAuthed.POST("", reportHandler.Create)
			reportsAuthed.GET("", reportHandler.ListMine)
			reportsAuthed.GET("/:id", reportHandler.Get)
		}
	}
}
