package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/orgaos-dev/orgaos/internal/handlers"
	"github.com/orgaos-dev/orgaos/internal/middleware"
	"github.com/orgaos-dev/orgaos/internal/realtime"
	"github.com/orgaos-dev/orgaos/internal/types"
)

func NewRouter(hub *realtime.Hub) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	projectHandler := handlers.NewProjectHandler(hub)
	taskHandler := handlers.NewTaskHandler(hub)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocket(hub))

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
		}

		projects := api.Group("/projects", middleware.AuthMiddleware())
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.DELETE("/:project_id", projectHandler.DeleteProject)

			// Membership endpoints
			projects.POST("/:project_id/invite", projectHandler.InviteMember)
			projects.GET("/:project_id/members", projectHandler.ListMembers)
			projects.PUT("/:project_id/members/:user_id/role", projectHandler.UpdateMemberRole)
			projects.DELETE("/:project_id/members/:user_id", projectHandler.RemoveMember)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware())
		{
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/project/:project_id", taskHandler.GetTasksByProject)
			tasks.PUT("/:task_id", taskHandler.UpdateTask)
			tasks.PUT("/:task_id/status", taskHandler.UpdateTaskStatus)
			tasks.DELETE("/:task_id", taskHandler.DeleteTask)
		}

		events := api.Group("/events", middleware.AuthMiddleware())
		{
			events.POST("", handlers.CreateEvent)
			events.GET("", handlers.GetMyEvents)
			events.PUT("/:event_id", handlers.UpdateEvent)
			events.DELETE("/:event_id", handlers.DeleteEvent)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("/invitations", handlers.GetMyInvitations)
			users.POST("/invitations/respond", handlers.RespondToInvite)
		}
	}

	return r
}
