package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/yutasato/campus-crm-api/internal/config"
	"github.com/yutasato/campus-crm-api/internal/constants"
	"github.com/yutasato/campus-crm-api/internal/database"
	"github.com/yutasato/campus-crm-api/internal/handlers"
	"github.com/yutasato/campus-crm-api/internal/middleware"
	"github.com/yutasato/campus-crm-api/internal/repository"
	"github.com/yutasato/campus-crm-api/internal/services"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	cfg := config.Load()

	gin.SetMode(cfg.GinMode)

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	if err := database.AddIndexes(db); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	workspaceRepo := repository.NewWorkspaceRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	callListRepo := repository.NewCallListRepository(db)
	callItemRepo := repository.NewCallItemRepository(db)
	followupRepo := repository.NewFollowupRepository(db)

	// Services
	authService := services.NewAuthService(userRepo)
	workspaceService := services.NewWorkspaceService(workspaceRepo)
	callListService := services.NewCallListService(callListRepo, studentRepo)
	followupService := services.NewFollowupService(followupRepo, cfg.FollowupOffsetDays)
	callItemService := services.NewCallItemService(callItemRepo, callListRepo, followupService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService)
	callListHandler := handlers.NewCallListHandler(callListService, workspaceService)
	callItemHandler := handlers.NewCallItemHandler(callItemService)
	followupHandler := handlers.NewFollowupHandler(followupService, workspaceService)

	r := gin.Default()

	// Session middleware backed by Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,
		"tcp",
		redisAddr,
		"",
		"",
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // Lax
	})
	r.Use(sessions.Sessions(constants.SessionName, store))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Campus CRM API is running",
		})
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Workspace routes (protected)
		workspaces := api.Group("/workspaces")
		workspaces.Use(middleware.RequireAuth())
		{
			workspaces.POST("", workspaceHandler.CreateWorkspace)
			workspaces.GET("", workspaceHandler.ListWorkspaces)
			workspaces.POST("/join", workspaceHandler.JoinWorkspace)
			workspaces.GET("/:id/members", middleware.RequireWorkspaceAccess(), workspaceHandler.ListMembers)
			workspaces.POST("/:id/members/:user_id/group-access", middleware.RequireWorkspaceAccess(), middleware.RequireWorkspaceAdmin(), workspaceHandler.GrantGroupAccess)
		}

		// Call list routes (protected)
		callLists := api.Group("/call-lists")
		callLists.Use(middleware.RequireAuth())
		{
			callLists.POST("", callListHandler.CreateCallList)
			callLists.GET("", callListHandler.ListCallLists)
			callLists.GET("/:id", middleware.RequireCallListAccess(), callListHandler.GetCallList)
			callLists.DELETE("/:id", middleware.RequireCallListAccess(), callListHandler.DeleteCallList)
			callLists.PUT("/:id/questions", middleware.RequireCallListAccess(), callListHandler.UpdateQuestions)
			callLists.POST("/:id/items", middleware.RequireCallListAccess(), callListHandler.AddItems)
			callLists.GET("/:id/items", middleware.RequireCallListAccess(), callItemHandler.ListItems)
			callLists.POST("/:id/items/claim", middleware.RequireCallListAccess(), callItemHandler.ClaimNext)
			callLists.POST("/:id/items/:item_id/claim", middleware.RequireCallListAccess(), callItemHandler.ClaimItem)
			callLists.POST("/:id/items/:item_id/release", middleware.RequireCallListAccess(), callItemHandler.ReleaseItem)
			callLists.POST("/:id/items/:item_id/complete", middleware.RequireCallListAccess(), callItemHandler.CompleteItem)
		}

		// Followup routes (protected)
		followups := api.Group("/followups")
		followups.Use(middleware.RequireAuth())
		{
			followups.GET("", followupHandler.ListFollowups)
			followups.PATCH("/:id", followupHandler.UpdateFollowup)
		}
	}

	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
