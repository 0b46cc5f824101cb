package main

import (
	"context"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/teamdesk/teamdesk/internal/handler"
	"github.com/teamdesk/teamdesk/internal/middleware"
	"github.com/teamdesk/teamdesk/internal/model"
	"github.com/teamdesk/teamdesk/internal/service"
	"github.com/teamdesk/teamdesk/pkg/config"
	"github.com/teamdesk/teamdesk/pkg/database"
	"github.com/teamdesk/teamdesk/pkg/jwtutil"
	"github.com/teamdesk/teamdesk/pkg/logger"
	"github.com/teamdesk/teamdesk/prometheus"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load("teamdesk")
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&logger.LogConfig{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: cfg.ServiceName,
	}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting teamdesk service...", cfg.LogFields()...)

	// Initialize database
	db, err := database.Open(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	if err := database.Migrate(db,
		&model.Tenant{},
		&model.User{},
		&model.Project{},
		&model.Task{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database migrations applied")

	// Initialize JWT utility
	jwt := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      cfg.JWT.SigningKey,
		ExpirationHours: cfg.JWT.ExpirationHours,
	})

	// Wire services and handlers
	auditService := service.NewAuditService(db)
	authService := service.NewAuthService(db, jwt, auditService)
	tenantService := service.NewTenantService(db, auditService)
	userService := service.NewUserService(db, auditService)
	projectService := service.NewProjectService(db, auditService)
	taskService := service.NewTaskService(db, auditService)

	if cfg.SuperAdmin.Email != "" && cfg.SuperAdmin.Password != "" {
		if err := authService.EnsureSuperAdmin(context.Background(),
			cfg.SuperAdmin.Email, cfg.SuperAdmin.Password, cfg.SuperAdmin.FullName); err != nil {
			log.Fatal("Failed to seed super admin", zap.Error(err))
		}
	}

	authHandler := handler.NewAuthHandler(authService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	userHandler := handler.NewUserHandler(userService)
	projectHandler := handler.NewProjectHandler(projectService)
	taskHandler := handler.NewTaskHandler(taskService)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	api := e.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register-tenant", authHandler.RegisterTenant)
	auth.POST("/login", authHandler.Login)

	authed := api.Group("/auth", middleware.Authenticate(db, jwt))
	authed.GET("/me", authHandler.Me)
	authed.POST("/logout", authHandler.Logout)

	// Tenant listing is a platform-level view for super admins only
	api.GET("/tenants", tenantHandler.List,
		middleware.Authenticate(db, jwt), middleware.RequireRole(model.RoleSuperAdmin))

	tenants := api.Group("/tenants/:tenantId",
		middleware.Authenticate(db, jwt), middleware.RequireTenant())
	tenants.GET("", tenantHandler.Get)
	tenants.PUT("", tenantHandler.Update, middleware.RequireRole(model.RoleTenantAdmin))

	tenants.GET("/users", userHandler.List)
	tenants.POST("/users", userHandler.Add, middleware.RequireRole(model.RoleTenantAdmin))
	tenants.PUT("/users/:userId", userHandler.Update, middleware.RequireRole(model.RoleTenantAdmin))
	tenants.DELETE("/users/:userId", userHandler.Delete, middleware.RequireRole(model.RoleTenantAdmin))

	tenants.POST("/projects", projectHandler.Create)
	tenants.GET("/projects", projectHandler.List)
	tenants.PUT("/projects/:projectId", projectHandler.Update)
	tenants.DELETE("/projects/:projectId", projectHandler.Delete)

	tenants.POST("/projects/:projectId/tasks", taskHandler.Create)
	tenants.GET("/projects/:projectId/tasks", taskHandler.List)
	tenants.PATCH("/tasks/:taskId/status", taskHandler.UpdateStatus)
	tenants.PUT("/tasks/:taskId", taskHandler.Update)
	tenants.DELETE("/tasks/:taskId", taskHandler.Delete)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
