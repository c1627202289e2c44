package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/jadwal-backend/internal/config"
	"github.com/stemsi/jadwal-backend/internal/handler"
	"github.com/stemsi/jadwal-backend/internal/middleware"
	"github.com/stemsi/jadwal-backend/internal/model"
	"github.com/stemsi/jadwal-backend/internal/response"
	"github.com/stemsi/jadwal-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Directory *handler.DirectoryHandler
	Section   *handler.SectionHandler
	Schedule  *handler.ScheduleHandler
	WS        *handler.WSHandler
}

// Writes per admin per minute on the mutating routes.
const writeRateLimit = 120

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.GinMode != gin.TestMode {
		router.Use(gin.Logger())
	}

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. WebSocket upgrades are skipped inside.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireAdminWSAuth(authService),
		middleware.RequirePermission(model.PermissionSchedulesRead),
	)
	{
		ws.GET("/schedules/stream", handlers.WS.ScheduleStream)
	}

	// ─── 2. Admin Group (JWT + RBAC) ───────────────────────────────────
	writeLimiter := middleware.NewRateLimiter(writeRateLimit, time.Minute)

	catalogRead := middleware.RequirePermission(model.PermissionCatalogRead)
	sectionsWrite := middleware.RequirePermission(model.PermissionSectionsWrite)
	schedulesRead := middleware.RequirePermission(model.PermissionSchedulesRead)
	schedulesWrite := middleware.RequirePermission(model.PermissionSchedulesWrite)
	limited := writeLimiter.Middleware()

	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService), middleware.NoStore())
	{
		// Options catalog (days, rooms, statuses).
		adminAPI.GET("/options", catalogRead, middleware.CacheControl(300), handlers.Directory.Options)

		// Directory
		adminAPI.GET("/programs", catalogRead, handlers.Directory.ListPrograms)
		adminAPI.GET("/courses", catalogRead, handlers.Directory.ListCourses)
		adminAPI.GET("/faculty", catalogRead, handlers.Directory.ListFaculty)

		// Sections
		sectionsGroup := adminAPI.Group("/sections")
		{
			sectionsGroup.GET("", catalogRead, handlers.Directory.ListSections)
			sectionsGroup.GET("/:id", catalogRead, handlers.Directory.GetSection)
			sectionsGroup.POST("", sectionsWrite, limited, handlers.Section.Create)
			sectionsGroup.PATCH("/:id", sectionsWrite, limited, handlers.Section.Patch)
			sectionsGroup.PUT("/:id/faculty", sectionsWrite, limited, handlers.Section.AssignFaculty)
			sectionsGroup.DELETE("/:id", sectionsWrite, limited, handlers.Section.Delete)
			sectionsGroup.GET("/:id/history", schedulesRead, handlers.Section.History)

			sectionsGroup.GET("/:id/schedules", schedulesRead, handlers.Schedule.ListBySection)
			sectionsGroup.POST("/:id/schedules", schedulesWrite, limited, handlers.Schedule.Create)
		}

		// Schedules
		schedulesGroup := adminAPI.Group("/schedules")
		{
			schedulesGroup.GET("", schedulesRead, handlers.Schedule.List)
			schedulesGroup.GET("/conflicts", schedulesRead, handlers.Schedule.Conflicts)
			schedulesGroup.GET("/:id", schedulesRead, handlers.Schedule.Get)
			schedulesGroup.PUT("/:id", schedulesWrite, limited, handlers.Schedule.Update)
			schedulesGroup.PATCH("/:id/status", schedulesWrite, limited, handlers.Schedule.UpdateStatus)
			schedulesGroup.DELETE("/:id", schedulesWrite, limited, handlers.Schedule.Delete)
		}
	}

	return router
}
