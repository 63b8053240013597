package router

import (
	"net/http"
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/guscambraia/aih-v3.5/internal/aih"
	"github.com/guscambraia/aih-v3.5/internal/config"
	"github.com/guscambraia/aih-v3.5/internal/handler"
	"github.com/guscambraia/aih-v3.5/internal/middleware"
	"github.com/guscambraia/aih-v3.5/internal/util"
)

// Deps are the long-lived objects the HTTP layer is built on.
type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Service *aih.Service
	Logger  *logrus.Logger
	Limiter *middleware.RateLimiter // optional
}

func corsConfig(origins []string) cors.Config {
	cc := cors.DefaultConfig()
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	cc.AddAllowHeaders("Origin", "Content-Type", "Authorization", middleware.RequestIDHeader)
	cc.AddExposeHeaders("Content-Length", "Content-Disposition", middleware.RequestIDHeader)
	return cc
}

// SetupRouter configures the Gin engine and every API route.
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger), gin.Recovery(), cors.New(corsConfig(cfg.Server.CORSOrigins)))
	if d.Limiter != nil {
		r.Use(d.Limiter.Handler())
	}

	r.NoRoute(func(c *gin.Context) {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "Rota não encontrada")
	})

	api := r.Group("/api")

	authHandler := handler.NewAuthHandler(d.DB, cfg, d.Logger)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(cfg.JWT.Secret, d.DB),
		middleware.AccessLogMiddleware(d.DB, d.Logger),
	)

	protected.GET("/me", handler.GetMe)
	protected.POST("/profile/password", handler.ChangePassword(d.DB, authHandler.BcryptCost))

	aihHandler := handler.NewAIHHandler(d.Service)
	protected.POST("/aih", aihHandler.Create)
	protected.GET("/aih/:number", aihHandler.GetByNumber)
	protected.GET("/aih/:number/next-movement", withID(aihHandler.NextMovement))
	protected.POST("/aih/:number/movements", withID(aihHandler.SubmitMovement))
	protected.GET("/aih/:number/glosas", withID(aihHandler.ListGlosas))
	protected.POST("/aih/:number/glosas", withID(aihHandler.AddGlosa))
	protected.DELETE("/glosas/:id", aihHandler.RetireGlosa)

	exportHandler := handler.NewExportHandler(d.Service, d.Logger)
	protected.GET("/aih/:number/movements/export/:format", withID(exportHandler.ExportMovements))
	protected.GET("/export/:format", exportHandler.ExportRecords)

	catalog := handler.NewCatalogHandler(d.Service)
	protected.GET("/glosa-types", catalog.ListGlosaTypes)
	protected.POST("/glosa-types", catalog.CreateGlosaType)
	protected.DELETE("/glosa-types/:id", catalog.DeleteGlosaType)
	protected.GET("/professionals", catalog.ListProfessionals)
	protected.POST("/professionals", catalog.CreateProfessional)
	protected.DELETE("/professionals/:id", catalog.DeleteProfessional)

	dash := handler.NewDashboardHandler(d.Service, cfg.App.PageSize)
	protected.GET("/dashboard", dash.Dashboard)
	protected.POST("/search", dash.Search)
	protected.POST("/reports/:kind", dash.Report)
	protected.GET("/reports/:kind/export", exportHandler.ExportReport)

	backupHandler := handler.NewBackupHandler(d.DB, cfg.Security.EncryptionKey, cfg.Backup.Dir, d.Logger)
	protected.POST("/backups", backupHandler.CreateBackup)
	protected.GET("/backups", backupHandler.ListBackups)
	protected.GET("/backups/:id/download", backupHandler.DownloadBackup)
	protected.DELETE("/backups/:id", backupHandler.DeleteBackup)

	logHandler := handler.NewLogHandler(d.DB, cfg.App.PageSize)
	protected.GET("/logs", logHandler.ListLogs)

	return r
}

// withID lets routes under /aih/:number address a record by its numeric id.
// Gin requires one wildcard name per path segment, so the id arrives as
// :number and is copied into :id for the handler.
func withID(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Params = append(c.Params, gin.Param{Key: "id", Value: c.Param("number")})
		h(c)
	}
}
