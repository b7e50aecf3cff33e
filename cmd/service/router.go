package service

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tablehub/tablehub/app/core"
	v1 "github.com/tablehub/tablehub/app/logic/v1"
	"github.com/tablehub/tablehub/app/response"
	"github.com/tablehub/tablehub/cmd/service/handler"
	"github.com/tablehub/tablehub/cmd/service/middleware"
	"github.com/tablehub/tablehub/pkg/metrics"
)

func serve(core *core.Core) error {
	httpSrv := &handler.HttpSrv{
		Core:   core,
		Engine: core.HttpEngine(),
	}
	setupHttpRouter(httpSrv)

	return core.HttpEngine().Run(core.Cfg().Addr)
}

func GetIPLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, func(c *gin.Context) string {
			return key + ":" + c.ClientIP()
		}, opts...)
	}
}

func GetUserLimitBuilder(appCore *core.Core) middleware.LimiterFunc {
	return func(key string, opts ...core.LimitOption) gin.HandlerFunc {
		return middleware.UseLimit(appCore, func(c *gin.Context) string {
			token, _ := v1.InjectTokenClaim(c)
			return key + ":" + token.User
		}, opts...)
	}
}

func setupHttpRouter(s *handler.HttpSrv) {
	ipLimit := GetIPLimitBuilder(s.Core)
	userLimit := GetUserLimitBuilder(s.Core)

	s.Engine.Use(gin.Recovery())
	s.Engine.GET("/metrics", metrics.DefaultExportHandler())

	s.Engine.Use(middleware.I18n(), response.NewResponse())
	s.Engine.Use(middleware.Cors, middleware.AcceptLanguage(), middleware.Metrics(s.Core))
	apiV1 := s.Engine.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", ipLimit("login", core.WithLimit(s.Core.Cfg().Limit.LoginPerMinute), core.WithRange(time.Minute)), s.Login)
			auth.POST("/logout", middleware.Authorization(s.Core), s.Logout)
		}

		authed := apiV1.Group("")
		authed.Use(middleware.Authorization(s.Core))

		user := authed.Group("/user")
		{
			user.GET("/info", s.GetUser)
		}

		tables := authed.Group("/tables")
		{
			tables.GET("", s.ListTables)
			tables.POST("", userLimit("define_table"), s.DefineTable)
			tables.GET("/:name", s.GetTable)
			tables.POST("/:name/columns", s.AddTableColumns)
			tables.POST("/:name/repair", middleware.VerifyAdmin, s.RepairTable)

			rows := tables.Group("/:name/rows")
			{
				rows.GET("", s.ViewTable)
				rows.POST("", s.AddRow)
				rows.PUT("", s.BulkUpdateRows)
				rows.GET("/:id", s.GetRow)
				rows.PUT("/:id", s.EditRow)
				rows.DELETE("/:id", s.DeleteRow)
			}
		}

		coreEntity := authed.Group("/core")
		{
			coreEntity.GET("", s.ListCoreEntities)
			coreEntity.POST("", s.CreateCoreEntity)
			coreEntity.GET("/:uuid", s.GetCoreEntity)
			coreEntity.DELETE("/:uuid", middleware.VerifyAdmin, s.DeleteCoreEntity)
		}

		schemas := authed.Group("/schemas")
		{
			schemas.GET("", s.ListSchemas)
			schemas.POST("", s.CreateSchema)
			schemas.GET("/versions", s.ListSchemaVersions)
			schemas.POST("/import", userLimit("import_schema"), s.ImportSchema)
			schemas.GET("/:id", s.GetSchema)
			schemas.PUT("/:id", s.UpdateSchema)
			schemas.DELETE("/:id", s.DeleteSchema)
			schemas.POST("/:id/versions", s.CreateSchemaVersion)
			schemas.GET("/:id/visualization", s.VisualizeSchema)
			schemas.GET("/:id/export", s.ExportSchema)
		}

		admin := authed.Group("/admin")
		{
			admin.Use(middleware.VerifyAdmin)
			admin.GET("/users", s.AdminListUsers)
			admin.POST("/users", s.AdminCreateUser)
			admin.PUT("/users/:id/access", s.AdminUpdateUserAccess)
			admin.PUT("/users/:id/password", s.AdminResetPassword)
			admin.GET("/audit", s.AdminListAuditLogs)
		}
	}
}
