package routes

import (
	"net/http"

	"Gin_postgres_redis_tool_lending/app"
	"Gin_postgres_redis_tool_lending/controllers"
)

// RegisterRoutes mounts every endpoint on a.Router.
func RegisterRoutes(a *app.App) {
	r := a.Router
	controllers.RegisterValidators()

	// 控制器与依赖
	s := controllers.GetSrv(a)
	loanCtl := s.LoanController(a.Events)
	itemCtl := controllers.NewItemController(s)
	borrowerCtl := controllers.NewBorrowerController(s)
	reportCtl := controllers.NewReportController(s)
	settingsCtl := controllers.NewSettingsController(s)
	auditCtl := controllers.NewAuditController(s)
	opCtl := controllers.GetOperatorController(s.Repo, s.AppSess, a.Log)

	// 复用的中间件
	authMW := app.AuthRequired(s.AppSess, s.Repo, a.Log)
	superMW := app.SuperOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, a.Config.SeenThrottle)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"ok": true}) })

	// ------------------------------
	// 账号密码登录 / 自助注册
	// ------------------------------
	auth := r.Group("/auth")
	{
		auth.POST("/login", s.Login)
		auth.POST("/register", s.Register)
		auth.POST("/logout", s.Logout)
		auth.GET("/me", authMW, seenMW, s.Me)
	}

	// 通行密钥登录（公开）
	wa := r.Group("/webauthn")
	{
		wa.POST("/login/begin", s.BeginLogin)
		wa.POST("/login/finish", s.FinishLogin)
	}

	api := r.Group("/api", authMW, seenMW)

	// 已登录操作员添加新凭据
	creds := api.Group("/credentials")
	{
		creds.POST("/add/begin", s.BeginAddCredential)
		creds.POST("/add/finish", s.FinishAddCredential)
	}

	// ------------------------------
	// 工具 / 借用人
	// ------------------------------
	items := api.Group("/items")
	{
		items.GET("", itemCtl.List)
		items.GET("/categories", itemCtl.Categories)
		items.GET("/:id", itemCtl.Get)
		items.GET("/:id/qr", itemCtl.QR)
		items.POST("", itemCtl.Create)
		items.PUT("/:id", itemCtl.Update)
		items.DELETE("/:id", itemCtl.Delete)
	}

	borrowers := api.Group("/borrowers")
	{
		borrowers.GET("", borrowerCtl.List)
		borrowers.GET("/careers", borrowerCtl.Careers)
		borrowers.GET("/:id", borrowerCtl.Get)
		borrowers.POST("", borrowerCtl.Create)
		borrowers.PUT("/:id", borrowerCtl.Update)
		borrowers.DELETE("/:id", borrowerCtl.Delete)
	}

	// ------------------------------
	// 借出 / 归还
	// ------------------------------
	loans := api.Group("/loans")
	{
		loans.GET("", loanCtl.ListActive) // ?q=&status=&severity=&page=&size=
		loans.GET("/overdue", loanCtl.ListOverdue)
		loans.GET("/history", loanCtl.ListHistory)
		loans.GET("/:id", loanCtl.Get)
		loans.POST("", loanCtl.Issue)
		loans.POST("/:id/return", loanCtl.Return)
	}

	api.GET("/dashboard", reportCtl.Dashboard)
	api.GET("/reports", reportCtl.Report)
	api.GET("/reports/export", reportCtl.Export)

	// ------------------------------
	// 仅超级管理员
	// ------------------------------
	ops := api.Group("/operators", superMW)
	{
		ops.GET("", opCtl.List)
		ops.GET("/:id", opCtl.Get)
		ops.POST("", opCtl.Create)
		ops.PUT("/:id", opCtl.Update)
		ops.DELETE("/:id", opCtl.Delete)
	}

	api.GET("/settings", superMW, settingsCtl.Get)
	api.PUT("/settings", superMW, settingsCtl.Update)
	api.GET("/audit", superMW, auditCtl.List)
}
