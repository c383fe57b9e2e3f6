package route

import (
	"fmt"
	"time"

	"cafefinder/controller"
	"cafefinder/logging"
	"cafefinder/metrics"
	"cafefinder/templates"
	"cafefinder/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options carries everything the router needs; main builds it from config.
type Options struct {
	Cafes          *controller.CafeController
	Auth           *controller.AuthController
	Sessions       *utils.SessionManager
	AuthLimiter    *utils.RateLimiter
	AllowedOrigins []string
	UploadDir      string
}

// NewRouter builds the gin engine with middleware, templates and routes.
func NewRouter(opts Options) (*gin.Engine, error) {
	if err := controller.RegisterValidations(); err != nil {
		return nil, fmt.Errorf("register validations: %w", err)
	}

	tmpl, err := templates.Load()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(gin.Recovery(), logging.Middleware(), metrics.Middleware())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(opts.Sessions.SessionMiddleware())

	router.Static(controller.UploadURLPrefix, opts.UploadDir)
	router.GET("/metrics", metrics.Handler())

	CafeRoutes(router, opts.Cafes)
	AuthRoutes(router, opts.Auth, opts.AuthLimiter)
	router.NoRoute(controller.NotFound)

	return router, nil
}

func CafeRoutes(router *gin.Engine, cafes *controller.CafeController) {
	router.GET("/", cafes.Home)
	router.GET("/cafe/:id", cafes.CafePage)
	router.GET("/export-cafes", cafes.ExportCafes)

	owner := router.Group("/")
	owner.Use(utils.RequireLogin())
	{
		owner.GET("/add-cafe", cafes.AddCafe)
		owner.POST("/add-cafe", cafes.AddCafe)
		owner.GET("/edit-cafe/:id", cafes.EditCafe)
		owner.POST("/edit-cafe/:id", cafes.EditCafe)
		owner.GET("/delete/:id", cafes.DeleteCafe)
		owner.POST("/delete/:id", cafes.DeleteCafe)
		owner.GET("/import-cafes", cafes.ImportCafes)
		owner.POST("/import-cafes", cafes.ImportCafes)
	}
}

func AuthRoutes(router *gin.Engine, auth *controller.AuthController, limiter *utils.RateLimiter) {
	limited := router.Group("/")
	limited.Use(limiter.Middleware())
	{
		limited.GET("/register", auth.Register)
		limited.POST("/register", auth.Register)
		limited.GET("/login", auth.Login)
		limited.POST("/login", auth.Login)
	}
	router.GET("/logout", utils.RequireLogin(), auth.Logout)
}
