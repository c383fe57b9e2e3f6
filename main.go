package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cafefinder/auth"
	"cafefinder/config"
	"cafefinder/controller"
	"cafefinder/database"
	"cafefinder/logging"
	"cafefinder/repository"
	"cafefinder/route"
	"cafefinder/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		logging.Log.Info("Running in debug mode")
	}
	if cfg.UsesDevelopmentKey() {
		logging.Log.Warn("SECRET_KEY not set, using the development key")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		logging.Log.Fatalf("Failed to initialise database: %v", err)
	}
	defer database.Close(db)

	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		logging.Log.Fatalf("Failed to create uploads directory: %v", err)
	}

	sessions := utils.NewSessionManager(cfg.SecretKey, cfg.SessionTTL, cfg.SecureCookies)
	limiter := utils.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst)
	go limiter.Run(ctx, 10*time.Minute)

	cafes := controller.NewCafeController(
		repository.NewCafeRepository(db),
		&controller.Uploader{Dir: cfg.UploadDir},
	)
	authController := controller.NewAuthController(
		auth.NewService(repository.NewUserRepository(db)),
		sessions,
	)

	router, err := route.NewRouter(route.Options{
		Cafes:          cafes,
		Auth:           authController,
		Sessions:       sessions,
		AuthLimiter:    limiter,
		AllowedOrigins: cfg.Origins(),
		UploadDir:      cfg.UploadDir,
	})
	if err != nil {
		logging.Log.Fatalf("Failed to build router: %v", err)
	}
	logging.Log.Info("Routes configured successfully")

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logging.Log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Log.Info("Shutting down server gracefully ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Log.WithError(err).Error("Server shutdown failed")
	}
	logging.Log.Info("Server exiting")
}
