package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/shopora/shopora-golang/internal/auth"
	"github.com/shopora/shopora-golang/internal/config"
	"github.com/shopora/shopora-golang/internal/database"
	"github.com/shopora/shopora-golang/internal/handlers"
	"github.com/shopora/shopora-golang/internal/routes"
	"github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("WARNING: no .env file found, relying on system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	auth.SetSecret(cfg.JWTSecret)
	gin.SetMode(cfg.GinMode)

	db, err := database.OpenDB(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	app := &handlers.Handlers{
		DB:  db,
		Log: logger,
	}

	router := routes.SetupRouter(app, cfg.CORSOrigin)

	logger.WithField("addr", cfg.HTTPAddr).Info("starting Shopora API server")
	if err := router.Run(cfg.HTTPAddr); err != nil {
		logger.WithError(err).Fatal("server stopped")
	}
}
