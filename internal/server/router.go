package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/minbar-app/minbar-backend/internal/handlers"
  "github.com/minbar-app/minbar-backend/internal/http/middleware"
  "github.com/minbar-app/minbar-backend/internal/logger"
)

type RouterConfig struct {
  Log             *logger.Logger
  GenerateHandler *handlers.GenerateHandler
  WhisperHandler  *handlers.WhisperHandler
  UploadHandler   *handlers.UploadHandler
  UpdateHandler   *handlers.UpdateHandler
  AskHandler      *handlers.AskHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.New()
  router.Use(middleware.RequestLogger(cfg.Log))
  router.Use(gin.Recovery())

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:3000",
      "http://localhost:5173",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

  router.GET("/health", handlers.HealthCheck)

  // Model gateway
  router.POST("/generate", cfg.GenerateHandler.Generate)
  router.POST("/whisper", cfg.WhisperHandler.Transcribe)
  router.POST("/upload", cfg.UploadHandler.Upload)

  // JSON editing
  router.POST("/update-json", cfg.UpdateHandler.UpdateJSON)
  router.POST("/update-class", cfg.UpdateHandler.UpdateClass)

  // RAG
  router.POST("/ask", cfg.AskHandler.Ask)
  router.GET("/namespaces", cfg.AskHandler.Namespaces)
  router.GET("/ask/status", cfg.AskHandler.Status)

  return router
}
