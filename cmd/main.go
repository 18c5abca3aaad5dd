package main

import (
  "context"
  "fmt"
  "os"

  "github.com/joho/godotenv"

  "github.com/minbar-app/minbar-backend/internal/config"
  "github.com/minbar-app/minbar-backend/internal/handlers"
  "github.com/minbar-app/minbar-backend/internal/logger"
  "github.com/minbar-app/minbar-backend/internal/rag"
  "github.com/minbar-app/minbar-backend/internal/server"
  "github.com/minbar-app/minbar-backend/internal/services"
  "github.com/minbar-app/minbar-backend/internal/utils"
)

func main() {
  // Env
  _ = godotenv.Load()

  // Logger
  logMode := utils.GetEnv("LOG_MODE", "development", nil)
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Config
  configPath := utils.GetEnv("CONFIG_PATH", "config.yaml", log)
  cfg, err := config.Load(configPath)
  if err != nil {
    log.Error("Could not load config", "error", err)
    os.Exit(1)
  }
  if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
    log.Error("Could not create upload dir", "error", err)
    os.Exit(1)
  }

  // Services
  log.Info("Setting up services from main...")
  openaiClient, err := services.NewOpenAIClient(log)
  if err != nil {
    log.Error("Could not init OpenAIClient", "error", err)
    os.Exit(1)
  }
  ocrProvider, err := services.NewOCRProvider(log, cfg.OCRProvider)
  if err != nil {
    log.Error("Could not init OCR provider", "error", err)
    os.Exit(1)
  }
  transcriber, err := services.NewTranscriptionProvider(log, cfg.TranscribeProvider, openaiClient)
  if err != nil {
    log.Error("Could not init transcription provider", "error", err)
    os.Exit(1)
  }
  imageTextService, err := services.NewImageTextService(log, ocrProvider, openaiClient)
  if err != nil {
    log.Error("Could not init ImageTextService", "error", err)
    os.Exit(1)
  }
  auditRecorder, err := services.NewFileAuditRecorder(log, cfg.LogsDir)
  if err != nil {
    log.Error("Could not init audit recorder", "error", err)
    os.Exit(1)
  }
  updateEditor, err := services.NewUpdateEditor(log, openaiClient, auditRecorder)
  if err != nil {
    log.Error("Could not init UpdateEditor", "error", err)
    os.Exit(1)
  }

  // RAG
  log.Info("Building vector indexes from main...")
  ragManager, err := rag.NewManager(log, openaiClient, cfg.PDFDir, cfg.CacheDir, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
  if err != nil {
    log.Error("Could not init RAG manager", "error", err)
    os.Exit(1)
  }
  if err := ragManager.Init(context.Background()); err != nil {
    log.Error("RAG initialization failed", "error", err)
    os.Exit(1)
  }
  ragChain, err := rag.NewChain(log, ragManager, openaiClient, cfg.RAG.TopK)
  if err != nil {
    log.Error("Could not init RAG chain", "error", err)
    os.Exit(1)
  }

  // Handlers
  log.Info("Setting up handlers from main...")
  generateHandler := handlers.NewGenerateHandler(log, openaiClient)
  whisperHandler := handlers.NewWhisperHandler(log, transcriber, cfg.UploadDir)
  uploadHandler := handlers.NewUploadHandler(log, imageTextService, cfg.UploadDir)
  updateHandler := handlers.NewUpdateHandler(log, updateEditor)
  askHandler := handlers.NewAskHandler(log, ragChain, ragManager)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    Log:             log,
    GenerateHandler: generateHandler,
    WhisperHandler:  whisperHandler,
    UploadHandler:   uploadHandler,
    UpdateHandler:   updateHandler,
    AskHandler:      askHandler,
  })

  fmt.Printf("Server listening on :%s\n", cfg.Port)
  if err := router.Run(":" + cfg.Port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
