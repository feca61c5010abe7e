package server

import (
	"net/http"
	"time"

	"botstudio/internal/agent_client"
	"botstudio/internal/config"
	"botstudio/internal/crypto"
	"botstudio/internal/event_client"
	"botstudio/internal/events"
	"botstudio/internal/handler"
	"botstudio/internal/importer"
	"botstudio/internal/middleware"
	"botstudio/internal/notify"
	"botstudio/internal/repository"
	"botstudio/internal/service"
	"botstudio/internal/tracker"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	db     *sqlx.DB
	cfg    *config.Config
	log    *logrus.Logger
	logger *zap.Logger
}

func NewServer(db *sqlx.DB, cfg *config.Config, cipher *crypto.Cipher, notifier *notify.Notifier, log *logrus.Logger, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router: router,
		db:     db,
		cfg:    cfg,
		log:    log,
		logger: logger,
	}

	s.setupRoutes(cipher, notifier)

	return s
}

func (s *Server) setupRoutes(cipher *crypto.Cipher, notifier *notify.Notifier) {
	// Repositories
	authRepo := repository.NewAuthRepository(s.db, s.log)
	intentRepo := repository.NewIntentRepository(s.db, s.logger)
	responseRepo := repository.NewResponseRepository(s.db, s.logger)
	flowRepo := repository.NewFlowRepository(s.db, s.logger)
	actionRepo := repository.NewHTTPActionRepository(s.db, cipher, s.logger)
	domainRepo := repository.NewDomainRepository(s.db, s.logger)
	importLogRepo := repository.NewImportLogRepository(s.db, s.logger)
	eventLogRepo := repository.NewEventLogRepository(s.db, s.logger)
	generationLogRepo := repository.NewGenerationLogRepository(s.db, s.logger)

	// Pipeline
	importTracker := tracker.NewImportTracker(importLogRepo, s.logger)
	trainTracker := tracker.NewModelTracker(eventLogRepo, repository.ActivityTraining, s.logger)
	testTracker := tracker.NewModelTracker(eventLogRepo, repository.ActivityTesting, s.logger)
	generationTracker := tracker.NewGenerationTracker(generationLogRepo, s.logger)
	merger := importer.NewMerger(intentRepo, responseRepo, flowRepo, actionRepo, domainRepo, s.logger)
	runner := importer.NewRunner(merger, domainRepo, importTracker, s.logger)
	worker := event_client.NewClient(s.logger)
	agent := agent_client.NewClient(s.logger)
	dispatcher := events.NewDispatcher(s.cfg, importTracker, trainTracker, testTracker, runner, worker, notifier, s.logger)

	// Services and handlers
	service.SetJWTSecret(s.cfg.Auth.JWTSecret)
	tokenTTL := time.Duration(s.cfg.Auth.TokenTTLMin) * time.Minute
	authService := service.NewAuthService(authRepo, tokenTTL, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.log)
	importerHandler := handler.NewImporterHandler(dispatcher, importTracker, generationTracker, agent, s.cfg, s.logger)
	intentHandler := handler.NewIntentHandler(intentRepo, s.logger)
	responseHandler := handler.NewResponseHandler(responseRepo, flowRepo, s.logger)
	flowHandler := handler.NewFlowHandler(flowRepo, s.logger)
	actionHandler := handler.NewHTTPActionHandler(actionRepo, s.logger)
	domainHandler := handler.NewDomainHandler(domainRepo, s.logger)

	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Authentication routes
	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// Authenticated routes
	authRequired := s.router.Group("/api")
	authRequired.Use(middleware.AuthMiddleware(s.logger))
	{
		authRequired.POST("/bot", authHandler.CreateBot)
		authRequired.GET("/bot", authHandler.ListBots)
	}

	// Everything below is scoped to one bot of the caller's account.
	bot := authRequired.Group("/bot/:bot")
	bot.Use(middleware.BotGuard(authService, s.logger))
	{
		bot.POST("/upload", importerHandler.Upload)
		bot.GET("/importer/logs", importerHandler.ImportLogs)
		bot.POST("/train", importerHandler.TrainModel)
		bot.POST("/test", importerHandler.TestModel)
		bot.POST("/deploy", importerHandler.DeployModel)
		bot.PUT("/update/data/generator/status", importerHandler.UpdateGeneratorStatus)
		bot.GET("/data/generation/latest", importerHandler.GenerationLogs)

		bot.POST("/intents", intentHandler.AddIntent)
		bot.GET("/intents", intentHandler.ListIntents)
		bot.DELETE("/intents/:name", intentHandler.DeleteIntent)
		bot.POST("/intents/:name/examples", intentHandler.AddExamples)
		bot.GET("/intents/:name/examples", intentHandler.ListExamples)

		bot.POST("/responses", responseHandler.AddResponse)
		bot.GET("/responses", responseHandler.ListResponses)
		bot.DELETE("/responses/:name", responseHandler.DeleteResponse)

		bot.POST("/stories", flowHandler.AddStory)
		bot.PUT("/stories", flowHandler.UpdateStory)
		bot.GET("/stories", flowHandler.ListStories)
		bot.DELETE("/stories/:name", flowHandler.DeleteStory)
		bot.POST("/rules", flowHandler.AddRule)
		bot.PUT("/rules", flowHandler.UpdateRule)
		bot.GET("/rules", flowHandler.ListRules)
		bot.DELETE("/rules/:name", flowHandler.DeleteRule)

		bot.POST("/actions/http", actionHandler.AddAction)
		bot.PUT("/actions/http", actionHandler.UpdateAction)
		bot.GET("/actions/http", actionHandler.ListActions)
		bot.GET("/actions/http/:name", actionHandler.GetAction)
		bot.DELETE("/actions/http/:name", actionHandler.DeleteAction)

		bot.GET("/domain", domainHandler.GetDomain)
		bot.GET("/config", domainHandler.GetConfig)
		bot.PUT("/config", domainHandler.SaveConfig)
	}
}

func (s *Server) Run(addr string) {
	s.log.Infof("Server starting on port %s...", addr)
	if err := s.router.Run(addr); err != nil {
		s.log.Fatalf("Server failed to start: %v", err)
	}
}
