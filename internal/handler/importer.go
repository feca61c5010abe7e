package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"botstudio/internal/agent_client"
	"botstudio/internal/config"
	"botstudio/internal/events"
	"botstudio/internal/models"
	"botstudio/internal/tracker"
)

// ImporterHandler exposes the training-data pipeline: upload, run logs,
// model events and the generator status callback.
type ImporterHandler interface {
	Upload(c *gin.Context)
	ImportLogs(c *gin.Context)
	TrainModel(c *gin.Context)
	TestModel(c *gin.Context)
	DeployModel(c *gin.Context)
	UpdateGeneratorStatus(c *gin.Context)
	GenerationLogs(c *gin.Context)
}

type importerHandler struct {
	dispatcher *events.Dispatcher
	imports    *tracker.ImportTracker
	generation *tracker.GenerationTracker
	agent      *agent_client.Client
	cfg        *config.Config
	logger     *zap.Logger
}

func NewImporterHandler(
	dispatcher *events.Dispatcher,
	imports *tracker.ImportTracker,
	generation *tracker.GenerationTracker,
	agent *agent_client.Client,
	cfg *config.Config,
	logger *zap.Logger,
) ImporterHandler {
	return &importerHandler{
		dispatcher: dispatcher,
		imports:    imports,
		generation: generation,
		agent:      agent,
		cfg:        cfg,
		logger:     logger,
	}
}

// Upload handles POST /api/bot/:bot/upload. Files arrive as multipart
// entries named training_files; import_data and overwrite are query
// flags. The call only acknowledges the run, the pipeline proceeds
// asynchronously.
func (h *importerHandler) Upload(c *gin.Context) {
	bot := c.GetString("bot")
	user := c.GetString("username")

	form, err := c.MultipartForm()
	if err != nil {
		respondInvalid(c, "Multipart form with training_files required")
		return
	}
	uploads := form.File["training_files"]
	if len(uploads) == 0 {
		respondInvalid(c, "No training files received")
		return
	}

	files := make(map[string][]byte, len(uploads))
	for _, header := range uploads {
		file, err := header.Open()
		if err != nil {
			h.logger.Error("Failed to open uploaded file", zap.String("file", header.Filename), zap.Error(err))
			respondInvalid(c, "Unable to read uploaded file: "+header.Filename)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			h.logger.Error("Failed to read uploaded file", zap.String("file", header.Filename), zap.Error(err))
			respondInvalid(c, "Unable to read uploaded file: "+header.Filename)
			return
		}
		files[header.Filename] = data
	}

	importData := c.DefaultQuery("import_data", "true") == "true"
	overwrite := c.DefaultQuery("overwrite", "false") == "true"

	message, err := h.dispatcher.TriggerImport(c.Request.Context(), bot, user, files, importData, overwrite)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, message)
}

// ImportLogs handles GET /api/bot/:bot/importer/logs with start_idx and
// page_size pagination.
func (h *importerHandler) ImportLogs(c *gin.Context) {
	bot := c.GetString("bot")
	offset, _ := strconv.Atoi(c.DefaultQuery("start_idx", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	logs, err := h.imports.ListLogs(c.Request.Context(), bot, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list import logs", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"logs": logs}, "")
}

// TrainModel handles POST /api/bot/:bot/train.
func (h *importerHandler) TrainModel(c *gin.Context) {
	bot := c.GetString("bot")
	user := c.GetString("username")

	message, err := h.dispatcher.TriggerTraining(c.Request.Context(), bot, user)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, message)
}

// TestModel handles POST /api/bot/:bot/test.
func (h *importerHandler) TestModel(c *gin.Context) {
	bot := c.GetString("bot")
	user := c.GetString("username")

	message, err := h.dispatcher.TriggerTesting(c.Request.Context(), bot, user)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, message)
}

// DeployModel handles POST /api/bot/:bot/deploy. Deployment failures are
// reported in the message of a success envelope so the UI shows the
// agent's reason verbatim.
func (h *importerHandler) DeployModel(c *gin.Context) {
	bot := c.GetString("bot")

	if h.cfg.Agent.URL == "" {
		respondOK(c, nil, "No agent endpoint configured")
		return
	}
	message, err := h.agent.Deploy(c.Request.Context(), h.cfg.Agent.URL, h.cfg.Agent.Token, bot)
	if err != nil {
		respondOK(c, nil, err.Error())
		return
	}
	if message == "" {
		message = "Model deployed"
	}
	respondOK(c, nil, message)
}

type GeneratorStatusRequest struct {
	Status    models.GenerationStatus  `json:"status" binding:"required"`
	Response  []models.GeneratedIntent `json:"response"`
	Exception string                   `json:"exception"`
}

// UpdateGeneratorStatus handles PUT /api/bot/:bot/update/data/generator/status,
// the callback the document-to-training-data worker reports through.
func (h *importerHandler) UpdateGeneratorStatus(c *gin.Context) {
	bot := c.GetString("bot")
	user := c.GetString("username")

	var req GeneratorStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err.Error())
		return
	}
	switch req.Status {
	case models.GenInitiated, models.GenInProgress, models.GenCompleted, models.GenFail:
	default:
		respondInvalid(c, "Invalid status: "+string(req.Status))
		return
	}

	if _, err := h.generation.SetStatus(c.Request.Context(), bot, user, req.Status, req.Response, req.Exception); err != nil {
		h.logger.Error("Failed to update generation status", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Status updated successfully!")
}

// GenerationLogs handles GET /api/bot/:bot/data/generation/latest.
func (h *importerHandler) GenerationLogs(c *gin.Context) {
	bot := c.GetString("bot")
	log, err := h.generation.FetchLatest(c.Request.Context(), bot)
	if err != nil {
		h.logger.Error("Failed to fetch generation log", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, log, "")
}
