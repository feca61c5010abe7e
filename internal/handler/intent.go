package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"botstudio/internal/models"
	"botstudio/internal/repository"
)

type IntentHandler interface {
	AddIntent(c *gin.Context)
	ListIntents(c *gin.Context)
	DeleteIntent(c *gin.Context)
	AddExamples(c *gin.Context)
	ListExamples(c *gin.Context)
}

type intentHandler struct {
	intents repository.IntentRepository
	logger  *zap.Logger
}

func NewIntentHandler(intents repository.IntentRepository, logger *zap.Logger) IntentHandler {
	return &intentHandler{intents: intents, logger: logger}
}

type IntentRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddIntent handles POST /api/bot/:bot/intents.
func (h *intentHandler) AddIntent(c *gin.Context) {
	bot := c.GetString("bot")
	user := c.GetString("username")

	var req IntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err.Error())
		return
	}

	exists, err := h.intents.Exists(c.Request.Context(), bot, req.Name)
	if err != nil {
		h.logger.Error("Failed to check intent", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	if exists {
		respondError(c, models.NewAppError("Intent already exists!"))
		return
	}

	intent := &models.Intent{Bot: bot, Name: req.Name, User: user}
	if err := h.intents.Add(c.Request.Context(), intent); err != nil {
		h.logger.Error("Failed to add intent", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"name": intent.Name}, "Intent added successfully!")
}

// ListIntents handles GET /api/bot/:bot/intents.
func (h *intentHandler) ListIntents(c *gin.Context) {
	bot := c.GetString("bot")
	intents, err := h.intents.List(c.Request.Context(), bot)
	if err != nil {
		h.logger.Error("Failed to list intents", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, intents, "")
}

// DeleteIntent handles DELETE /api/bot/:bot/intents/:name. Attached
// training examples go with it.
func (h *intentHandler) DeleteIntent(c *gin.Context) {
	bot := c.GetString("bot")
	name := c.Param("name")

	if err := h.intents.Delete(c.Request.Context(), bot, name); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Intent removed successfully!")
}

type ExamplesRequest struct {
	Examples []string `json:"examples" binding:"required"`
}

// AddExamples handles POST /api/bot/:bot/intents/:name/examples. The
// batch never fails as a whole: each example reports its own outcome.
func (h *intentHandler) AddExamples(c *gin.Context) {
	bot := c.GetString("bot")
	user := c.GetString("username")
	intent := c.Param("name")

	var req ExamplesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err.Error())
		return
	}

	exists, err := h.intents.Exists(c.Request.Context(), bot, intent)
	if err != nil {
		respondError(c, err)
		return
	}
	if !exists {
		respondError(c, models.NewAppError("Intent does not exist"))
		return
	}

	results := make([]models.TrainingExampleResult, 0, len(req.Examples))
	for _, text := range req.Examples {
		result := models.TrainingExampleResult{Text: text}
		known, err := h.intents.ExampleExists(c.Request.Context(), bot, intent, text)
		if err != nil {
			h.logger.Error("Failed to check training example", zap.String("bot", bot), zap.Error(err))
			respondError(c, err)
			return
		}
		if known {
			message := "Training example already exists!"
			result.Message = &message
		} else {
			example := &models.TrainingExample{Bot: bot, Intent: intent, Text: text, User: user}
			if err := h.intents.AddExample(c.Request.Context(), example); err != nil {
				h.logger.Error("Failed to add training example", zap.String("bot", bot), zap.Error(err))
				respondError(c, err)
				return
			}
			result.ID = &example.ID
		}
		results = append(results, result)
	}
	respondOK(c, results, "Training examples processed!")
}

// ListExamples handles GET /api/bot/:bot/intents/:name/examples.
func (h *intentHandler) ListExamples(c *gin.Context) {
	bot := c.GetString("bot")
	intent := c.Param("name")

	examples, err := h.intents.ListExamples(c.Request.Context(), bot, intent)
	if err != nil {
		h.logger.Error("Failed to list training examples", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, examples, "")
}
