package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"botstudio/internal/models"
	"botstudio/internal/repository"
)

type ResponseHandler interface {
	AddResponse(c *gin.Context)
	ListResponses(c *gin.Context)
	DeleteResponse(c *gin.Context)
}

type responseHandler struct {
	responses repository.ResponseRepository
	flows     repository.FlowRepository
	logger    *zap.Logger
}

func NewResponseHandler(responses repository.ResponseRepository, flows repository.FlowRepository, logger *zap.Logger) ResponseHandler {
	return &responseHandler{responses: responses, flows: flows, logger: logger}
}

type ResponseRequest struct {
	Name   string `json:"name" binding:"required"`
	Text   string `json:"text" binding:"required"`
	Custom string `json:"custom"`
}

// AddResponse handles POST /api/bot/:bot/responses. Each call adds one
// variation under the utterance name.
func (h *responseHandler) AddResponse(c *gin.Context) {
	bot := c.GetString("bot")
	user := c.GetString("username")

	var req ResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err.Error())
		return
	}

	response := &models.Response{
		Bot:    bot,
		Name:   req.Name,
		Text:   req.Text,
		Custom: req.Custom,
		User:   user,
	}
	if err := h.responses.Add(c.Request.Context(), response); err != nil {
		h.logger.Error("Failed to add response", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"name": response.Name}, "Utterance added successfully!")
}

// ListResponses handles GET /api/bot/:bot/responses.
func (h *responseHandler) ListResponses(c *gin.Context) {
	bot := c.GetString("bot")
	responses, err := h.responses.List(c.Request.Context(), bot)
	if err != nil {
		h.logger.Error("Failed to list responses", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, responses, "")
}

// DeleteResponse handles DELETE /api/bot/:bot/responses/:name. An
// utterance still spoken by a story cannot be removed.
func (h *responseHandler) DeleteResponse(c *gin.Context) {
	bot := c.GetString("bot")
	name := c.Param("name")

	referenced, err := h.flows.ReferencesBotStep(c.Request.Context(), bot, name)
	if err != nil {
		h.logger.Error("Failed to check utterance references", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	if referenced {
		respondError(c, models.NewAppError("Cannot remove utterance linked to story"))
		return
	}

	if err := h.responses.Delete(c.Request.Context(), bot, name); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Utterance removed successfully!")
}
