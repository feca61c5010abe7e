package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"botstudio/internal/flowcheck"
	"botstudio/internal/models"
	"botstudio/internal/repository"
)

type FlowHandler interface {
	AddStory(c *gin.Context)
	UpdateStory(c *gin.Context)
	ListStories(c *gin.Context)
	DeleteStory(c *gin.Context)
	AddRule(c *gin.Context)
	UpdateRule(c *gin.Context)
	ListRules(c *gin.Context)
	DeleteRule(c *gin.Context)
}

type flowHandler struct {
	flows  repository.FlowRepository
	logger *zap.Logger
}

func NewFlowHandler(flows repository.FlowRepository, logger *zap.Logger) FlowHandler {
	return &flowHandler{flows: flows, logger: logger}
}

type FlowRequest struct {
	Name  string        `json:"name" binding:"required"`
	Steps []models.Step `json:"steps" binding:"required"`
}

// AddStory handles POST /api/bot/:bot/stories. Steps are checked against
// the flow grammar before anything is written.
func (h *flowHandler) AddStory(c *gin.Context) {
	h.addFlow(c, models.FlowStory)
}

// AddRule handles POST /api/bot/:bot/rules.
func (h *flowHandler) AddRule(c *gin.Context) {
	h.addFlow(c, models.FlowRule)
}

func (h *flowHandler) addFlow(c *gin.Context, flowType models.FlowType) {
	bot := c.GetString("bot")
	user := c.GetString("username")

	var req FlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err.Error())
		return
	}
	if err := flowcheck.ValidateSteps(req.Name, req.Steps, flowType); err != nil {
		respondError(c, err)
		return
	}

	exists, err := h.flows.Exists(c.Request.Context(), bot, req.Name, flowType)
	if err != nil {
		h.logger.Error("Failed to check flow", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	if exists {
		respondError(c, models.NewAppError("Flow already exists!"))
		return
	}

	flow := &models.Flow{
		Bot:          bot,
		Name:         req.Name,
		Type:         flowType,
		TemplateType: flowcheck.TemplateType(req.Steps),
		User:         user,
		Steps:        req.Steps,
	}
	if err := h.flows.Add(c.Request.Context(), flow); err != nil {
		h.logger.Error("Failed to add flow", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"name": flow.Name}, "Flow added successfully!")
}

// UpdateStory handles PUT /api/bot/:bot/stories. The flow is replaced
// wholesale with the validated steps.
func (h *flowHandler) UpdateStory(c *gin.Context) {
	h.updateFlow(c, models.FlowStory)
}

// UpdateRule handles PUT /api/bot/:bot/rules.
func (h *flowHandler) UpdateRule(c *gin.Context) {
	h.updateFlow(c, models.FlowRule)
}

func (h *flowHandler) updateFlow(c *gin.Context, flowType models.FlowType) {
	bot := c.GetString("bot")
	user := c.GetString("username")

	var req FlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err.Error())
		return
	}
	if err := flowcheck.ValidateSteps(req.Name, req.Steps, flowType); err != nil {
		respondError(c, err)
		return
	}

	if err := h.flows.Delete(c.Request.Context(), bot, req.Name, flowType); err != nil {
		respondError(c, err)
		return
	}
	flow := &models.Flow{
		Bot:          bot,
		Name:         req.Name,
		Type:         flowType,
		TemplateType: flowcheck.TemplateType(req.Steps),
		User:         user,
		Steps:        req.Steps,
	}
	if err := h.flows.Add(c.Request.Context(), flow); err != nil {
		h.logger.Error("Failed to update flow", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"name": flow.Name}, "Flow updated successfully!")
}

// ListStories handles GET /api/bot/:bot/stories.
func (h *flowHandler) ListStories(c *gin.Context) {
	h.listFlows(c, models.FlowStory)
}

// ListRules handles GET /api/bot/:bot/rules.
func (h *flowHandler) ListRules(c *gin.Context) {
	h.listFlows(c, models.FlowRule)
}

func (h *flowHandler) listFlows(c *gin.Context, flowType models.FlowType) {
	bot := c.GetString("bot")
	flows, err := h.flows.List(c.Request.Context(), bot, flowType)
	if err != nil {
		h.logger.Error("Failed to list flows", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, flows, "")
}

// DeleteStory handles DELETE /api/bot/:bot/stories/:name.
func (h *flowHandler) DeleteStory(c *gin.Context) {
	h.deleteFlow(c, models.FlowStory)
}

// DeleteRule handles DELETE /api/bot/:bot/rules/:name.
func (h *flowHandler) DeleteRule(c *gin.Context) {
	h.deleteFlow(c, models.FlowRule)
}

func (h *flowHandler) deleteFlow(c *gin.Context, flowType models.FlowType) {
	bot := c.GetString("bot")
	name := c.Param("name")

	if err := h.flows.Delete(c.Request.Context(), bot, name, flowType); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Flow removed successfully!")
}
