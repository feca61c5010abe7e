package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"botstudio/internal/importer"
	"botstudio/internal/models"
	"botstudio/internal/repository"
)

type HTTPActionHandler interface {
	AddAction(c *gin.Context)
	UpdateAction(c *gin.Context)
	GetAction(c *gin.Context)
	ListActions(c *gin.Context)
	DeleteAction(c *gin.Context)
}

type httpActionHandler struct {
	actions repository.HTTPActionRepository
	logger  *zap.Logger
}

func NewHTTPActionHandler(actions repository.HTTPActionRepository, logger *zap.Logger) HTTPActionHandler {
	return &httpActionHandler{actions: actions, logger: logger}
}

type HTTPActionRequest struct {
	ActionName    string                   `json:"action_name" binding:"required"`
	HTTPURL       string                   `json:"http_url" binding:"required"`
	RequestMethod string                   `json:"request_method" binding:"required"`
	ResponseValue string                   `json:"response" binding:"required"`
	Params        []models.HTTPActionParam `json:"params_list"`
	Headers       []models.HTTPActionParam `json:"headers"`
}

// bindAction decodes and validates the request body; it writes the error
// response itself and returns nil on failure.
func (h *httpActionHandler) bindAction(c *gin.Context) *models.HTTPAction {
	var req HTTPActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err.Error())
		return nil
	}

	action := &models.HTTPAction{
		Bot:           c.GetString("bot"),
		ActionName:    req.ActionName,
		HTTPURL:       req.HTTPURL,
		RequestMethod: strings.ToUpper(req.RequestMethod),
		ResponseValue: req.ResponseValue,
		User:          c.GetString("username"),
		Params:        req.Params,
		Headers:       req.Headers,
	}
	if !models.RequestMethods[action.RequestMethod] {
		respondError(c, models.NewAppError("Invalid request method: "+action.RequestMethod))
		return nil
	}
	for i := range action.Headers {
		action.Headers[i].IsHeader = true
	}
	if err := importer.ValidateActionParams(action); err != nil {
		respondError(c, err)
		return nil
	}
	return action
}

// AddAction handles POST /api/bot/:bot/actions/http.
func (h *httpActionHandler) AddAction(c *gin.Context) {
	bot := c.GetString("bot")

	action := h.bindAction(c)
	if action == nil {
		return
	}

	exists, err := h.actions.Exists(c.Request.Context(), bot, action.ActionName)
	if err != nil {
		h.logger.Error("Failed to check http action", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	if exists {
		respondError(c, models.NewAppError("Action exists!"))
		return
	}

	if err := h.actions.Add(c.Request.Context(), action); err != nil {
		h.logger.Error("Failed to add http action", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"action_name": action.ActionName}, "Http action added!")
}

// UpdateAction handles PUT /api/bot/:bot/actions/http. The stored action is
// replaced wholesale, params and headers included.
func (h *httpActionHandler) UpdateAction(c *gin.Context) {
	bot := c.GetString("bot")

	action := h.bindAction(c)
	if action == nil {
		return
	}

	if err := h.actions.Delete(c.Request.Context(), bot, action.ActionName); err != nil {
		respondError(c, err)
		return
	}
	if err := h.actions.Add(c.Request.Context(), action); err != nil {
		h.logger.Error("Failed to update http action", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"action_name": action.ActionName}, "Http action updated!")
}

// GetAction handles GET /api/bot/:bot/actions/http/:name.
func (h *httpActionHandler) GetAction(c *gin.Context) {
	bot := c.GetString("bot")
	name := c.Param("name")

	action, err := h.actions.Get(c.Request.Context(), bot, name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, action, "")
}

// ListActions handles GET /api/bot/:bot/actions/http.
func (h *httpActionHandler) ListActions(c *gin.Context) {
	bot := c.GetString("bot")
	actions, err := h.actions.List(c.Request.Context(), bot)
	if err != nil {
		h.logger.Error("Failed to list http actions", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, actions, "")
}

// DeleteAction handles DELETE /api/bot/:bot/actions/http/:name.
func (h *httpActionHandler) DeleteAction(c *gin.Context) {
	bot := c.GetString("bot")
	name := c.Param("name")

	if err := h.actions.Delete(c.Request.Context(), bot, name); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Http action deleted!")
}
