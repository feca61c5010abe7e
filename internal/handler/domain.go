package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"botstudio/internal/format"
	"botstudio/internal/importer"
	"botstudio/internal/models"
	"botstudio/internal/repository"
)

type DomainHandler interface {
	GetDomain(c *gin.Context)
	GetConfig(c *gin.Context)
	SaveConfig(c *gin.Context)
}

type domainHandler struct {
	domain repository.DomainRepository
	logger *zap.Logger
}

func NewDomainHandler(domain repository.DomainRepository, logger *zap.Logger) DomainHandler {
	return &domainHandler{domain: domain, logger: logger}
}

// GetDomain handles GET /api/bot/:bot/domain, the aggregate of
// everything the bot declares.
func (h *domainHandler) GetDomain(c *gin.Context) {
	bot := c.GetString("bot")
	domain, err := h.domain.GetDomain(c.Request.Context(), bot)
	if err != nil {
		h.logger.Error("Failed to assemble domain", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, domain, "")
}

// GetConfig handles GET /api/bot/:bot/config.
func (h *domainHandler) GetConfig(c *gin.Context) {
	bot := c.GetString("bot")
	raw, err := h.domain.GetConfig(c.Request.Context(), bot)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"config": string(raw)}, "")
}

type ConfigRequest struct {
	Config string `json:"config" binding:"required"`
}

// SaveConfig handles PUT /api/bot/:bot/config. The document passes the
// same component and policy checks the import pipeline applies.
func (h *domainHandler) SaveConfig(c *gin.Context) {
	bot := c.GetString("bot")
	user := c.GetString("username")

	var req ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err.Error())
		return
	}

	bundle, err := format.ReadBundle(map[string][]byte{"config.yml": []byte(req.Config)})
	if err != nil {
		respondError(c, err)
		return
	}
	summary := importer.Validate(bundle, nil, true)
	if len(summary.Config.Data) > 0 {
		respondError(c, models.NewAppError(summary.Config.Data[0]))
		return
	}

	if err := h.domain.SaveConfig(c.Request.Context(), bot, user, bundle.Config.Raw); err != nil {
		h.logger.Error("Failed to save config", zap.String("bot", bot), zap.Error(err))
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Config saved!")
}
