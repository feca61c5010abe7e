package handler

import (
	"errors"
	"net/http"

	"botstudio/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuthHandler interface {
	Register(c *gin.Context)
	Login(c *gin.Context)
	CreateBot(c *gin.Context)
	ListBots(c *gin.Context)
}

type authHandler struct {
	authService service.AuthService
	log         *logrus.Logger
}

func NewAuthHandler(authService service.AuthService, log *logrus.Logger) AuthHandler {
	return &authHandler{authService: authService, log: log}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *authHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorf("Failed to bind JSON for registration: %v", err)
		respondInvalid(c, err.Error())
		return
	}

	user, err := h.authService.Register(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, Envelope{Message: err.Error(), ErrorCode: http.StatusConflict})
			return
		}
		h.log.Errorf("Failed to register user: %v", err)
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"username": user.Username, "account": user.Account}, "User registered successfully")
}

func (h *authHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Errorf("Failed to bind JSON for login: %v", err)
		respondInvalid(c, err.Error())
		return
	}

	tokenString, expirationTime, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, Envelope{Message: "Invalid credentials", ErrorCode: http.StatusUnauthorized})
			return
		}
		h.log.Errorf("Failed to login user: %v", err)
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"access_token": tokenString,
		"token_type":   "bearer",
		"expires_at":   expirationTime,
	}, "Login successful")
}

type CreateBotRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *authHandler) CreateBot(c *gin.Context) {
	var req CreateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, err.Error())
		return
	}

	account := c.GetString("account")
	username := c.GetString("username")
	bot, err := h.authService.CreateBot(c.Request.Context(), req.Name, account, username)
	if err != nil {
		h.log.Errorf("Failed to create bot: %v", err)
		respondError(c, err)
		return
	}

	respondOK(c, bot, "Bot created")
}

func (h *authHandler) ListBots(c *gin.Context) {
	account := c.GetString("account")
	bots, err := h.authService.ListBots(c.Request.Context(), account)
	if err != nil {
		h.log.Errorf("Failed to list bots: %v", err)
		respondError(c, err)
		return
	}

	respondOK(c, bots, "")
}
