package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"immitrack/internal/models"
	"immitrack/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// @Summary      Log in
// @Description  Checks a configured account and returns a bearer token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "credentials"
// @Success      200    {object}  services.LoginResult
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	if !h.authService.Enabled() {
		c.JSON(http.StatusNotFound, gin.H{"error": "authentication is disabled"})
		return
	}
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("[auth][login] bad request: bind json failed: err=%v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	name := strings.TrimSpace(req.Name)
	log.Printf("[auth][login] attempt name=%q", name)

	res, err := h.authService.Login(name, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCredentials) {
			log.Printf("[auth][login] rejected name=%q", name)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid name or password"})
			return
		}
		log.Printf("[auth][login][err] name=%q: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	log.Printf("[auth][login][ok] person=%q role=%q", res.Person, res.Role)
	c.JSON(http.StatusOK, res)
}
