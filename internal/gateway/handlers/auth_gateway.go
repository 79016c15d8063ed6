package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tavolo-pos/internal/user"
)

type AuthHTTPHandler struct {
	users *user.Service
}

func NewAuthHTTPHandler(users *user.Service) *AuthHTTPHandler {
	return &AuthHTTPHandler{users: users}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Firstname string `json:"firstname" binding:"required"`
	Lastname  string `json:"lastname" binding:"required"`
	RoleID    int32  `json:"role_id" binding:"required"`
}

func (h *AuthHTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	result, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, errorResponse("Invalid username or password"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse("Authentication service error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("login successful", map[string]interface{}{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user": map[string]interface{}{
			"id":        result.User.ID,
			"username":  result.User.Username,
			"email":     result.User.Email,
			"firstname": result.User.Firstname,
			"lastname":  result.User.Lastname,
			"role":      result.User.Role.RoleName,
		},
	}))
}

func (h *AuthHTTPHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	result, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Firstname, req.Lastname, req.RoleID)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserExists):
			c.JSON(http.StatusConflict, errorResponse("Username or email already exists"))
		case errors.Is(err, user.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, errorResponse("Invalid role specified"))
		default:
			c.JSON(http.StatusInternalServerError, errorResponse("User service error"))
		}
		return
	}

	c.JSON(http.StatusCreated, successResponse("user registered successfully", map[string]interface{}{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"user": map[string]interface{}{
			"id":       result.User.ID,
			"username": result.User.Username,
			"email":    result.User.Email,
		},
	}))
}
