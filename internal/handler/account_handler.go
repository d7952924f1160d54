package handler

import (
	"errors"
	"net/http"
	"strconv"

	"account_service/internal/middleware"
	"account_service/internal/model"
	"account_service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Error codes returned in the "error" field of failure responses
const (
	CodeInvalidRequest         = "invalid_request"
	CodeUnauthorized           = "unauthorized"
	CodeInvalidCredentials     = "invalid_credentials"
	CodeAdminPrivilegeRequired = "admin_privilege_required"
	CodeUsernameTaken          = "username_taken"
	CodeNotFound               = "not_found"
	CodeServerError            = "server_error"
)

// AccountHandler handles account and authentication requests
type AccountHandler struct {
	service service.AccountService
	log     logrus.FieldLogger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(s service.AccountService, log logrus.FieldLogger) *AccountHandler {
	return &AccountHandler{service: s, log: log}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	// A broken body is reported only after the caller's token has been checked
	bindErr := c.ShouldBindJSON(&req)
	if bindErr != nil {
		req = registerRequest{}
	}

	user, err := h.service.Register(c.Request.Context(), middleware.BearerToken(c), service.RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		var verr *service.ValidationError
		if bindErr != nil && errors.As(err, &verr) {
			h.invalidRequest(c, bindErr)
			return
		}
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"msg":  "user created",
		"user": user,
	})
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.invalidRequest(c, err)
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"token_type": "bearer",
		"expires_at": result.ExpiresAt.UTC(),
		"user":       result.User,
	})
}

func (h *AccountHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context(), middleware.BearerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *AccountHandler) DeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		// No account can match, the service still authorizes the caller first
		id = 0
	}

	if err := h.service.DeleteUser(c.Request.Context(), middleware.BearerToken(c), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "user deleted"})
}

func (h *AccountHandler) invalidRequest(c *gin.Context, err error) {
	h.log.WithFields(logrus.Fields{
		"request_id": middleware.RequestIDFrom(c.Request.Context()),
		"error":      err.Error(),
	}).Warn("invalid request body")
	c.JSON(http.StatusBadRequest, gin.H{"msg": "request body must be a JSON object", "error": CodeInvalidRequest})
}

// writeError maps service errors to HTTP responses. Unknown errors are logged
// and answered with a generic 500 so storage details never reach the client.
func (h *AccountHandler) writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		body := gin.H{"msg": verr.Message, "error": verr.Code}
		if verr.Code == service.CodeMissingFields {
			body["missing_fields"] = verr.Fields
		} else {
			body["fields"] = verr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "missing, invalid or expired token", "error": CodeUnauthorized})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"msg":           "access denied",
			"error":         CodeAdminPrivilegeRequired,
			"required_role": model.RoleAdmin,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid credentials", "error": CodeInvalidCredentials})
	case errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"msg": "username unavailable", "error": CodeUsernameTaken})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"msg": "user not found", "error": CodeNotFound})
	default:
		h.log.WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFrom(c.Request.Context()),
			"path":       c.FullPath(),
			"error":      err.Error(),
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"msg": "internal server error", "error": CodeServerError})
	}
}

// RegisterRoutes registers account routes
func (h *AccountHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/users", h.ListUsers)
	r.DELETE("/users/:id", h.DeleteUser)
}
