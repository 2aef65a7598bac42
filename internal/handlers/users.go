package handlers

import (
	"patient-intake-server/internal/auth"
	"patient-intake-server/internal/middleware"
	"patient-intake-server/internal/models"
	"patient-intake-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// UserHandler handles staff account administration (admin only).
type UserHandler struct {
	svc *auth.Service
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *auth.Service) *UserHandler {
	return &UserHandler{svc: svc}
}

// CreateUser creates an account on behalf of an admin, optionally as admin.
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req auth.CreateUserInput
	if !utils.BindAndValidate(c, &req) {
		return
	}
	user, err := h.svc.CreateUser(c.Request.Context(), req)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Created(c, "User created successfully", user.Sanitize())
}

// GetUsers lists every staff account.
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		utils.FromError(c, err)
		return
	}

	sanitizedUsers := make([]models.UserSanitized, len(users))
	for i := range users {
		sanitizedUsers[i] = users[i].Sanitize()
	}
	utils.Success(c, "Users fetched successfully", sanitizedUsers)
}

// GetUserByID fetches one staff account.
func (h *UserHandler) GetUserByID(c *gin.Context) {
	user, err := h.svc.CurrentUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "User fetched successfully", user.Sanitize())
}

// UpdateUser edits name, email or role of a staff account.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req auth.UpdateUserInput
	if !utils.BindAndValidate(c, &req) {
		return
	}
	user, err := h.svc.UpdateUser(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "User updated successfully", user.Sanitize())
}

// DeleteUser removes a staff account. Admins cannot delete themselves.
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID := c.Param("id")
	if self, _ := middleware.GetUserIDFromContext(c); self == userID {
		utils.BadRequest(c, "You cannot delete your own account")
		return
	}
	if err := h.svc.DeleteUser(c.Request.Context(), userID); err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "User deleted successfully", nil)
}
