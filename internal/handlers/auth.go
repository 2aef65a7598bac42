package handlers

import (
	"errors"

	"patient-intake-server/internal/auth"
	"patient-intake-server/internal/config"
	"patient-intake-server/internal/middleware"
	"patient-intake-server/internal/utils"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

// AuthHandler handles staff authentication requests.
type AuthHandler struct {
	svc *auth.Service
	cfg *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *auth.Service, cfg *config.Config) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

// SignInRequest represents the request body for sign-in.
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest carries a refresh token when no cookie is sent.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// SignUp handles staff registration.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req auth.SignUpInput
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Created(c, "User registered successfully", user.Sanitize())
}

// SignIn checks credentials and returns a token pair.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	session, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.authError(c, err)
		return
	}
	h.setRefreshCookie(c, session.RefreshToken)
	utils.Success(c, "Login successful", session)
}

// SignOut revokes the caller's refresh token and clears the cookie.
func (h *AuthHandler) SignOut(c *gin.Context) {
	token := h.refreshToken(c)
	if token == "" {
		utils.BadRequest(c, "Refresh token is required")
		return
	}
	if err := h.svc.SignOut(c.Request.Context(), token); err != nil {
		utils.FromError(c, err)
		return
	}
	c.SetCookie(refreshCookie, "", -1, "/", "", h.cfg.Environment != "development", true)
	utils.Success(c, "Logout successful", nil)
}

// Me returns the signed-in user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	user, err := h.svc.CurrentUser(c.Request.Context(), userID)
	if err != nil {
		utils.FromError(c, err)
		return
	}
	utils.Success(c, "Profile fetched successfully", user.Sanitize())
}

// Session renews the session behind a refresh token.
func (h *AuthHandler) Session(c *gin.Context) {
	token := h.refreshToken(c)
	if token == "" {
		utils.Unauthorized(c, "No active session")
		return
	}
	session, err := h.svc.Session(c.Request.Context(), token)
	if err != nil {
		h.authError(c, err)
		return
	}
	h.setRefreshCookie(c, session.RefreshToken)
	utils.Success(c, "Session refreshed", session)
}

// refreshToken reads the cookie first and falls back to the JSON body.
func (h *AuthHandler) refreshToken(c *gin.Context) string {
	if token, err := c.Cookie(refreshCookie); err == nil && token != "" {
		return token
	}
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return ""
	}
	return req.RefreshToken
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(
		refreshCookie,
		token,
		h.cfg.JWTRefreshExpirationHours*60*60,
		"/",
		"",
		h.cfg.Environment != "development",
		true,
	)
}

func (h *AuthHandler) authError(c *gin.Context, err error) {
	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrInvalidSession) {
		utils.Unauthorized(c, err.Error())
		return
	}
	utils.FromError(c, err)
}
