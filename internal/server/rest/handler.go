package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/onboarding/internal/common"
	"github.com/dmitrijs2005/onboarding/internal/server/auth"
	"github.com/dmitrijs2005/onboarding/internal/server/models"
	"github.com/dmitrijs2005/onboarding/internal/server/services"
	"github.com/gin-gonic/gin"
)

// refreshCookiePath scopes the refresh cookie to the session endpoints.
const refreshCookiePath = "/api/users"

type signUpRequest struct {
	Name              string        `json:"name" binding:"required"`
	Email             string        `json:"email" binding:"required,email"`
	Password          string        `json:"password" binding:"required"`
	Role              models.Role   `json:"role"`
	Team              string        `json:"team"`
	Phone             string        `json:"phone"`
	Status            models.Status `json:"status"`
	PreferredLanguage string        `json:"preferredLanguage"`
	StartDate         *time.Time    `json:"startDate"`
}

// loginRequest carries no binding rules: missing credentials are rejected
// by the service as invalid credentials.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) signUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, bindError(err))
		return
	}

	user, err := s.users.SignUp(c.Request.Context(), services.SignUpInput{
		Name:              req.Name,
		Email:             req.Email,
		Password:          req.Password,
		Role:              req.Role,
		Team:              req.Team,
		Phone:             req.Phone,
		Status:            req.Status,
		PreferredLanguage: req.PreferredLanguage,
		StartDate:         req.StartDate,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (s *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, bindError(err))
		return
	}

	pair, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	s.setRefreshCookie(c, pair.RefreshToken, int(s.cookie.MaxAge.Seconds()))
	c.JSON(http.StatusOK, tokenResponse{AccessToken: pair.AccessToken})
}

func (s *HTTPServer) refresh(c *gin.Context) {
	token, err := c.Cookie(common.RefreshTokenCookieName)
	if err != nil || token == "" {
		s.writeError(c, common.ErrUnauthenticated)
		return
	}

	access, err := s.users.Refresh(c.Request.Context(), token)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponse{AccessToken: access})
}

func (s *HTTPServer) logout(c *gin.Context) {
	if token, err := c.Cookie(common.RefreshTokenCookieName); err == nil {
		if err := s.users.Logout(c.Request.Context(), token); err != nil {
			s.logger.Warn(c.Request.Context(), "refresh token not revoked", "error", err)
		}
	}

	s.setRefreshCookie(c, "", -1)
	c.JSON(http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *HTTPServer) listUsers(c *gin.Context) {
	users, err := s.users.ListUsers(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *HTTPServer) getUser(c *gin.Context) {
	user, err := s.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *HTTPServer) getProfile(c *gin.Context) {
	id, ok := s.identity(c)
	if !ok {
		return
	}

	user, err := s.users.GetUser(c.Request.Context(), id.UserID())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *HTTPServer) updateProfile(c *gin.Context) {
	id, ok := s.identity(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, bindError(err))
		return
	}

	user, err := s.users.UpdateProfile(c.Request.Context(), id, req.Name, req.Phone)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *HTTPServer) changePassword(c *gin.Context) {
	id, ok := s.identity(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, bindError(err))
		return
	}

	if err := s.users.ChangePassword(c.Request.Context(), id, req.CurrentPassword, req.NewPassword); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "password updated"})
}

func (s *HTTPServer) identity(c *gin.Context) (auth.VerifiedIdentity, bool) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		s.writeError(c, common.ErrMissingVerifiedIdentity)
	}
	return id, ok
}

func (s *HTTPServer) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(common.RefreshTokenCookieName, value, maxAge, refreshCookiePath, "", s.cookie.Secure, true)
}
