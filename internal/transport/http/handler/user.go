package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/goosetrack/goosetrack-api/internal/domain"
	"github.com/goosetrack/goosetrack-api/internal/transport/http/middleware"
)

type userUsecaser interface {
	Current(user *domain.User) domain.Profile
	Update(ctx context.Context, userID string, upd domain.ProfileUpdate) (*domain.Profile, error)
	UpdatePassword(ctx context.Context, user *domain.User, oldPassword, newPassword string) error
	Remove(ctx context.Context, user *domain.User, secretKey string) error
}

type UserHandler struct {
	userUsecase userUsecaser
}

func NewUserHandler(userUsecase userUsecaser) *UserHandler {
	return &UserHandler{userUsecase: userUsecase}
}

type updateProfileRequest struct {
	Email    string  `json:"email"    binding:"required,emailx"`
	Username *string `json:"username" binding:"omitempty,min=1"`
	Avatar   *string `json:"avatar"   binding:"omitempty,max=2048"`
	Birthday *string `json:"birthday" binding:"omitempty,max=32"`
	Skype    *string `json:"skype"    binding:"omitempty,max=64"`
	Phone    *string `json:"phone"    binding:"omitempty,max=32"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required,min=6"`
	NewPassword string `json:"newPassword" binding:"required,min=6,max=72"`
}

type removeRequest struct {
	SecretKey string `json:"secretKey" binding:"required"`
}

// GET /api/users/current
func (h *UserHandler) Current(c *gin.Context) {
	respond(c, http.StatusOK, h.userUsecase.Current(middleware.CurrentUser(c)))
}

// PATCH /api/users/edit
func (h *UserHandler) Update(c *gin.Context) {
	var req updateProfileRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	profile, err := h.userUsecase.Update(c.Request.Context(), c.GetString(middleware.UserIDKey), domain.ProfileUpdate{
		Email:    req.Email,
		Username: req.Username,
		Avatar:   req.Avatar,
		Birthday: req.Birthday,
		Skype:    req.Skype,
		Phone:    req.Phone,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, profile)
}

// PATCH /api/users/edit/password
func (h *UserHandler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	err := h.userUsecase.UpdatePassword(c.Request.Context(), middleware.CurrentUser(c), req.OldPassword, req.NewPassword)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respondMessage(c, http.StatusOK, "Password changed successfully")
}

// DELETE /api/users/remove
func (h *UserHandler) Remove(c *gin.Context) {
	var req removeRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.userUsecase.Remove(c.Request.Context(), middleware.CurrentUser(c), req.SecretKey); err != nil {
		_ = c.Error(err)
		return
	}
	respondMessage(c, http.StatusOK, "Account successfully deleted.")
}
