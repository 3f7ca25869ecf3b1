package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/medtracker/internal/application"
	"github.com/oksasatya/medtracker/internal/domain/health"
	"github.com/oksasatya/medtracker/internal/interface/middleware"
	"github.com/oksasatya/medtracker/pkg/response"
	"github.com/oksasatya/medtracker/pkg/validation"
)

type UserHandler struct {
	Svc    *app.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *app.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	FirstName   string `json:"first_name" binding:"required,max=100"`
	MiddleName  string `json:"middle_name" binding:"omitempty,max=100"`
	LastName    string `json:"last_name" binding:"required,max=100"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,strongpwd"`
	Address     string `json:"address" binding:"omitempty,max=255"`
	Gender      string `json:"gender" binding:"omitempty,gender"`
	DateOfBirth string `json:"date_of_birth" binding:"omitempty,isodate"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type updateProfileRequest struct {
	FirstName   *string `json:"first_name" binding:"omitempty,min=1,max=100"`
	MiddleName  *string `json:"middle_name" binding:"omitempty,max=100"`
	LastName    *string `json:"last_name" binding:"omitempty,min=1,max=100"`
	Address     *string `json:"address" binding:"omitempty,max=255"`
	DateOfBirth *string `json:"date_of_birth" binding:"omitempty,isodate"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,strongpwd"`
}

// parseDate reads an already validated YYYY-MM-DD string.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(health.DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Register(c.Request.Context(), app.RegisterInput{
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		Email:       req.Email,
		Password:    req.Password,
		Address:     req.Address,
		Gender:      req.Gender,
		DateOfBirth: parseDate(req.DateOfBirth),
	})
	if err != nil {
		writeError(c, h.Logger, err, "error registering user")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user_id": u.ID}, "user registered successfully", nil)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	sess, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err, "error logging in")
		return
	}
	response.Success(c, http.StatusOK, sessionView{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: toUserView(sess.User, time.Now())}, "login successful", nil)
}

// AdminLogin issues a token only to active admin accounts.
func (h *UserHandler) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	sess, err := h.Svc.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.Logger, err, "error logging in")
		return
	}
	response.Success(c, http.StatusOK, sessionView{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: toUserView(sess.User, time.Now())}, "admin login successful", nil)
}

func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.Svc.Logout(c.Request.Context(), middleware.UserID(c)); err != nil {
		writeError(c, h.Logger, err, "error logging out")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// GetProfile also serves /users/details.
func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.GetProfile(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err, "error fetching profile")
		return
	}
	response.Success(c, http.StatusOK, toUserView(u, time.Now()), "profile", nil)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	in := app.UpdateProfileInput{
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Address:    req.Address,
	}
	if req.DateOfBirth != nil {
		in.DateOfBirth = parseDate(*req.DateOfBirth)
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		writeError(c, h.Logger, err, "error updating profile")
		return
	}
	response.Success(c, http.StatusOK, toUserView(u, time.Now()), "profile updated successfully", nil)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		writeError(c, h.Logger, err, "error updating password")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "password updated successfully", nil)
}

// Deactivate is the self-service account deletion. Records are kept.
func (h *UserHandler) Deactivate(c *gin.Context) {
	if err := h.Svc.Deactivate(c.Request.Context(), middleware.UserID(c)); err != nil {
		writeError(c, h.Logger, err, "error deactivating account")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deactivated": true}, "account deactivated successfully", nil)
}
