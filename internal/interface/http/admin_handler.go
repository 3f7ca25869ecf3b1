package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/medtracker/internal/application"
	"github.com/oksasatya/medtracker/pkg/response"
)

type AdminHandler struct {
	Svc     *app.AdminService
	Reports *app.ReportService
	Logger  *logrus.Logger
}

func NewAdminHandler(svc *app.AdminService, reports *app.ReportService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Reports: reports, Logger: logger}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, h.Logger, err, "error fetching users")
		return
	}
	response.Success(c, http.StatusOK, toUserViews(users, time.Now()), "users", map[string]any{"count": len(users)})
}

func (h *AdminHandler) SearchUsers(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err, "error searching users")
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}

type userHealthView struct {
	User       userView     `json:"user"`
	HealthData []recordView `json:"health_data"`
}

func (h *AdminHandler) UserHealth(c *gin.Context) {
	u, views, err := h.Svc.UserHealth(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, h.Logger, err, "error fetching health data")
		return
	}
	response.Success(c, http.StatusOK, userHealthView{User: toUserView(u, time.Now()), HealthData: toRecordViews(views)}, "user health data", nil)
}

func (h *AdminHandler) ExportUserHealth(c *gin.Context) {
	f, err := h.Reports.ExportUserXLSX(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, h.Logger, err, "error exporting health data")
		return
	}
	sendFile(c, f)
}

func (h *AdminHandler) RecordReport(c *gin.Context) {
	f, err := h.Reports.UserRecordPDF(c.Request.Context(), c.Param("userId"), c.Param("recordId"))
	if err != nil {
		writeError(c, h.Logger, err, "error rendering report")
		return
	}
	sendFile(c, f)
}

// DeactivateUser backs DELETE /admin/users/:userId. Records are kept.
func (h *AdminHandler) DeactivateUser(c *gin.Context) {
	if err := h.Svc.DeactivateUser(c.Request.Context(), c.Param("userId")); err != nil {
		writeError(c, h.Logger, err, "error deactivating user")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deactivated": true}, "user account has been deactivated successfully", nil)
}

func (h *AdminHandler) DeleteRecord(c *gin.Context) {
	if err := h.Svc.DeleteRecord(c.Request.Context(), c.Param("userId"), c.Param("recordId")); err != nil {
		writeError(c, h.Logger, err, "error deleting health record")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "health record deleted successfully", nil)
}
