package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/oksasatya/medtracker/internal/application"
	"github.com/oksasatya/medtracker/internal/interface/middleware"
	"github.com/oksasatya/medtracker/pkg/response"
	"github.com/oksasatya/medtracker/pkg/validation"
)

type HealthHandler struct {
	Svc     *app.HealthService
	Reports *app.ReportService
	Logger  *logrus.Logger
}

func NewHealthHandler(svc *app.HealthService, reports *app.ReportService, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{Svc: svc, Reports: reports, Logger: logger}
}

// Numbers may arrive as JSON numbers or numeric strings.
type measurementRequest struct {
	Height      *validation.Number `json:"height" binding:"required,gt=0"`
	Weight      *validation.Number `json:"weight" binding:"required,gt=0"`
	SystolicBP  *validation.Number `json:"blood_pressure_systolic" binding:"required"`
	DiastolicBP *validation.Number `json:"blood_pressure_diastolic" binding:"required"`
	BloodSugar  *validation.Number `json:"blood_sugar" binding:"required"`
	HeartRate   *validation.Number `json:"heart_rate" binding:"required"`
	Cholesterol *validation.Number `json:"cholesterol" binding:"required"`

	Hemoglobin    *validation.Number `json:"hemoglobin"`
	RBCCount      *validation.Number `json:"rbc_count"`
	WBCCount      *validation.Number `json:"wbc_count"`
	PlateletCount *validation.Number `json:"platelet_count"`
}

func (r measurementRequest) input() app.MeasurementInput {
	return app.MeasurementInput{
		Height:        r.Height.Float(),
		Weight:        r.Weight.Float(),
		SystolicBP:    r.SystolicBP.Float(),
		DiastolicBP:   r.DiastolicBP.Float(),
		BloodSugar:    r.BloodSugar.Float(),
		HeartRate:     r.HeartRate.Float(),
		Cholesterol:   r.Cholesterol.Float(),
		Hemoglobin:    validation.OptFloat(r.Hemoglobin),
		RBCCount:      validation.OptFloat(r.RBCCount),
		WBCCount:      validation.OptFloat(r.WBCCount),
		PlateletCount: validation.OptFloat(r.PlateletCount),
	}
}

func (h *HealthHandler) List(c *gin.Context) {
	views, err := h.Svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err, "error fetching health data")
		return
	}
	response.Success(c, http.StatusOK, toRecordViews(views), "health data", nil)
}

// Record creates today's record (201) or updates it in place (200).
func (h *HealthHandler) Record(c *gin.Context) {
	var req measurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := middleware.UserID(c)
	rec, created, err := h.Svc.RecordMeasurement(c.Request.Context(), uid, req.input())
	if err != nil {
		writeError(c, h.Logger, err, "error adding health data")
		return
	}
	_, rv, err := h.Svc.Get(c.Request.Context(), uid, rec.ID)
	if err != nil {
		writeError(c, h.Logger, err, "error adding health data")
		return
	}
	view := toRecordView(rv.Record, rv.Assessments)
	if created {
		response.Success(c, http.StatusCreated, view, "health data recorded", nil)
		return
	}
	response.Success(c, http.StatusOK, view, "health data updated for today", nil)
}

func (h *HealthHandler) Delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		writeError(c, h.Logger, err, "error deleting health data")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "health data deleted successfully", nil)
}

// Trend responds with null data when fewer than two records exist.
func (h *HealthHandler) Trend(c *gin.Context) {
	report, err := h.Svc.Trend(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err, "error computing trend")
		return
	}
	msg := "trend"
	if report == nil {
		msg = "at least two records are needed for a trend"
	}
	response.Success(c, http.StatusOK, report, msg, nil)
}

func (h *HealthHandler) TrendChart(c *gin.Context) {
	f, err := h.Reports.TrendChart(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeError(c, h.Logger, err, "error rendering chart")
		return
	}
	c.Data(http.StatusOK, f.ContentType, f.Data)
}

func (h *HealthHandler) Report(c *gin.Context) {
	f, err := h.Reports.RecordPDF(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err, "error rendering report")
		return
	}
	sendFile(c, f)
}

func (h *HealthHandler) ArchiveReport(c *gin.Context) {
	url, err := h.Reports.ArchiveRecordPDF(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err, "error archiving report")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"url": url}, "report archived", nil)
}

func sendFile(c *gin.Context, f *app.File) {
	c.Header("Content-Disposition", `attachment; filename="`+f.Name+`"`)
	c.Data(http.StatusOK, f.ContentType, f.Data)
}
