package application

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/medtracker/internal/domain/entity"
	"github.com/oksasatya/medtracker/internal/domain/health"
	"github.com/oksasatya/medtracker/pkg/report"
)

// ObjectStore uploads a blob and returns where it can be fetched.
// *helpers.GCSStore implements it.
type ObjectStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

type ReportService struct {
	Health  *HealthService
	Admin   *AdminService
	Store   ObjectStore
	AppName string
	Logger  *logrus.Logger
}

func NewReportService(h *HealthService, admin *AdminService, store ObjectStore, appName string, logger *logrus.Logger) *ReportService {
	return &ReportService{Health: h, Admin: admin, Store: store, AppName: appName, Logger: logger}
}

// File is a rendered download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeHTML = "text/html; charset=utf-8"
)

// RecordPDF renders one record owned by the live user userID.
func (s *ReportService) RecordPDF(ctx context.Context, userID, recordID string) (*File, error) {
	u, view, err := s.Health.Get(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	return s.renderPDF(u, view)
}

// UserRecordPDF renders a record of any user, active or not, for admins.
func (s *ReportService) UserRecordPDF(ctx context.Context, userID, recordID string) (*File, error) {
	u, view, err := s.Admin.UserRecord(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	return s.renderPDF(u, view)
}

func (s *ReportService) renderPDF(u *entity.User, view *RecordView) (*File, error) {
	var buf bytes.Buffer
	if err := report.WritePDF(&buf, s.recordDoc(u, view)); err != nil {
		return nil, err
	}
	return &File{
		Name:        fmt.Sprintf("medical-record-%s.pdf", view.Record.RecordDate.Format(health.DateLayout)),
		ContentType: contentTypePDF,
		Data:        buf.Bytes(),
	}, nil
}

// ArchiveRecordPDF uploads the record PDF to object storage and returns its URL.
func (s *ReportService) ArchiveRecordPDF(ctx context.Context, userID, recordID string) (string, error) {
	if s.Store == nil {
		return "", fmt.Errorf("%w: report archive", ErrUnavailable)
	}
	f, err := s.RecordPDF(ctx, userID, recordID)
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("reports/%s/%s-%s.pdf", userID, recordID, uuid.NewString()[:8])
	url, err := s.Store.Upload(ctx, path, f.ContentType, bytes.NewReader(f.Data))
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("path", path).Error("archive upload failed")
		}
		return "", persistence(err)
	}
	return url, nil
}

func (s *ReportService) recordDoc(u *entity.User, view *RecordView) report.RecordDoc {
	p := report.Patient{
		Name:    u.FullName(),
		Email:   u.Email,
		Address: u.Address,
		Gender:  u.Gender,
	}
	if u.DateOfBirth != nil {
		p.DateOfBirth = u.DateOfBirth.Format("January 2, 2006")
		if age, err := health.AgeInYears(*u.DateOfBirth, s.Health.localNow()); err == nil {
			p.Age = &age
		}
	}

	r := view.Record
	rows := make([]report.Row, 0, len(view.Assessments)+2)
	for _, a := range view.Assessments {
		rows = append(rows, report.Row{
			Measurement: a.Metric.Label(),
			Value:       FormatAssessment(a),
			Status:      a.Category.Label,
			Color:       a.Category.Color,
		})
	}
	rows = append(rows,
		report.Row{Measurement: health.MetricHeight.Label(), Value: num(r.Height) + " cm"},
		report.Row{Measurement: health.MetricWeight.Label(), Value: num(r.Weight) + " kg"},
	)

	notes := []string{"Categories use age and gender adjusted reference bands and are not a diagnosis."}
	if u.DateOfBirth == nil {
		notes = append(notes, "No date of birth on file; adult reference bands were used.")
	}
	return report.RecordDoc{
		Title:   "Medical Record",
		Date:    r.RecordDate,
		Patient: p,
		Rows:    rows,
		Notes:   notes,
		Footer:  fmt.Sprintf("Generated by %s on %s", s.AppName, s.Health.now().UTC().Format(time.RFC1123)),
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// ExportUserXLSX writes every live record of a user into a workbook, with a
// second sheet holding the classifications.
func (s *ReportService) ExportUserXLSX(ctx context.Context, userID string) (*File, error) {
	u, views, err := s.Admin.UserHealth(ctx, userID)
	if err != nil {
		return nil, err
	}

	records := report.Sheet{
		Name: "Records",
		Header: []string{"Date", "Height (cm)", "Weight (kg)", "BMI", "Systolic", "Diastolic", "Blood Sugar",
			"Heart Rate", "Cholesterol", "Hemoglobin", "RBC", "WBC", "Platelets"},
		Widths: []float64{14, 12, 12, 10, 10, 10, 12, 12, 12, 12, 10, 10, 12},
	}
	categories := report.Sheet{
		Name:   "Classifications",
		Header: []string{"Date", "Metric", "Value", "Category", "Tier"},
		Widths: []float64{14, 18, 20, 16, 10},
	}
	for _, v := range views {
		r := v.Record
		day := r.RecordDate.Format(health.DateLayout)
		records.Rows = append(records.Rows, []any{
			day, r.Height, r.Weight, r.BMI, r.SystolicBP, r.DiastolicBP, r.BloodSugar, r.HeartRate, r.Cholesterol,
			optional(r.Hemoglobin), optional(r.RBCCount), optional(r.WBCCount), optional(r.PlateletCount),
		})
		for _, a := range v.Assessments {
			categories.Rows = append(categories.Rows, []any{
				day, a.Metric.Label(), FormatAssessment(a), a.Category.Label, a.Category.Tier.String(),
			})
		}
	}

	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, records, categories); err != nil {
		return nil, err
	}
	return &File{
		Name:        fmt.Sprintf("health-records-%s.xlsx", u.ID),
		ContentType: contentTypeXLSX,
		Data:        buf.Bytes(),
	}, nil
}

// chartMetrics are plotted on the trend chart, in legend order.
var chartMetrics = []health.Metric{
	health.MetricBMI, health.MetricBloodPressure, health.MetricHeartRate,
	health.MetricBloodSugar, health.MetricCholesterol, health.MetricWeight,
}

// TrendChart renders the user's history, oldest first, as an HTML chart.
func (s *ReportService) TrendChart(ctx context.Context, userID string) (*File, error) {
	views, err := s.Health.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	days := make([]string, len(views))
	values := make(map[health.Metric][]*float64, len(chartMetrics))
	for i := range views {
		r := views[len(views)-1-i].Record
		days[i] = r.RecordDate.Format(health.DateLayout)
		for _, m := range chartMetrics {
			values[m] = append(values[m], chartValue(r, m))
		}
	}
	series := make([]report.Series, 0, len(chartMetrics))
	for _, m := range chartMetrics {
		series = append(series, report.Series{Name: m.Label(), Values: values[m]})
	}

	var buf bytes.Buffer
	if err := report.WriteLineChart(&buf, "Health trend", days, series); err != nil {
		return nil, err
	}
	return &File{Name: "trend.html", ContentType: contentTypeHTML, Data: buf.Bytes()}, nil
}

func chartValue(r entity.HealthRecord, m health.Metric) *float64 {
	var v float64
	switch m {
	case health.MetricBMI:
		v = r.BMI
	case health.MetricBloodPressure:
		v = r.SystolicBP
	case health.MetricHeartRate:
		v = r.HeartRate
	case health.MetricBloodSugar:
		v = r.BloodSugar
	case health.MetricCholesterol:
		v = r.Cholesterol
	case health.MetricWeight:
		v = r.Weight
	default:
		return nil
	}
	return &v
}
