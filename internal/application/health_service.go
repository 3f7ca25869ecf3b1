package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/medtracker/config"
	"github.com/oksasatya/medtracker/internal/domain/entity"
	"github.com/oksasatya/medtracker/internal/domain/health"
	repo "github.com/oksasatya/medtracker/internal/domain/repository"
	"github.com/oksasatya/medtracker/pkg/mailer"
	mailtpl "github.com/oksasatya/medtracker/pkg/mailer/templates"
)

type HealthService struct {
	Records  repo.HealthRecordRepository
	Users    repo.UserRepository
	Logger   *logrus.Logger
	Mail     Publisher
	Config   *config.Config
	Location *time.Location
	Now      func() time.Time
}

func NewHealthService(records repo.HealthRecordRepository, users repo.UserRepository, logger *logrus.Logger, mail Publisher, cfg *config.Config, loc *time.Location) *HealthService {
	if loc == nil {
		loc = time.UTC
	}
	return &HealthService{
		Records:  records,
		Users:    users,
		Logger:   logger,
		Mail:     mail,
		Config:   cfg,
		Location: loc,
		Now:      time.Now,
	}
}

// MeasurementInput is one submission of vital signs. BMI is never part of
// the input.
type MeasurementInput struct {
	Height      float64
	Weight      float64
	SystolicBP  float64
	DiastolicBP float64
	BloodSugar  float64
	HeartRate   float64
	Cholesterol float64

	Hemoglobin    *float64
	RBCCount      *float64
	WBCCount      *float64
	PlateletCount *float64
}

// RecordView is a record with its classified metrics.
type RecordView struct {
	Record      entity.HealthRecord
	Assessments []health.Assessment
}

func (s *HealthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// liveUser loads an active user. Deactivated accounts are not live and read
// as not found.
func (s *HealthService) liveUser(ctx context.Context, userID string) (*entity.User, error) {
	if !validID(userID) {
		return nil, ErrUserNotFound
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, persistence(err)
	}
	if !u.IsActive {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (s *HealthService) localNow() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	return s.now().In(loc)
}

// Today is the current calendar day in the service's timezone.
func (s *HealthService) Today() time.Time {
	return health.Day(s.localNow())
}

// SubjectFor builds the classification context for u as of today, on the
// same calendar day that records are filed under.
func (s *HealthService) SubjectFor(u *entity.User) health.Subject {
	return health.SubjectFor(u.DateOfBirth, health.Gender(u.Gender), s.localNow())
}

// RecordMeasurement stores today's snapshot for userID. An existing live
// record for today is overwritten in place; otherwise a new one is inserted.
// The boolean reports whether a record was created.
func (s *HealthService) RecordMeasurement(ctx context.Context, userID string, in MeasurementInput) (*entity.HealthRecord, bool, error) {
	u, err := s.liveUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	bmi, err := health.BMI(in.Height, in.Weight)
	if err != nil {
		return nil, false, invalid(err)
	}

	day := s.Today()
	var (
		out     *entity.HealthRecord
		created bool
	)
	err = s.Records.WithinDay(ctx, userID, day, func(tx repo.HealthRecordRepository) error {
		existing, err := tx.FindLiveForUserOnDate(ctx, userID, day)
		switch {
		case err == nil:
			applyMeasurement(existing, in, bmi)
			if err := tx.Update(ctx, existing); err != nil {
				return err
			}
			out = existing
			return nil
		case errors.Is(err, repo.ErrNotFound):
			rec := &entity.HealthRecord{UserID: userID, RecordDate: day}
			applyMeasurement(rec, in, bmi)
			if err := tx.Insert(ctx, rec); err != nil {
				return err
			}
			out, created = rec, true
			return nil
		default:
			return err
		}
	})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, false, fmt.Errorf("%w: a record for %s is already being written", ErrConflict, day.Format(health.DateLayout))
		}
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Error("record measurement failed")
		}
		return nil, false, persistence(err)
	}

	s.alertAbnormal(ctx, u, *out)
	return out, created, nil
}

func applyMeasurement(r *entity.HealthRecord, in MeasurementInput, bmi float64) {
	r.Height = in.Height
	r.Weight = in.Weight
	r.SystolicBP = in.SystolicBP
	r.DiastolicBP = in.DiastolicBP
	r.BloodSugar = in.BloodSugar
	r.HeartRate = in.HeartRate
	r.Cholesterol = in.Cholesterol
	r.BMI = bmi
	r.Hemoglobin = in.Hemoglobin
	r.RBCCount = in.RBCCount
	r.WBCCount = in.WBCCount
	r.PlateletCount = in.PlateletCount
}

// alertAbnormal emails the user a list of out-of-range readings, if any.
func (s *HealthService) alertAbnormal(ctx context.Context, u *entity.User, r entity.HealthRecord) {
	if s.Mail == nil {
		return
	}
	var findings []mailtpl.AlertFinding
	for _, a := range health.Assess(r, s.SubjectFor(u)) {
		if !a.Category.Tier.Abnormal() {
			continue
		}
		findings = append(findings, mailtpl.AlertFinding{
			Metric: a.Metric.Label(),
			Value:  FormatAssessment(a),
			Label:  a.Category.Label,
		})
	}
	if len(findings) == 0 {
		return
	}
	data := mailtpl.NewHealthAlertData(s.Config, u.FullName(), u.Email, r.RecordDate.Format(health.DateLayout), findings)
	publishEmail(ctx, s.Mail, s.Logger, mailer.EmailJob{To: u.Email, Template: mailtpl.HealthAlert, Data: data})
}

// FormatAssessment renders a value with its unit, e.g. "120/80 mmHg".
func FormatAssessment(a health.Assessment) string {
	v := strconv.FormatFloat(a.Value, 'f', -1, 64)
	if a.Value2 != nil {
		v += "/" + strconv.FormatFloat(*a.Value2, 'f', -1, 64)
	}
	if u := a.Metric.Unit(); u != "" {
		v += " " + u
	}
	return v
}

// List returns the user's live records, newest first, each classified.
func (s *HealthService) List(ctx context.Context, userID string) ([]RecordView, error) {
	u, err := s.liveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.listFor(ctx, u)
}

func (s *HealthService) listFor(ctx context.Context, u *entity.User) ([]RecordView, error) {
	records, err := s.Records.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, persistence(err)
	}
	subj := s.SubjectFor(u)
	out := make([]RecordView, 0, len(records))
	for _, r := range records {
		out = append(out, RecordView{Record: r, Assessments: health.Assess(r, subj)})
	}
	return out, nil
}

// Get returns one of the user's live records.
func (s *HealthService) Get(ctx context.Context, userID, recordID string) (*entity.User, *RecordView, error) {
	u, err := s.liveUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return s.getFor(ctx, u, recordID)
}

func (s *HealthService) getFor(ctx context.Context, u *entity.User, recordID string) (*entity.User, *RecordView, error) {
	if !validID(recordID) {
		return nil, nil, ErrRecordNotFound
	}
	r, err := s.Records.GetByID(ctx, recordID, u.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrRecordNotFound
		}
		return nil, nil, persistence(err)
	}
	return u, &RecordView{Record: *r, Assessments: health.Assess(*r, s.SubjectFor(u))}, nil
}

// Delete soft-deletes a record owned by the live user userID. Another user's
// record is reported as not found.
func (s *HealthService) Delete(ctx context.Context, userID, recordID string) error {
	if _, err := s.liveUser(ctx, userID); err != nil {
		return err
	}
	return s.deleteFor(ctx, userID, recordID)
}

func (s *HealthService) deleteFor(ctx context.Context, userID, recordID string) error {
	if !validID(recordID) {
		return ErrRecordNotFound
	}
	ok, err := s.Records.SoftDelete(ctx, recordID, userID)
	if err != nil {
		return persistence(err)
	}
	if !ok {
		return ErrRecordNotFound
	}
	return nil
}

// Trend compares the two latest records. A nil report means fewer than two
// records exist.
func (s *HealthService) Trend(ctx context.Context, userID string) (*health.TrendReport, error) {
	u, err := s.liveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	records, err := s.Records.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistence(err)
	}
	return health.Trend(records, s.SubjectFor(u)), nil
}
