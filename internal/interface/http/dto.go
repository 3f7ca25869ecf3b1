package handlers

import (
	"time"

	app "github.com/oksasatya/medtracker/internal/application"
	"github.com/oksasatya/medtracker/internal/domain/entity"
	"github.com/oksasatya/medtracker/internal/domain/health"
)

type userView struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	MiddleName  string    `json:"middle_name"`
	LastName    string    `json:"last_name"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	Gender      string    `json:"gender"`
	DateOfBirth *string   `json:"date_of_birth"`
	Age         *int      `json:"age"`
	IsAdmin     bool      `json:"is_admin"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toUserView(u *entity.User, now time.Time) userView {
	v := userView{
		ID:         u.ID,
		FirstName:  u.FirstName,
		MiddleName: u.MiddleName,
		LastName:   u.LastName,
		Name:       u.FullName(),
		Email:      u.Email,
		Address:    u.Address,
		Gender:     u.Gender,
		IsAdmin:    u.IsAdmin,
		IsActive:   u.IsActive,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
	if u.DateOfBirth != nil {
		d := u.DateOfBirth.Format(health.DateLayout)
		v.DateOfBirth = &d
		if age, err := health.AgeInYears(*u.DateOfBirth, now); err == nil {
			v.Age = &age
		}
	}
	return v
}

func toUserViews(users []entity.User, now time.Time) []userView {
	out := make([]userView, 0, len(users))
	for i := range users {
		out = append(out, toUserView(&users[i], now))
	}
	return out
}

type recordView struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	RecordDate    string     `json:"record_date"`
	Height        float64    `json:"height"`
	Weight        float64    `json:"weight"`
	SystolicBP    float64    `json:"blood_pressure_systolic"`
	DiastolicBP   float64    `json:"blood_pressure_diastolic"`
	BloodSugar    float64    `json:"blood_sugar"`
	HeartRate     float64    `json:"heart_rate"`
	Cholesterol   float64    `json:"cholesterol"`
	BMI           float64    `json:"bmi"`
	Hemoglobin    *float64   `json:"hemoglobin"`
	RBCCount      *float64   `json:"rbc_count"`
	WBCCount      *float64   `json:"wbc_count"`
	PlateletCount *float64   `json:"platelet_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`

	Classifications []classificationView `json:"classifications"`
}

type classificationView struct {
	Metric  health.Metric `json:"metric"`
	Name    string        `json:"name"`
	Value   string        `json:"value"`
	Label   string        `json:"label"`
	Tier    string        `json:"tier"`
	Color   string        `json:"color"`
	Healthy bool          `json:"healthy"`
}

func toRecordView(r entity.HealthRecord, assessments []health.Assessment) recordView {
	v := recordView{
		ID:              r.ID,
		UserID:          r.UserID,
		RecordDate:      r.RecordDate.Format(health.DateLayout),
		Height:          r.Height,
		Weight:          r.Weight,
		SystolicBP:      r.SystolicBP,
		DiastolicBP:     r.DiastolicBP,
		BloodSugar:      r.BloodSugar,
		HeartRate:       r.HeartRate,
		Cholesterol:     r.Cholesterol,
		BMI:             r.BMI,
		Hemoglobin:      r.Hemoglobin,
		RBCCount:        r.RBCCount,
		WBCCount:        r.WBCCount,
		PlateletCount:   r.PlateletCount,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Classifications: make([]classificationView, 0, len(assessments)),
	}
	for _, a := range assessments {
		v.Classifications = append(v.Classifications, classificationView{
			Metric:  a.Metric,
			Name:    a.Metric.Label(),
			Value:   app.FormatAssessment(a),
			Label:   a.Category.Label,
			Tier:    a.Category.Tier.String(),
			Color:   a.Category.Color,
			Healthy: !a.Category.Tier.Abnormal(),
		})
	}
	return v
}

func toRecordViews(views []app.RecordView) []recordView {
	out := make([]recordView, 0, len(views))
	for _, rv := range views {
		out = append(out, toRecordView(rv.Record, rv.Assessments))
	}
	return out
}

type sessionView struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userView  `json:"user"`
}
