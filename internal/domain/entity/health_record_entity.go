package entity

import "time"

// HealthRecord is one daily measurement snapshot owned by a user.
// BMI is always derived from Height and Weight, never accepted from input.
// The blood-count values are optional and stay nil when not measured.
type HealthRecord struct {
	ID          string
	UserID      string
	Height      float64 // cm
	Weight      float64 // kg
	SystolicBP  float64 // mmHg
	DiastolicBP float64 // mmHg
	BloodSugar  float64 // mg/dL
	HeartRate   float64 // bpm
	Cholesterol float64 // mg/dL
	BMI         float64

	Hemoglobin    *float64 // g/dL
	RBCCount      *float64 // million/µL
	WBCCount      *float64 // per µL
	PlateletCount *float64 // per µL

	// RecordDate is the calendar day the snapshot belongs to.
	RecordDate time.Time
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
}
