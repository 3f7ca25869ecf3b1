package templates

import (
	"time"

	"github.com/oksasatya/medtracker/config"
)

type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithFindings(day string, f []AlertFinding) Option {
	return func(d *EmailData) {
		d.RecordDate = day
		d.Findings = f
	}
}

// NewBaseEmailData fills the shared fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,
	}
	if cfg != nil {
		d.CompanyName = cfg.CompanyName
		d.AppName = cfg.AppName
		d.SupportURL = cfg.SupportURL
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email string) map[string]any {
	return ToMap(NewBaseEmailData(cfg, Welcome, name, email, WithTime(time.Now())))
}

func NewPasswordChangedData(cfg *config.Config, name, email string) map[string]any {
	return ToMap(NewBaseEmailData(cfg, PasswordChanged, name, email, WithTime(time.Now())))
}

func NewAccountDeactivatedData(cfg *config.Config, name, email string) map[string]any {
	return ToMap(NewBaseEmailData(cfg, AccountDeactivated, name, email, WithTime(time.Now())))
}

func NewHealthAlertData(cfg *config.Config, name, email, day string, findings []AlertFinding) map[string]any {
	return ToMap(NewBaseEmailData(cfg, HealthAlert, name, email, WithFindings(day, findings)))
}
