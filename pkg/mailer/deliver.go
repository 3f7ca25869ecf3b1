package mailer

import (
	"context"
	"errors"
	"fmt"

	mailtpl "github.com/oksasatya/medtracker/pkg/mailer/templates"
)

// Sender delivers a rendered message. *Mailgun implements it.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// ErrRender marks jobs that can never be delivered; the worker drops them.
var ErrRender = errors.New("render failed")

// Deliver renders job (when it names a template) and hands it to s.
func Deliver(ctx context.Context, s Sender, job EmailJob) error {
	if job.To == "" {
		return fmt.Errorf("%w: missing recipient", ErrRender)
	}
	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		var err error
		subject, text, html, err = mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRender, err)
		}
	}
	return s.Send(ctx, job.To, subject, text, html)
}
