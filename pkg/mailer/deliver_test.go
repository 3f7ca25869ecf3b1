package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	to, subject, text, html string
	err                     error
}

func (c *captureSender) Send(_ context.Context, to, subject, text, html string) error {
	c.to, c.subject, c.text, c.html = to, subject, text, html
	return c.err
}

func TestDeliverTemplate(t *testing.T) {
	s := &captureSender{}
	err := Deliver(context.Background(), s, EmailJob{
		To:       "a@b.c",
		Template: "password_changed",
		Data:     map[string]any{"Name": "Jane", "Email": "a@b.c", "Time": "01 March 2024, 10:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", s.to)
	assert.Equal(t, "Your password was changed", s.subject)
	assert.Contains(t, s.text, "Hi Jane")
}

func TestDeliverRawAndErrors(t *testing.T) {
	s := &captureSender{}
	require.NoError(t, Deliver(context.Background(), s, EmailJob{To: "a@b.c", Subject: "hi", Text: "body"}))
	assert.Equal(t, "hi", s.subject)

	err := Deliver(context.Background(), s, EmailJob{To: "a@b.c", Template: "nope"})
	assert.ErrorIs(t, err, ErrRender)

	err = Deliver(context.Background(), s, EmailJob{Subject: "x"})
	assert.ErrorIs(t, err, ErrRender)

	s.err = errors.New("mailgun down")
	err = Deliver(context.Background(), s, EmailJob{To: "a@b.c", Subject: "x"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrRender)
}
