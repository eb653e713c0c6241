package mailer

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arcade-hub/internal/config"
)

func TestNewSelectsMailer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	m := New(&config.SMTPConfig{}, logger)
	assert.IsType(t, &LogMailer{}, m)

	m = New(&config.SMTPConfig{Host: "smtp.example.com", Port: 587}, logger)
	assert.IsType(t, &SMTPMailer{}, m)
}

func TestLogMailerSend(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := &LogMailer{logger: logger}
	assert.NoError(t, m.Send("alice@example.com", "Password Reset Request", "click the link"))
}
