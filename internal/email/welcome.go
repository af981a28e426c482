// Package email manda la notificación de bienvenida al owner de un
// tenant recién aprovisionado. Es best-effort: el alta ya está commiteada
// cuando esto corre, un fallo acá solo se loguea.
package email

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	mail "github.com/go-mail/mail"
	"go.uber.org/zap"

	"github.com/cashdesk/cashdesk/internal/observability/logger"
	"github.com/cashdesk/cashdesk/internal/store/core"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(
	`Hola {{.FirstName}},

Tu cuenta de {{.TenantName}} ya está lista. Entrá con este email y el
password que elegiste al registrarte.

El período de prueba vence el {{.TrialEndsAt}}.

— el equipo de cashdesk
`))

// SMTPWelcomer implementa tenant.Welcomer vía SMTP (go-mail).
type SMTPWelcomer struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func NewSMTPWelcomer(host string, port int, user, pass, from string) *SMTPWelcomer {
	return &SMTPWelcomer{Host: host, Port: port, User: user, Pass: pass, From: from}
}

func (s *SMTPWelcomer) WelcomeOwner(ctx context.Context, t *core.Tenant, owner *core.User) error {
	var body bytes.Buffer
	err := welcomeTmpl.Execute(&body, map[string]string{
		"FirstName":   owner.FirstName,
		"TenantName":  t.Name,
		"TrialEndsAt": t.TrialEndsAt.Format("2006-01-02"),
	})
	if err != nil {
		return fmt.Errorf("render welcome: %w", err)
	}

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", owner.Email)
	m.SetHeader("Subject", "Bienvenido a "+t.Name)
	m.SetBody("text/plain", body.String())

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	logger.From(ctx).Debug("welcome mail sent",
		zap.String("tenant_id", t.ID), zap.String("to", owner.Email))
	return nil
}
