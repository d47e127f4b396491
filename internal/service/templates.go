package service

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/samandr77/microservices/onboarding/internal/entity"
)

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "verify_email"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <p>Hello{{if .Name}} {{.Name}}{{end}},</p>
  <p>Use the code below to verify your email address:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  {{if .Link}}<p>Or confirm with one click: <a href="{{.Link}}">verify my email</a>.</p>{{end}}
  <p>The code expires in {{.ExpiresIn}}. If you did not create an account, ignore this email.</p>
</body>
</html>{{end}}
{{define "reset_password"}}<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933;">
  <p>Hello{{if .Name}} {{.Name}}{{end}},</p>
  <p>We received a request to reset your password. Your reset code is:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">{{.Code}}</p>
  <p>The code expires in {{.ExpiresIn}}. If you did not ask for a reset, you can ignore this email.</p>
</body>
</html>{{end}}
`))

type emailData struct {
	Name      string
	Code      string
	Link      string
	ExpiresIn string
}

// renderCodeEmail returns the subject and HTML body delivering code for purpose.
func renderCodeEmail(purpose entity.Purpose, r Recipient, code string, resend bool) (string, string, error) {
	var name, subject string

	switch purpose {
	case entity.PurposeEmailVerification:
		name, subject = "verify_email", "Verify your email address"
		if resend {
			subject = "Your new verification code"
		}
	case entity.PurposePasswordReset:
		name, subject = "reset_password", "Your password reset code"
	default:
		return "", "", fmt.Errorf("no email template for purpose %q", purpose)
	}

	var buf bytes.Buffer

	err := emailTemplates.ExecuteTemplate(&buf, name, emailData{
		Name:      r.Name,
		Code:      code,
		Link:      r.Link,
		ExpiresIn: humanizeWindow(purpose),
	})
	if err != nil {
		return "", "", fmt.Errorf("render %s email: %w", name, err)
	}

	return subject, buf.String(), nil
}

func humanizeWindow(purpose entity.Purpose) string {
	w := purpose.Window()

	if w%time.Hour == 0 {
		h := int(w / time.Hour)
		if h == 1 {
			return "1 hour"
		}

		return fmt.Sprintf("%d hours", h)
	}

	return fmt.Sprintf("%d minutes", int(w/time.Minute))
}
