// Package mailer renders and delivers the lifecycle emails. Rendering is
// separated from delivery so tests can assert on content without a provider.
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Email is a rendered message ready for delivery.
type Email struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// VerificationEmailData holds data for the account verification email.
type VerificationEmailData struct {
	SiteName string
	Name     string
	Link     string
	// ExpiresIn is human readable, e.g. "24 hours".
	ExpiresIn string
}

// BuildVerificationEmail creates the verification email with both HTML and
// text bodies.
func BuildVerificationEmail(data VerificationEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("Verify your %s account", data.SiteName),
		TextBody: buildVerificationText(data),
		HTMLBody: renderHTML("verification", verificationHTMLTemplate, data),
	}
}

func buildVerificationText(data VerificationEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Name))
	buf.WriteString(fmt.Sprintf("Welcome to %s! Click the link below to verify your email address:\n\n", data.SiteName))
	buf.WriteString(data.Link + "\n\n")
	buf.WriteString(fmt.Sprintf("This link expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString("If you did not create this account, you can safely ignore this email.\n")
	return buf.String()
}

// PasswordResetEmailData holds data for the password reset email.
type PasswordResetEmailData struct {
	SiteName string
	Name     string
	Link     string
	// ExpiresIn is human readable, e.g. "60 minutes".
	ExpiresIn string
}

// BuildPasswordResetEmail creates the password reset email with both HTML and
// text bodies.
func BuildPasswordResetEmail(data PasswordResetEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("Reset your %s password", data.SiteName),
		TextBody: buildPasswordResetText(data),
		HTMLBody: renderHTML("password_reset", passwordResetHTMLTemplate, data),
	}
}

func buildPasswordResetText(data PasswordResetEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hi %s,\n\n", data.Name))
	buf.WriteString("We received a request to reset your password. Click the link below to choose a new one:\n\n")
	buf.WriteString(data.Link + "\n\n")
	buf.WriteString(fmt.Sprintf("This link expires in %s.\n\n", data.ExpiresIn))
	buf.WriteString("If you did not request a password reset, you can safely ignore this email.\n")
	return buf.String()
}

func renderHTML(name, text string, data any) string {
	tmpl := template.Must(template.New(name).Parse(text))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const verificationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Verify your email</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.Name}}, welcome to {{.SiteName}}! Confirm your email address to activate your account.
              </p>
              <div style="text-align: center; margin-bottom: 24px;">
                <a href="{{.Link}}" style="display: inline-block; background-color: #4f46e5; color: #ffffff; font-size: 16px; font-weight: 600; text-decoration: none; padding: 12px 32px; border-radius: 8px;">Verify Email</a>
              </div>
              <p style="margin: 0; font-size: 14px; color: #6b7280;">
                This link expires in {{.ExpiresIn}}. If you did not create this account, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`

const passwordResetHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Reset your password</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hi {{.Name}}, we received a request to reset your password.
              </p>
              <div style="text-align: center; margin-bottom: 24px;">
                <a href="{{.Link}}" style="display: inline-block; background-color: #4f46e5; color: #ffffff; font-size: 16px; font-weight: 600; text-decoration: none; padding: 12px 32px; border-radius: 8px;">Reset Password</a>
              </div>
              <p style="margin: 0; font-size: 14px; color: #6b7280;">
                This link expires in {{.ExpiresIn}}. If you did not request a password reset, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
