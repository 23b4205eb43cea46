package notifier

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const cellStyle = "padding: 8px; border: 1px solid #ddd;"

var incidentTemplate = template.Must(template.New("incident").Parse(`
<h2>{{.Heading}}</h2>
<p>{{.Intro}}</p>
<table style="border-collapse: collapse; margin: 16px 0;">
{{- range .Rows}}
  <tr><td style="{{$.CellStyle}}"><strong>{{.Label}}:</strong></td><td style="{{$.CellStyle}}">{{.Value}}</td></tr>
{{- end}}
</table>
<p><a href="{{.Link}}" style="color: #5E81AC;">View Incident</a></p>
`))

var invitationTemplate = template.Must(template.New("invitation").Parse(`
<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>IBTS Invitation</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #2c3e50;">You've Been Invited!</h1>
    <p>Hello,</p>
    <p><strong>{{.InviterName}}</strong> has invited you to join IBTS as a <strong>{{.Role}}</strong>.</p>
    <p>Click the button below to complete your registration:</p>
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.RegistrationURL}}"
         style="background-color: #3498db; color: white; padding: 12px 24px; text-decoration: none; border-radius: 5px; display: inline-block;">
        Accept Invitation
      </a>
    </div>
    <p style="color: #7f8c8d; font-size: 14px;">
      This invitation will expire on <strong>{{.ExpiresAt}}</strong>.
    </p>
    <p style="color: #7f8c8d; font-size: 14px;">
      If you didn't expect this invitation or believe it was sent in error,
      you can safely ignore this email.
    </p>
    <hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
    <p style="color: #95a5a6; font-size: 12px;">
      If the button doesn't work, copy and paste this link into your browser:<br>
      <a href="{{.RegistrationURL}}" style="color: #3498db;">{{.RegistrationURL}}</a>
    </p>
  </div>
</body>
</html>
`))

type detailRow struct {
	Label string
	Value string
}

type incidentTemplateData struct {
	Heading   string
	Intro     string
	Rows      []detailRow
	Link      string
	CellStyle string
}

func renderIncidentBody(heading, intro, link string, rows []detailRow) (string, error) {
	var buf bytes.Buffer
	err := incidentTemplate.Execute(&buf, incidentTemplateData{
		Heading:   heading,
		Intro:     intro,
		Rows:      rows,
		Link:      link,
		CellStyle: cellStyle,
	})
	if err != nil {
		return "", fmt.Errorf("render %s body: %w", heading, err)
	}
	return buf.String(), nil
}

type invitationTemplateData struct {
	InviterName     string
	Role            string
	RegistrationURL string
	ExpiresAt       string
}

func renderInvitationBody(inviterName, role, registrationURL string, expiresAt time.Time) (string, error) {
	var buf bytes.Buffer
	err := invitationTemplate.Execute(&buf, invitationTemplateData{
		InviterName:     inviterName,
		Role:            role,
		RegistrationURL: registrationURL,
		ExpiresAt:       expiresAt.UTC().Format("January 2, 2006 at 3:04 PM") + " UTC",
	})
	if err != nil {
		return "", fmt.Errorf("render invitation body: %w", err)
	}
	return buf.String(), nil
}
