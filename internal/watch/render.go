package watch

import (
	"bytes"
	"fmt"
	"html/template"
)

// chatFooter is the informational tail appended to every broadcast message.
const chatFooter = "Book on https://selfregistration.cowin.gov.in — follow @vaccine_alerts for updates."

// RenderChatAlert builds the plain-text broadcast body for a session record.
func RenderChatAlert(r SessionRecord) string {
	return fmt.Sprintf(
		"Vaccination slots alert (%d+) for %s, %s.\n"+
			"Center: %s\n"+
			"Slots available: %d (dose 1: %d, dose 2: %d)\n"+
			"Vaccine: %s\n"+
			"Date: %s\n%s",
		r.MinAge, r.BlockName, r.Pincode,
		r.Center, r.Capacity, r.Dose1, r.Dose2,
		r.Vaccine, r.Date, chatFooter,
	)
}

// RenderTweet builds the status text for the social-post channel.
func RenderTweet(r SessionRecord) string {
	return fmt.Sprintf(
		"Vaccination slots alert (%d+) for %s %s.\n"+
			"Center: %s\n"+
			"Slots available: %d\n"+
			"Date: %s\n"+
			"#CovidIndia #CovidVaccineIndia",
		r.MinAge, r.BlockName, r.Pincode,
		r.Center, r.Capacity, r.Date,
	)
}

// EmailSubject builds the subject line for an alert email.
func EmailSubject(r SessionRecord) string {
	return fmt.Sprintf("Vaccine slots open at %s (%s) for %s", r.Center, r.Pincode, r.Date)
}

// emailTmpl wraps the alert in a small HTML layout with a personalized
// unsubscribe link. Fields are auto-escaped by html/template.
var emailTmpl = template.Must(template.New("alert-email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Vaccination slot alert</title>
</head>
<body style="margin:0;padding:24px;background-color:#f4f4f5;font-family:Arial,sans-serif;color:#374151;">
  <table width="100%" cellpadding="0" cellspacing="0" role="presentation" style="max-width:560px;margin:0 auto;">
    <tr>
      <td style="background-color:#0f766e;padding:16px 24px;border-radius:8px 8px 0 0;">
        <span style="font-size:18px;font-weight:700;color:#ffffff;">Vaccination slot alert</span>
      </td>
    </tr>
    <tr>
      <td style="background-color:#ffffff;padding:24px;">
        <p style="margin:0 0 12px 0;">Slots for the {{.MinAge}}+ age group are open:</p>
        <table cellpadding="4" cellspacing="0" style="font-size:14px;">
          <tr><td><b>Center</b></td><td>{{.Center}}</td></tr>
          <tr><td><b>Block</b></td><td>{{.BlockName}}</td></tr>
          <tr><td><b>Pincode</b></td><td>{{.Pincode}}</td></tr>
          <tr><td><b>Date</b></td><td>{{.Date}}</td></tr>
          <tr><td><b>Slots</b></td><td>{{.Capacity}} (dose 1: {{.Dose1}}, dose 2: {{.Dose2}})</td></tr>
          <tr><td><b>Vaccine</b></td><td>{{.Vaccine}}</td></tr>
        </table>
        <p style="margin:16px 0 0 0;">
          Book at <a href="https://selfregistration.cowin.gov.in" style="color:#0f766e;">selfregistration.cowin.gov.in</a>.
        </p>
      </td>
    </tr>
    <tr>
      <td style="background-color:#f9fafb;padding:16px 24px;border-top:1px solid #e5e7eb;border-radius:0 0 8px 8px;">
        <p style="margin:0;font-size:12px;color:#9ca3af;">
          You subscribed to vaccination slot alerts.
          <a href="{{.UnsubscribeURL}}" style="color:#0f766e;">Unsubscribe</a>
        </p>
      </td>
    </tr>
  </table>
</body>
</html>
`))

// emailData is the template input for RenderEmailHTML.
type emailData struct {
	SessionRecord
	UnsubscribeURL string
}

// RenderEmailHTML renders the HTML email body with a per-recipient
// unsubscribe link.
func RenderEmailHTML(r SessionRecord, unsubscribeURL string) (string, error) {
	var buf bytes.Buffer
	err := emailTmpl.Execute(&buf, emailData{SessionRecord: r, UnsubscribeURL: unsubscribeURL})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
