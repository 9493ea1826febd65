package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("email").Option("missingkey=zero").ParseFS(templateFS, "templates/*.html"))

// subjects are plain text and never pass through the HTML escaper.
var subjects = map[Kind]func(data map[string]string) string{
	KindMemberInvitation: func(d map[string]string) string {
		return fmt.Sprintf("You're invited to join %s on Haven", d["OrganizationName"])
	},
	KindIncidentAlert: func(d map[string]string) string {
		return fmt.Sprintf("[%s] Incident logged in %s", d["Severity"], d["OrganizationName"])
	},
	KindPaymentFailed: func(d map[string]string) string {
		return fmt.Sprintf("Payment failed for %s", d["OrganizationName"])
	},
}

// Render builds the subject and HTML body for a message.
func Render(kind Kind, data map[string]string) (subject, html string, err error) {
	subjectFn, ok := subjects[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown email kind: %s", kind)
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, string(kind), data); err != nil {
		return "", "", fmt.Errorf("failed to execute template %s: %w", kind, err)
	}
	return subjectFn(data), buf.String(), nil
}
