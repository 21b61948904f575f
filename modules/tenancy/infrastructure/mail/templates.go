package mail

import (
	"bytes"
	"html/template"
	"time"

	"github.com/orderly-pos/orderly/modules/tenancy/services"
)

const verificationSubject = "Confirm your email address"

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1F2937;">
	<p>Hi {{.Name}},</p>
	<p>Thanks for registering <strong>{{.TenantSlug}}</strong>. Confirm your email address to finish setting up your account.</p>
	<p><a href="{{.Link}}" style="background: #F59E0B; color: #1F2937; padding: 10px 16px; text-decoration: none; border-radius: 4px;">Verify email</a></p>
	<p>This link expires on {{.Expires}}.</p>
</body>
</html>
`))

func renderVerification(msg services.VerificationMessage) (string, error) {
	var buf bytes.Buffer
	err := verificationTemplate.Execute(&buf, struct {
		services.VerificationMessage
		Expires string
	}{
		VerificationMessage: msg,
		Expires:             msg.ExpiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
