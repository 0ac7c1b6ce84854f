package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderGenericEmail generates branded HTML for a case notification email.
// The subject is displayed in the header banner, and bodyContent is plain text
// that gets HTML-escaped and has newlines converted to <br> tags.
func RenderGenericEmail(subject, bodyContent, caseURL string) string {
	escaped := html.EscapeString(bodyContent)
	htmlBody := strings.ReplaceAll(escaped, "\n", "<br>")
	safeSubject := html.EscapeString(subject)

	link := ""
	if caseURL != "" {
		link = fmt.Sprintf(`<a href="%s" class="cta-button">Open case</a>`, html.EscapeString(caseURL))
	}

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #0b1020; }
    .container { max-width: 600px; margin: 0 auto; background-color: #121a2f; }
    .header { background: linear-gradient(135deg, #1e3a8a 0%%, #1d4ed8 100%%); padding: 32px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; font-weight: 700; }
    .content { padding: 32px 30px; color: #e5e7eb; line-height: 1.6; font-size: 15px; }
    .cta-button { display: inline-block; background: #1d4ed8; color: #fff; padding: 12px 24px; border-radius: 6px; text-decoration: none; font-weight: 700; margin-top: 20px; }
    .footer { padding: 24px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid rgba(255,255,255,0.1); }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
      %s
    </div>
    <div class="footer">
      <p>Automated notice from the case management system. Do not reply.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody, link)
}
