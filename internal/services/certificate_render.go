package services

import (
	"bytes"
	"encoding/base64"
	"html/template"

	"github.com/skip2/go-qrcode"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

const certificateQRSize = 160

var certificateTemplate = template.Must(template.New("certificate").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Certificate {{.Certificate.ID}}</title>
<style>
body { font-family: Georgia, serif; background: #f4f1ea; margin: 0; }
.page { width: 960px; margin: 40px auto; padding: 56px; background: #fff; border: 12px double #7a5c2e; text-align: center; }
h1 { font-size: 44px; letter-spacing: 4px; color: #7a5c2e; margin: 0 0 24px; }
.name { font-size: 36px; font-weight: bold; margin: 16px 0; }
.course { font-size: 26px; font-style: italic; margin: 12px 0 32px; }
.meta { display: flex; justify-content: space-between; align-items: flex-end; margin-top: 48px; font-size: 14px; text-align: left; }
.meta img { width: {{.QRSize}}px; height: {{.QRSize}}px; }
</style>
</head>
<body>
<div class="page">
  <h1>CERTIFICATE OF COMPLETION</h1>
  <p>This certifies that</p>
  <p class="name">{{.Certificate.UserName}}</p>
  <p>has successfully completed the course</p>
  <p class="course">{{.Certificate.CourseName}}</p>
  {{- if .Certificate.InstructorName}}
  <p>Instructor: {{.Certificate.InstructorName}}</p>
  {{- end}}
  <div class="meta">
    <div>
      <p>Issued: {{.IssueDate}}</p>
      <p>Certificate ID: {{.Certificate.ID}}</p>
      <p>Verify at: <a href="{{.VerifyURL}}">{{.VerifyURL}}</a></p>
    </div>
    <img src="{{.QRCode}}" alt="Verification QR code">
  </div>
</div>
</body>
</html>
`))

type certificateView struct {
	Certificate *models.Certificate
	IssueDate   string
	VerifyURL   string
	QRCode      template.URL
	QRSize      int
}

// renderCertificate produces a standalone HTML page with an inline QR code
func renderCertificate(cert *models.Certificate, verifyURL string) ([]byte, error) {
	png, err := qrcode.Encode(verifyURL, qrcode.Medium, certificateQRSize)
	if err != nil {
		return nil, err
	}

	view := certificateView{
		Certificate: cert,
		IssueDate:   cert.IssueDate.Format("January 2, 2006"),
		VerifyURL:   verifyURL,
		QRCode:      template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
		QRSize:      certificateQRSize,
	}

	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, view); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
