package mail

import (
	"fmt"
	"time"
)

// CertificateIssued builds the congratulation email for a new certificate
func CertificateIssued(toName, toEmail, courseName, certificateID, verifyURL string, issued time.Time) Message {
	return Message{
		ToName:  toName,
		ToEmail: toEmail,
		Subject: "Your certificate for " + courseName,
		Text: fmt.Sprintf("Congratulations %s!\n\nYou completed %s on %s.\nCertificate ID: %s\nVerify it at %s\n",
			toName, courseName, issued.Format("January 2, 2006"), certificateID, verifyURL),
	}
}

// ContactReply carries an admin's answer to a contact form message
func ContactReply(toName, toEmail, subject, reply string) Message {
	return Message{
		ToName:  toName,
		ToEmail: toEmail,
		Subject: "Re: " + subject,
		Text:    reply,
	}
}
