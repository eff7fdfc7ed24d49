package email

import (
	"fmt"
	"net/smtp"
	"os"
)

type EmailService struct {
	host     string
	port     string
	user     string
	password string
	from     string
}

func NewEmailService() *EmailService {
	return &EmailService{
		host:     os.Getenv("SMTP_HOST"),
		port:     os.Getenv("SMTP_PORT"),
		user:     os.Getenv("SMTP_USER"),
		password: os.Getenv("SMTP_PASSWORD"),
		from:     os.Getenv("SMTP_FROM"),
	}
}

// Configured reports whether SMTP settings are present. Notifications
// are skipped silently when they are not.
func (e *EmailService) Configured() bool {
	return e.host != "" && e.port != "" && e.from != ""
}

// SendCommentNotification tells a post's author that someone commented.
func (e *EmailService) SendCommentNotification(to, postTitle, commenter, postURL string) error {
	subject := fmt.Sprintf("New comment on \"%s\"", postTitle)
	body := fmt.Sprintf(`Hello!

%s left a comment on your post "%s".

Read it here:

%s

---
Papyrus
`, commenter, postTitle, postURL)

	message := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"\r\n"+
		"%s\r\n", e.from, to, subject, body)

	auth := smtp.PlainAuth("", e.user, e.password, e.host)
	addr := fmt.Sprintf("%s:%s", e.host, e.port)

	err := smtp.SendMail(addr, auth, e.from, []string{to}, []byte(message))
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}

	return nil
}
