package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"time"

	"movietix/app/models"
	"movietix/internal/pkg/env"
)

// SendMail sends an HTML email via SMTP
func SendMail(to string, subject string, body string) error {
	host := env.GetEnv("SMTP_HOST", "")
	port := env.GetEnv("SMTP_PORT", "")
	username := env.GetEnv("SMTP_USERNAME", "")
	password := env.GetEnv("SMTP_PASSWORD", "")
	sender := env.GetEnv("SMTP_SENDER", "")

	if sender == "" {
		sender = fmt.Sprintf("no-reply@%s", "localhost")
		log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
	}

	var auth smtp.Auth
	if username != "" && password != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	msg := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	err := smtp.SendMail(addr, auth, sender, []string{to}, msg)
	if err != nil {
		log.Printf("SMTP send error: %v", err)
	} else {
		log.Printf("Email sent to %s via %s", to, addr)
	}
	return err
}

// Enabled reports whether an SMTP host is configured.
func Enabled() bool {
	return env.GetEnv("SMTP_HOST", "") != ""
}

// SendBookingConfirmation mails the buyer a summary of freshly booked tickets.
func SendBookingConfirmation(user *models.User, bookings []models.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<p>Hi %s,</p>", user.Name))
	sb.WriteString("<p>Your payment went through. Here are your tickets:</p><ul>")
	for _, b := range bookings {
		title := fmt.Sprintf("movie #%d", b.MovieID)
		if b.Movie != nil {
			title = b.Movie.Title
		}
		sb.WriteString(fmt.Sprintf("<li>%s &ndash; %d ticket(s), showing %s</li>",
			title, b.TicketsCount, b.ShowTime.Format(time.RFC1123)))
	}
	sb.WriteString("</ul><p>Enjoy the show!</p>")

	return SendMail(user.Email, "Your booking confirmation", sb.String())
}
