package service

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

type emailService struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewEmailService(host string, port int, username, password, from string) EmailService {
	return &emailService{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}

	return nil
}

func (s *emailService) SendRentalRequestNotification(ctx context.Context, lenderEmail, renterName, productName string) error {
	body := fmt.Sprintf("Hello,\n\n%s has requested to rent your product '%s'.\n\nPlease log in to approve or deny the request.\n\nBest regards,\nThe PeerRent Team", renterName, productName)
	return s.send(lenderEmail, fmt.Sprintf("New rental request for %s", productName), body)
}

func (s *emailService) SendRentalDecisionNotification(ctx context.Context, renterEmail, productName string, approved bool) error {
	decision := "denied"
	if approved {
		decision = "approved"
	}
	body := fmt.Sprintf("Hello,\n\nYour rental request for '%s' has been %s by the owner.\n\nBest regards,\nThe PeerRent Team", productName, decision)
	return s.send(renterEmail, fmt.Sprintf("Rental request %s - %s", decision, productName), body)
}

func (s *emailService) SendRescheduleRequestNotification(ctx context.Context, lenderEmail, renterName, productName string) error {
	body := fmt.Sprintf("Hello,\n\n%s has requested to reschedule their rental of '%s'.\n\nPlease log in to approve or deny the request.\n\nBest regards,\nThe PeerRent Team", renterName, productName)
	return s.send(lenderEmail, fmt.Sprintf("Reschedule request for %s", productName), body)
}

func (s *emailService) SendRescheduleDecisionNotification(ctx context.Context, renterEmail, productName string, approved bool) error {
	decision := "denied"
	if approved {
		decision = "approved"
	}
	body := fmt.Sprintf("Hello,\n\nYour reschedule request for '%s' has been %s by the owner.\n\nBest regards,\nThe PeerRent Team", productName, decision)
	return s.send(renterEmail, fmt.Sprintf("Reschedule request %s - %s", decision, productName), body)
}

func (s *emailService) SendRentalCancellationNotification(ctx context.Context, email, cancellerName, productName, reason string) error {
	body := fmt.Sprintf("Hello,\n\nThe rental of '%s' has been cancelled by %s.", productName, cancellerName)
	if reason != "" {
		body += fmt.Sprintf("\n\nReason: %s", reason)
	}
	body += "\n\nBest regards,\nThe PeerRent Team"
	return s.send(email, fmt.Sprintf("Rental cancelled - %s", productName), body)
}
