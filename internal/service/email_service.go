package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// EmailService sends transactional emails.
type EmailService interface {
	SendApprovalDecision(ctx context.Context, toEmail, contestName string, approved bool, message string) error
}

// NoopEmailService is used when decision emails are disabled.
type NoopEmailService struct{}

func (s *NoopEmailService) SendApprovalDecision(ctx context.Context, toEmail, contestName string, approved bool, message string) error {
	log.Printf("[EmailService] noop send decision to=%s approved=%v", toEmail, approved)
	return nil
}

// ResendEmailService sends emails via Resend REST API.
type ResendEmailService struct {
	from   string
	client *resend.Client
}

func NewResendEmailService(apiKey, from string) (*ResendEmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend api key is required")
	}
	if from == "" {
		return nil, fmt.Errorf("email from is required")
	}
	return &ResendEmailService{
		from:   from,
		client: resend.NewClient(apiKey),
	}, nil
}

func (s *ResendEmailService) SendApprovalDecision(ctx context.Context, toEmail, contestName string, approved bool, message string) error {
	if toEmail == "" || contestName == "" {
		return fmt.Errorf("toEmail and contestName are required")
	}

	subject := fmt.Sprintf("Your contest %q was approved", contestName)
	text := fmt.Sprintf("Good news — your contest %q passed review and is now published.", contestName)
	if !approved {
		subject = fmt.Sprintf("Your contest %q was rejected", contestName)
		text = fmt.Sprintf("Your contest %q did not pass review. Reason: %s\n\nYou can edit the contest and resubmit it.", contestName, message)
	} else if message != "" {
		text += "\n\nReviewer note: " + message
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{toEmail},
		Subject: subject,
		Text:    text,
	}

	options := &resend.SendEmailOptions{}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		_, err := s.client.Emails.SendWithOptions(ctx, params, options)
		if err == nil {
			return nil
		}
		lastErr = err

		if wait, ok := resendRetryDelay(err, attempt); ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
				continue
			}
		}

		return fmt.Errorf("resend send failed: %w", err)
	}

	return fmt.Errorf("resend send failed after retries: %w", lastErr)
}

func resendRetryDelay(err error, attempt int) (time.Duration, bool) {
	var rateLimitErr *resend.RateLimitError
	if errors.As(err, &rateLimitErr) {
		if seconds, convErr := strconv.Atoi(strings.TrimSpace(rateLimitErr.RetryAfter)); convErr == nil && seconds > 0 {
			if seconds > 30 {
				seconds = 30
			}
			return time.Duration(seconds) * time.Second, true
		}
		return time.Duration(attempt+1) * time.Second, true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "temporar") {
		return time.Duration(attempt+1) * 500 * time.Millisecond, true
	}

	return 0, false
}
