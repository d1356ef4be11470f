package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/mail"
)

// EventHandlers holds the background reactions to domain events
type EventHandlers struct {
	mailer        mail.Mailer
	sessions      SessionInvalidator
	logger        *slog.Logger
	publicBaseURL string
}

func NewEventHandlers(mailer mail.Mailer, sessions SessionInvalidator, logger *slog.Logger, publicBaseURL string) *EventHandlers {
	return &EventHandlers{
		mailer:        mailer,
		sessions:      sessions,
		logger:        logger,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Register binds every handler to the consumer
func (h *EventHandlers) Register(consumer *events.Consumer) {
	consumer.Handle("certificate_issued_email", events.TopicCertificateIssued, h.OnCertificateIssued)
	consumer.Handle("account_status_session", events.TopicAccountStatusChanged, h.OnAccountStatusChanged)
}

// OnCertificateIssued emails the learner a link to the verification page
func (h *EventHandlers) OnCertificateIssued(ctx context.Context, evt *events.RawEvent) error {
	var data events.CertificateIssuedData
	if err := evt.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode certificate event: %w", err)
	}
	if data.UserEmail == "" {
		h.logger.Warn("Certificate issued without recipient email", "certificate_id", data.CertificateID)
		return nil
	}

	verifyURL := fmt.Sprintf("%s/certificates/verify/%s", h.publicBaseURL, data.CertificateID)
	msg := mail.CertificateIssued(data.UserName, data.UserEmail, data.CourseName, data.CertificateID, verifyURL, data.IssueDate)
	if err := h.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send certificate email: %w", err)
	}

	h.logger.Info("Certificate email sent", "certificate_id", data.CertificateID)
	return nil
}

// OnAccountStatusChanged drops the session snapshot on every instance
func (h *EventHandlers) OnAccountStatusChanged(ctx context.Context, evt *events.RawEvent) error {
	var data events.AccountStatusChangedData
	if err := evt.Decode(&data); err != nil {
		return fmt.Errorf("failed to decode account status event: %w", err)
	}
	if h.sessions == nil {
		return nil
	}
	return h.sessions.Invalidate(ctx, data.AccountID)
}
