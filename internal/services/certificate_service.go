package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
	"github.com/SAP-F-2025/lms-service/internal/utils"
)

// NewCertificateID builds CERT-<account prefix>-<course prefix>-<unix millis>
func NewCertificateID(accountID, courseID string, now time.Time) string {
	return strings.ToUpper(fmt.Sprintf("CERT-%s-%s-%d", prefix(accountID, 6), prefix(courseID, 6), now.UnixMilli()))
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

type certificateService struct {
	repo          repositories.Repository
	publisher     events.EventPublisher
	logger        *slog.Logger
	publicBaseURL string
	now           func() time.Time
}

func NewCertificateService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, publicBaseURL string) CertificateService {
	return newCertificateService(repo, publisher, logger, publicBaseURL)
}

func newCertificateService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, publicBaseURL string) *certificateService {
	return &certificateService{
		repo:          repo,
		publisher:     publisher,
		logger:        logger,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// issue creates the certificate for a locked enrollment. It must run inside the
// transaction holding the enrollment row lock. created is false when an
// existing certificate was returned.
func (s *certificateService) issue(ctx context.Context, tx repositories.Repository, enrollment *models.Enrollment, course *models.Course, userName string, now time.Time) (*models.Certificate, bool, error) {
	if enrollment.HasCertificate() {
		cert, err := tx.Certificate().GetByID(ctx, *enrollment.CertificateID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to load existing certificate: %w", err)
		}
		return cert, false, nil
	}

	cert := &models.Certificate{
		ID:             NewCertificateID(enrollment.AccountID, course.ID, now),
		UserID:         enrollment.AccountID,
		CourseID:       course.ID,
		CourseName:     course.Title,
		InstructorName: course.InstructorName,
		UserName:       userName,
		IssueDate:      now,
	}

	created := true
	if err := tx.Certificate().Create(ctx, cert); err != nil {
		if !repositories.IsDuplicateError(err) {
			return nil, false, fmt.Errorf("failed to create certificate: %w", err)
		}
		existing, getErr := tx.Certificate().GetByUserAndCourse(ctx, enrollment.AccountID, course.ID)
		if getErr != nil {
			return nil, false, fmt.Errorf("failed to load certificate after conflict: %w", getErr)
		}
		cert, created = existing, false
	}

	if err := tx.Enrollment().MarkCompleted(ctx, enrollment.ID, &cert.ID, now); err != nil {
		return nil, false, fmt.Errorf("failed to mark enrollment completed: %w", err)
	}

	enrollment.CertificateID = &cert.ID
	enrollment.Completed = true
	if enrollment.CompletedAt == nil {
		enrollment.CompletedAt = &now
	}
	return cert, created, nil
}

// announce runs after commit for newly issued certificates
func (s *certificateService) announce(ctx context.Context, cert *models.Certificate, email string) {
	utils.CertificatesIssued.Inc()
	publish(ctx, s.publisher, s.logger, events.TopicCertificateIssued, events.CertificateIssuedData{
		CertificateID: cert.ID,
		UserID:        cert.UserID,
		UserEmail:     email,
		UserName:      cert.UserName,
		CourseID:      cert.CourseID,
		CourseName:    cert.CourseName,
		IssueDate:     cert.IssueDate,
	})
}

func (s *certificateService) Generate(ctx context.Context, actor *Actor, courseID string) (*models.Certificate, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	s.logger.Info("Generating certificate", "account_id", actor.ID, "course_id", courseID)

	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	var cert *models.Certificate
	var created bool
	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		enrollment, err := tx.Enrollment().GetForUpdate(ctx, actor.ID, courseID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrNotEnrolled
			}
			return fmt.Errorf("failed to lock enrollment: %w", err)
		}

		if !enrollment.HasCertificate() && enrollment.Progress < 100 {
			return NewBusinessRuleError("certificate_requires_completion",
				"the course must be fully completed before a certificate can be generated",
				map[string]interface{}{"progress": enrollment.Progress})
		}

		cert, created, err = s.issue(ctx, tx, enrollment, course, actorDisplayName(actor), s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.announce(ctx, cert, actor.Email)
	}

	s.logger.Info("Certificate generated successfully", "certificate_id", cert.ID, "created", created)
	return cert, nil
}

func (s *certificateService) Get(ctx context.Context, actor *Actor, certificateID string) (*models.Certificate, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	cert, err := s.repo.Certificate().GetByID(ctx, certificateID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}

	if cert.UserID != actor.ID && !actor.IsAdmin() {
		return nil, NewPermissionError(actor.ID, certificateID, "certificate", "view", "not the certificate owner")
	}
	return cert, nil
}

func (s *certificateService) ListMine(ctx context.Context, actor *Actor) ([]*models.Certificate, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	certs, err := s.repo.Certificate().ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return certs, nil
}

func (s *certificateService) Verify(ctx context.Context, certificateID string) (*CertificateVerification, error) {
	cert, err := s.repo.Certificate().GetByID(ctx, strings.ToUpper(strings.TrimSpace(certificateID)))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("failed to verify certificate: %w", err)
	}

	return &CertificateVerification{
		CertificateID:  cert.ID,
		UserName:       cert.UserName,
		CourseName:     cert.CourseName,
		InstructorName: cert.InstructorName,
		IssueDate:      cert.IssueDate,
		Valid:          true,
	}, nil
}

func (s *certificateService) ExportHTML(ctx context.Context, actor *Actor, certificateID string) (*ExportFile, error) {
	cert, err := s.Get(ctx, actor, certificateID)
	if err != nil {
		return nil, err
	}

	data, err := renderCertificate(cert, s.VerifyURL(cert.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to render certificate: %w", err)
	}

	return &ExportFile{
		Filename:    fmt.Sprintf("certificate-%s.html", cert.ID),
		ContentType: "text/html; charset=utf-8",
		Data:        data,
	}, nil
}

// VerifyURL is the public page a certificate QR code points at
func (s *certificateService) VerifyURL(certificateID string) string {
	return fmt.Sprintf("%s/certificates/verify/%s", s.publicBaseURL, certificateID)
}
