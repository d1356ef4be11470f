package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type CertificatePostgreSQL struct {
	db *gorm.DB
}

func NewCertificatePostgreSQL(db *gorm.DB) repositories.CertificateRepository {
	return &CertificatePostgreSQL{db: db}
}

// Create inserts the certificate. A second certificate for the same
// user and course is reported as ErrDuplicate without aborting the transaction.
func (r *CertificatePostgreSQL) Create(ctx context.Context, cert *models.Certificate) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(cert)
	if result.Error != nil {
		return fmt.Errorf("failed to create certificate: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrDuplicate
	}
	return nil
}

func (r *CertificatePostgreSQL) GetByID(ctx context.Context, id string) (*models.Certificate, error) {
	var cert models.Certificate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return &cert, nil
}

func (r *CertificatePostgreSQL) GetByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Certificate, error) {
	var cert models.Certificate
	if err := r.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&cert).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return &cert, nil
}

func (r *CertificatePostgreSQL) ListByUser(ctx context.Context, userID string) ([]*models.Certificate, error) {
	certs := make([]*models.Certificate, 0)
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("issue_date DESC").Find(&certs).Error; err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	return certs, nil
}

func (r *CertificatePostgreSQL) CountByCourses(ctx context.Context, courseIDs []string) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Certificate{})
	if courseIDs != nil {
		if len(courseIDs) == 0 {
			return 0, nil
		}
		query = query.Where("course_id IN ?", courseIDs)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count certificates: %w", err)
	}
	return count, nil
}
