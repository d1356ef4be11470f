package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		sqlDB.Close()
	})
	return db, mock
}

const addCompletedVideoSQL = `UPDATE enrollments\s+SET completed_videos = array_append\(completed_videos, \$1\)`

func TestEnrollmentPostgreSQL_AddCompletedVideo(t *testing.T) {
	ctx := context.Background()

	t.Run("new video returns the decoded array", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(addCompletedVideoSQL).
			WithArgs("vid-2", 1, "vid-2").
			WillReturnRows(sqlmock.NewRows([]string{"completed_videos"}).AddRow("{vid-1,vid-2}"))

		completed, added, err := NewEnrollmentPostgreSQL(db).AddCompletedVideo(ctx, 1, "vid-2")
		require.NoError(t, err)
		assert.True(t, added)
		assert.Equal(t, []string{"vid-1", "vid-2"}, completed)
	})

	t.Run("already present reads the stored array", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(addCompletedVideoSQL).
			WithArgs("vid-1", 1, "vid-1").
			WillReturnRows(sqlmock.NewRows([]string{"completed_videos"}))
		mock.ExpectQuery(`SELECT "id","completed_videos" FROM "enrollments" WHERE id = \$1`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "completed_videos"}).AddRow(1, "{vid-1}"))

		completed, added, err := NewEnrollmentPostgreSQL(db).AddCompletedVideo(ctx, 1, "vid-1")
		require.NoError(t, err)
		assert.False(t, added)
		assert.Equal(t, []string{"vid-1"}, completed)
	})

	t.Run("missing enrollment", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(addCompletedVideoSQL).
			WillReturnRows(sqlmock.NewRows([]string{"completed_videos"}))
		mock.ExpectQuery(`SELECT "id","completed_videos" FROM "enrollments"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "completed_videos"}))

		_, _, err := NewEnrollmentPostgreSQL(db).AddCompletedVideo(ctx, 9, "vid-1")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestEnrollmentPostgreSQL_MarkCompleted(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("certificate reference is coalesced", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE "enrollments" SET "certificate_id"=COALESCE\(certificate_id, \$1\),"completed"=\$2,"completed_at"=COALESCE\(completed_at, \$3\),"progress"=\$4`).
			WithArgs("CERT-1", true, at, 100, sqlmock.AnyArg(), 7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		certID := "CERT-1"
		require.NoError(t, NewEnrollmentPostgreSQL(db).MarkCompleted(ctx, 7, &certID, at))
	})

	t.Run("no certificate leaves the column alone", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE "enrollments" SET "completed"=\$1,"completed_at"=COALESCE\(completed_at, \$2\),"progress"=\$3`).
			WithArgs(true, at, 100, sqlmock.AnyArg(), 7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewEnrollmentPostgreSQL(db).MarkCompleted(ctx, 7, nil, at))
	})

	t.Run("missing enrollment", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`UPDATE "enrollments"`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewEnrollmentPostgreSQL(db).MarkCompleted(ctx, 7, nil, at)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestEnrollmentPostgreSQL_CreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`INSERT INTO "enrollments"`).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := NewEnrollmentPostgreSQL(db).Create(context.Background(), &models.Enrollment{
		AccountID:  "stu",
		CourseID:   "course-1",
		EnrolledAt: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
}

func TestCertificatePostgreSQL_Create(t *testing.T) {
	ctx := context.Background()
	newCert := func() *models.Certificate {
		return &models.Certificate{
			ID:         "CERT-1",
			UserID:     "stu",
			CourseID:   "course-1",
			CourseName: "Go",
			UserName:   "Stu",
			IssueDate:  time.Now().UTC(),
		}
	}

	t.Run("inserted", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO "certificates" .* ON CONFLICT DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewCertificatePostgreSQL(db).Create(ctx, newCert()))
	})

	t.Run("conflict is a duplicate", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`INSERT INTO "certificates" .* ON CONFLICT DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewCertificatePostgreSQL(db).Create(ctx, newCert())
		assert.ErrorIs(t, err, repositories.ErrDuplicate)
	})
}

func TestConversationPostgreSQL_IncrementUnread(t *testing.T) {
	ctx := context.Background()
	incrementSQL := `UPDATE "conversation_participants" SET "unread_count"=unread_count \+ \$1 WHERE conversation_id = \$2 AND account_id = \$3`

	t.Run("increments the receiver row", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(incrementSQL).
			WithArgs(1, "ins_stu", "stu").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewConversationPostgreSQL(db).IncrementUnread(ctx, "ins_stu", "stu"))
	})

	t.Run("unknown participant", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(incrementSQL).WillReturnResult(sqlmock.NewResult(0, 0))

		err := NewConversationPostgreSQL(db).IncrementUnread(ctx, "ins_stu", "eve")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})
}
