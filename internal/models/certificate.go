package models

import "time"

type Certificate struct {
	ID             string    `json:"certificate_id" gorm:"primaryKey;size:64"`
	UserID         string    `json:"user_id" gorm:"not null;size:255;uniqueIndex:idx_certificate_user_course"`
	CourseID       string    `json:"course_id" gorm:"not null;size:36;uniqueIndex:idx_certificate_user_course"`
	CourseName     string    `json:"course_name" gorm:"not null;size:200"`
	InstructorName string    `json:"instructor_name" gorm:"size:100"`
	UserName       string    `json:"user_name" gorm:"not null;size:100"`
	IssueDate      time.Time `json:"issue_date" gorm:"not null"`
}

func (Certificate) TableName() string {
	return "certificates"
}
