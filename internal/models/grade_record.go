package models

import (
	"time"

	"gorm.io/datatypes"
)

// GradeRecord is the persisted form of a grading report.
type GradeRecord struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	RunID          string            `gorm:"size:64;uniqueIndex;not null" json:"run_id"`
	AssignmentName string            `gorm:"size:255;not null" json:"assignment_name"`
	StudentEmail   string            `gorm:"size:255;index" json:"student_email"`
	PointsEarned   int               `gorm:"not null" json:"points_earned"`
	PointsPossible int               `gorm:"not null" json:"points_possible"`
	Feedback       string            `gorm:"type:text" json:"feedback"`
	Breakdown      datatypes.JSONMap `gorm:"type:json" json:"breakdown"`
	Partial        bool              `gorm:"default:false" json:"partial"`
	SubmittedAt    time.Time         `json:"submitted_at"`
	CreatedAt      time.Time         `json:"created_at"`
}
