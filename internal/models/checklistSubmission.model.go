package models

import (
	"time"

	"gorm.io/gorm"
)

const MaxNotesLength = 500

type SubmissionStatus string

const (
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionIncomplete SubmissionStatus = "incomplete"
	SubmissionCompleted  SubmissionStatus = "completed"
)

// ChecklistSubmission is the dated instance of a schedule. There is at most one
// per (schedule, date).
type ChecklistSubmission struct {
	BaseModel
	ChecklistScheduleID int                         `gorm:"type:int;not null;uniqueIndex:idx_submission_schedule_date" json:"checklistScheduleId"`
	SubmissionDate      time.Time                   `gorm:"type:date;not null;uniqueIndex:idx_submission_schedule_date" json:"submissionDate"`
	Status              SubmissionStatus            `gorm:"type:text;not null;default:pending"                          json:"status"`
	SubmittedBy         *int                        `gorm:"type:int;index"                                              json:"submittedBy,omitempty"`
	Schedule            *ChecklistSchedule          `gorm:"foreignKey:ChecklistScheduleID"                              json:"schedule,omitempty"`
	Submitter           *User                       `gorm:"foreignKey:SubmittedBy"                                      json:"submitter,omitempty"`
	Details             []ChecklistSubmissionDetail `gorm:"foreignKey:SubmissionID;constraint:OnDelete:CASCADE"         json:"details,omitempty"`
}

// ChecklistSubmissionDetail is the per-item state of a submission. ItemID is a
// weak reference kept for display.
type ChecklistSubmissionDetail struct {
	BaseModel
	SubmissionID int                  `gorm:"type:int;not null;uniqueIndex:idx_detail_submission_item" json:"submissionId"`
	ItemID       int                  `gorm:"type:int;not null;uniqueIndex:idx_detail_submission_item" json:"itemId"`
	IsChecked    bool                 `gorm:"type:bool;not null;default:false"                         json:"isChecked"`
	Notes        *string              `gorm:"type:varchar(500)"                                         json:"notes"`
	Item         *ChecklistItem       `gorm:"foreignKey:ItemID"                                         json:"item,omitempty"`
	Submission   *ChecklistSubmission `gorm:"foreignKey:SubmissionID"                                   json:"-"`
}

func (s *ChecklistSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ChecklistScheduleID == 0 || s.SubmissionDate.IsZero() {
		return gorm.ErrInvalidValue
	}
	if s.Status == "" {
		s.Status = SubmissionPending
	}
	return nil
}

// DeriveStatus maps the checked/total ratio onto a submission status. It is a
// pure function of its inputs, so any status can move to any other.
func DeriveStatus(checked, total int) SubmissionStatus {
	switch {
	case total <= 0 || checked <= 0:
		return SubmissionPending
	case checked < total:
		return SubmissionIncomplete
	default:
		return SubmissionCompleted
	}
}

// CountChecked returns how many of the loaded details are checked.
func (s *ChecklistSubmission) CountChecked() int {
	checked := 0
	for _, detail := range s.Details {
		if detail.IsChecked {
			checked++
		}
	}
	return checked
}
