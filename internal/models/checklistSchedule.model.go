package models

import (
	"strings"
	"time"

	"checklist/internal/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ScheduleNamePrefix = "JDL-"

type PeriodeType string

const (
	PeriodeDaily         PeriodeType = "daily"
	PeriodeWeekly        PeriodeType = "weekly"
	PeriodeMonthly       PeriodeType = "monthly"
	PeriodeSpecificDates PeriodeType = "specific-dates"
)

func (p PeriodeType) IsValid() bool {
	switch p {
	case PeriodeDaily, PeriodeWeekly, PeriodeMonthly, PeriodeSpecificDates:
		return true
	}
	return false
}

// RequiresDetails reports whether schedule_details carries meaning for p.
func (p PeriodeType) RequiresDetails() bool {
	return p == PeriodeWeekly || p == PeriodeMonthly || p == PeriodeSpecificDates
}

// ChecklistSchedule attaches a recurrence rule to a master. The master is a
// weak reference: it may be soft-deleted while the schedule still exists.
type ChecklistSchedule struct {
	BaseModel
	ChecklistMasterID int                       `gorm:"type:int;not null;index"   json:"checklistMasterId"`
	Name              string                    `gorm:"type:text;not null"        json:"name"`
	PeriodeType       PeriodeType               `gorm:"type:text;not null"        json:"periodeType"`
	ScheduleDetails   datatypes.JSONSlice[string] `gorm:"type:jsonb"              json:"scheduleDetails"`
	EndDate           *time.Time                `gorm:"type:date"                 json:"endDate,omitempty"`
	CreatedBy         *int                      `gorm:"type:int;index"            json:"createdBy,omitempty"`
	Master            *ChecklistMaster          `gorm:"foreignKey:ChecklistMasterID" json:"master,omitempty"`
	Creator           *User                     `gorm:"foreignKey:CreatedBy"      json:"creator,omitempty"`
}

func (s *ChecklistSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.ChecklistMasterID == 0 || !s.PeriodeType.IsValid() {
		return gorm.ErrInvalidValue
	}
	return nil
}

// MatchesDate evaluates only the recurrence rule. Monthly schedules match a
// literal ISO date from schedule_details, not a recurring day of month.
func (s *ChecklistSchedule) MatchesDate(date time.Time) bool {
	switch s.PeriodeType {
	case PeriodeDaily:
		return true
	case PeriodeWeekly:
		weekday := strings.ToLower(date.Weekday().String())
		for _, day := range s.ScheduleDetails {
			if strings.EqualFold(strings.TrimSpace(day), weekday) {
				return true
			}
		}
		return false
	case PeriodeMonthly, PeriodeSpecificDates:
		iso := utils.FormatDate(date)
		for _, detail := range s.ScheduleDetails {
			if strings.TrimSpace(detail) == iso {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// IsActiveOn reports whether date falls on or before the inclusive end date.
func (s *ChecklistSchedule) IsActiveOn(date time.Time) bool {
	if s.EndDate == nil {
		return true
	}
	return utils.FormatDate(*s.EndDate) >= utils.FormatDate(date)
}

// IsDue is the due-date evaluator: recurrence match within the active window.
// Master availability is checked by callers that load the master.
func IsDue(s *ChecklistSchedule, date time.Time) bool {
	if s == nil {
		return false
	}
	return s.IsActiveOn(date) && s.MatchesDate(date)
}

var periodeLabels = map[PeriodeType]string{
	PeriodeDaily:         "Daily",
	PeriodeWeekly:        "Weekly",
	PeriodeMonthly:       "Monthly",
	PeriodeSpecificDates: "Specific dates",
}

// FormatPeriod renders a recurrence rule for people: weekly as weekday names,
// monthly as dd/mm and specific dates as dd/mm/yyyy.
func FormatPeriod(periode PeriodeType, details []string) string {
	label, ok := periodeLabels[periode]
	if !ok {
		return string(periode)
	}
	if !periode.RequiresDetails() || len(details) == 0 {
		return label
	}

	rendered := make([]string, 0, len(details))
	for _, detail := range details {
		switch periode {
		case PeriodeWeekly:
			day := strings.ToLower(strings.TrimSpace(detail))
			if day == "" {
				continue
			}
			rendered = append(rendered, strings.ToUpper(day[:1])+day[1:])
		case PeriodeMonthly:
			rendered = append(rendered, utils.FormatDayMonth(detail))
		case PeriodeSpecificDates:
			rendered = append(rendered, utils.FormatDayMonthYear(detail))
		}
	}

	return label + " (" + strings.Join(rendered, ", ") + ")"
}
