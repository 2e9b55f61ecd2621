package models

import (
	"fmt"

	"gorm.io/datatypes"
)

type AuditActivity string

const (
	ActivityCreateMaster            AuditActivity = "create_master"
	ActivityUpdateMaster            AuditActivity = "update_master"
	ActivityDeleteMaster            AuditActivity = "delete_master"
	ActivityCreateSchedule          AuditActivity = "create_schedule"
	ActivityUpdateScheduleMaster    AuditActivity = "update_schedule_master"
	ActivityUpdateSchedulePeriod    AuditActivity = "update_schedule_period"
	ActivityUpdateScheduleDetails   AuditActivity = "update_schedule_details"
	ActivityUpdateScheduleEndDate   AuditActivity = "update_schedule_end_date"
	ActivityUpdateSchedule          AuditActivity = "update_schedule"
	ActivityDeleteSchedule          AuditActivity = "delete_schedule"
	ActivityCheckItem               AuditActivity = "check_item"
	ActivityUncheckItem             AuditActivity = "uncheck_item"
	ActivityAddNote                 AuditActivity = "add_note"
	ActivityRemoveNote              AuditActivity = "remove_note"
	ActivityChangeNote              AuditActivity = "change_note"
	ActivitySubmissionStatusChanged AuditActivity = "submission_status_changed"
	ActivityStartSubmission         AuditActivity = "start_submission"
)

var auditActivities = map[AuditActivity]bool{
	ActivityCreateMaster:            true,
	ActivityUpdateMaster:            true,
	ActivityDeleteMaster:            true,
	ActivityCreateSchedule:          true,
	ActivityUpdateScheduleMaster:    true,
	ActivityUpdateSchedulePeriod:    true,
	ActivityUpdateScheduleDetails:   true,
	ActivityUpdateScheduleEndDate:   true,
	ActivityUpdateSchedule:          true,
	ActivityDeleteSchedule:          true,
	ActivityCheckItem:               true,
	ActivityUncheckItem:             true,
	ActivityAddNote:                 true,
	ActivityRemoveNote:              true,
	ActivityChangeNote:              true,
	ActivitySubmissionStatusChanged: true,
	ActivityStartSubmission:         true,
}

// IsAuditActivity reports whether value names a known activity kind.
func IsAuditActivity(value string) bool {
	return auditActivities[AuditActivity(value)]
}

const (
	EntityMaster           = "master"
	EntitySchedule         = "schedule"
	EntitySubmission       = "submission"
	EntitySubmissionDetail = "submission_detail"
)

// ChecklistLog is a structured audit event. Detail holds the rendered text at
// write time; Describe can re-render it from the snapshots at any time.
type ChecklistLog struct {
	BaseModel
	ChecklistMasterID int               `gorm:"type:int;not null;index"  json:"checklistMasterId"`
	EntityType        string            `gorm:"type:text;not null"       json:"entityType"`
	EntityID          int               `gorm:"type:int;not null"        json:"entityId"`
	UserID            *int              `gorm:"type:int;index"           json:"userId,omitempty"`
	ActorEmployeeID   string            `gorm:"type:text"                json:"actorEmployeeId"`
	ActorName         string            `gorm:"column:name;type:text"    json:"name"`
	Activity          AuditActivity     `gorm:"type:text;not null;index" json:"activity"`
	Before            datatypes.JSONMap `gorm:"type:jsonb"               json:"before,omitempty"`
	After             datatypes.JSONMap `gorm:"type:jsonb"               json:"after,omitempty"`
	Detail            string            `gorm:"column:detail_act;type:text" json:"detail"`
}

// SetActor stamps the acting identity. The synthetic system actor has no row id.
func (l *ChecklistLog) SetActor(actor *User) {
	if actor == nil {
		actor = SystemUser()
	}
	if actor.ID != 0 {
		id := actor.ID
		l.UserID = &id
	} else {
		l.UserID = nil
	}
	l.ActorEmployeeID = actor.EmployeeID
	l.ActorName = actor.Name
}

// Describe renders the event as human-readable text from its snapshots.
func (l *ChecklistLog) Describe() string {
	before := func(key string) string { return snapshotValue(l.Before, key) }
	after := func(key string) string { return snapshotValue(l.After, key) }

	switch l.Activity {
	case ActivityCreateMaster:
		return fmt.Sprintf("Created checklist master %q (%s items)", after("name"), after("itemCount"))
	case ActivityUpdateMaster:
		return fmt.Sprintf("Updated checklist master %q", after("name"))
	case ActivityDeleteMaster:
		return fmt.Sprintf("Deleted checklist master %q", before("name"))
	case ActivityCreateSchedule:
		return fmt.Sprintf("Created schedule %s for %q: %s", after("name"), after("master"), after("period"))
	case ActivityUpdateScheduleMaster:
		return fmt.Sprintf("Changed schedule %s master from %q to %q", after("name"), before("master"), after("master"))
	case ActivityUpdateSchedulePeriod:
		return fmt.Sprintf("Changed schedule %s period from %s to %s", after("name"), before("period"), after("period"))
	case ActivityUpdateScheduleDetails:
		return fmt.Sprintf("Changed schedule %s details from %s to %s", after("name"), before("period"), after("period"))
	case ActivityUpdateScheduleEndDate:
		return fmt.Sprintf("Changed schedule %s end date from %s to %s", after("name"), orNone(before("endDate")), orNone(after("endDate")))
	case ActivityUpdateSchedule:
		return fmt.Sprintf("Updated schedule %s", after("name"))
	case ActivityDeleteSchedule:
		return fmt.Sprintf("Deleted schedule %s for %q", before("name"), before("master"))
	case ActivityCheckItem:
		return fmt.Sprintf("Checked %q on %s", after("activityName"), after("submissionDate"))
	case ActivityUncheckItem:
		return fmt.Sprintf("Unchecked %q on %s", after("activityName"), after("submissionDate"))
	case ActivityAddNote:
		return fmt.Sprintf("Added note to %q: %q", after("activityName"), after("notes"))
	case ActivityRemoveNote:
		return fmt.Sprintf("Removed note %q from %q", before("notes"), after("activityName"))
	case ActivityChangeNote:
		return fmt.Sprintf("Changed note on %q from %q to %q", after("activityName"), before("notes"), after("notes"))
	case ActivitySubmissionStatusChanged:
		return fmt.Sprintf("Submission for %s changed from %s to %s", after("submissionDate"), before("status"), after("status"))
	case ActivityStartSubmission:
		return fmt.Sprintf("Started submission for schedule %s on %s", after("schedule"), after("submissionDate"))
	default:
		return string(l.Activity)
	}
}

func snapshotValue(snapshot datatypes.JSONMap, key string) string {
	if snapshot == nil {
		return ""
	}
	value, ok := snapshot[key]
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}

func orNone(value string) string {
	if value == "" {
		return "none"
	}
	return value
}
